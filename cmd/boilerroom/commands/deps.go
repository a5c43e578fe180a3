package commands

import (
	"boilerroom-backend/internal/components/telemetry"
	"boilerroom-backend/internal/db"
	"boilerroom-backend/internal/enrichment"
	"boilerroom-backend/internal/hltb"
	"boilerroom-backend/internal/steam"
	"boilerroom-backend/lib/restyutil"
	"boilerroom-backend/lib/serviceutil"
	"time"

	"github.com/jmoiron/sqlx"
)

type deps struct {
	config  Config
	tel     telemetry.API
	db      *sqlx.DB
	store   db.Store
	service enrichment.Service
}

func (d deps) Close() {
	d.db.Close()
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// setup reads the config and wires up every component, it exits the
// process on failure.
func setup() deps {
	config, err := readConfig()
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	tel := telemetry.SlogAPI{}

	database, err := db.Open(config.Database.Driver, config.Database.Url)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	store := db.NewStore(database)

	var output restyutil.InstrumentOutput
	if verbose {
		fsOutput, err := restyutil.NewFilesystemOutput(".dev/resty/steam")
		if err != nil {
			serviceutil.Fatal("failed to create resty output directory", err)
		}
		output = fsOutput
	}

	steamClient := steam.NewClient(steam.Options{
		BaseUrl:           config.Steam.BaseUrl,
		Timeout:           seconds(config.Steam.TimeoutSeconds),
		RequestsPerSecond: config.Steam.RequestsPerSecond,
		BreakerFailures:   config.Steam.BreakerFailures,
		BreakerCooldown:   seconds(config.Steam.BreakerCooldownSeconds),
		InstrumentOutput:  output,
	}, tel)

	renderer := hltb.NewRodRenderer(hltb.RodOptions{
		Bin:               config.Hltb.BrowserBin,
		Headless:          !config.Hltb.ShowBrowser,
		NavigationTimeout: seconds(config.Hltb.NavigationTimeoutSeconds),
		SettleTimeout:     seconds(config.Hltb.SettleTimeoutSeconds),
		WaitSelector:      config.Hltb.WaitSelector,
	})
	hltbClient := hltb.NewClient(config.Hltb.BaseUrl, renderer, tel)

	service, err := enrichment.NewService(store, steamClient, hltbClient, enrichment.Options{
		BatchSize:     config.Enrichment.BatchSize,
		Concurrency:   config.Enrichment.Concurrency,
		QualityWeight: config.Enrichment.QualityWeight,
	}, tel)
	if err != nil {
		serviceutil.Fatal("failed to create enrichment service", err)
	}

	return deps{
		config:  config,
		tel:     tel,
		db:      database,
		store:   store,
		service: service,
	}
}
