package enrichment

import (
	"boilerroom-backend/internal/components/telemetry"
	"boilerroom-backend/internal/db"
	"boilerroom-backend/internal/hltb"
	"boilerroom-backend/internal/steam"
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("boilerroom.internal.enrichment")
	meter  = otel.Meter("boilerroom.internal.enrichment")
)

// Steam is the subset of the steam store api used to enrich games.
type Steam interface {
	AppDetails(ctx context.Context, appId int64) (steam.AppDetails, error)
	Reviews(ctx context.Context, appId int64) (steam.ReviewSummary, bool, error)
}

// PlaytimeSource returns the hours to beat of every game in a steam
// profile's library.
type PlaytimeSource interface {
	ProfilePlaytimes(ctx context.Context, steamId string) ([]hltb.Entry, error)
}

type Options struct {
	// max buffered games read per LoadGames call, defaults to 100
	BatchSize int
	// max games enriched at once, defaults to 4
	Concurrency int
	// weight of the critic score in the boil rating, defaults to 0.75
	QualityWeight float64
}

func (o *Options) setDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
}

// Service moves buffered ids into enriched rows.
type Service struct {
	store     db.Store
	steam     Steam
	playtimes PlaytimeSource
	options   Options
	tel       telemetry.API
	// held for the duration of a RunCronjob
	running *sync.Mutex

	gamesProcessed   metric.Int64Counter
	playtimesUpdated metric.Int64Counter
}

func NewService(
	store db.Store,
	steamApi Steam,
	playtimes PlaytimeSource,
	options Options,
	tel telemetry.API,
) (Service, error) {
	options.setDefaults()

	gamesProcessed, err := meter.Int64Counter(
		"games_processed",
		metric.WithDescription("buffered games processed, by outcome"),
	)
	if err != nil {
		return Service{}, err
	}
	playtimesUpdated, err := meter.Int64Counter(
		"playtimes_updated",
		metric.WithDescription("games whose hltb and boil scores were updated"),
	)
	if err != nil {
		return Service{}, err
	}

	return Service{
		store:            store,
		steam:            steamApi,
		playtimes:        playtimes,
		options:          options,
		tel:              telemetry.NewScopedAPI("enrichment", tel),
		running:          &sync.Mutex{},
		gamesProcessed:   gamesProcessed,
		playtimesUpdated: playtimesUpdated,
	}, nil
}
