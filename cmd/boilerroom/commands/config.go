package commands

import (
	"boilerroom-backend/internal/db"
	"boilerroom-backend/lib/configutil"
	"os"
)

type DatabaseConfig struct {
	// "postgres" or "sqlite"
	Driver string `json:"driver"`
	// overridden by the DB_URL environment variable
	Url string `json:"url"`
}

type SteamConfig struct {
	BaseUrl                string  `json:"base_url"`
	RequestsPerSecond      float64 `json:"requests_per_second"`
	TimeoutSeconds         int     `json:"timeout_seconds"`
	BreakerFailures        uint32  `json:"breaker_failures"`
	BreakerCooldownSeconds int     `json:"breaker_cooldown_seconds"`
}

type HltbConfig struct {
	BaseUrl string `json:"base_url"`
	// path to a chromium binary, rod finds or downloads one if empty
	BrowserBin string `json:"browser_bin"`
	// runs the browser with a window, useful for debugging the scraper
	ShowBrowser              bool   `json:"show_browser"`
	NavigationTimeoutSeconds int    `json:"navigation_timeout_seconds"`
	SettleTimeoutSeconds     int    `json:"settle_timeout_seconds"`
	WaitSelector             string `json:"wait_selector"`
}

type EnrichmentConfig struct {
	BatchSize     int     `json:"batch_size"`
	Concurrency   int     `json:"concurrency"`
	QualityWeight float64 `json:"quality_weight"`
}

type ServerConfig struct {
	Port              int      `json:"port"`
	AllowedOrigins    []string `json:"allowed_origins"`
	RequestsPerMinute int      `json:"requests_per_minute"`
	RenderStatusUrl   string   `json:"render_status_url"`
	// a cron spec for running the cronjob inside the server, empty disables it
	Cron string `json:"cron"`
	// the timezone the cron spec is interpreted in, defaults to UTC
	Timezone string `json:"timezone"`
}

type Config struct {
	Database   DatabaseConfig   `json:"database"`
	Steam      SteamConfig      `json:"steam"`
	Hltb       HltbConfig       `json:"hltb"`
	Enrichment EnrichmentConfig `json:"enrichment"`
	Server     ServerConfig     `json:"server"`
}

var defaultConfig = Config{
	Database: DatabaseConfig{
		Driver: db.DriverPostgres,
	},
	Steam: SteamConfig{
		BaseUrl:                "https://store.steampowered.com",
		RequestsPerSecond:      1,
		TimeoutSeconds:         30,
		BreakerFailures:        5,
		BreakerCooldownSeconds: 60,
	},
	Hltb: HltbConfig{
		BaseUrl:                  "https://howlongtobeat.com",
		NavigationTimeoutSeconds: 600,
		SettleTimeoutSeconds:     5,
		WaitSelector:             "tr.spreadsheet",
	},
	Enrichment: EnrichmentConfig{
		BatchSize:     100,
		Concurrency:   4,
		QualityWeight: 0.75,
	},
	Server: ServerConfig{
		Port:              9090,
		AllowedOrigins:    []string{"*"},
		RequestsPerMinute: 120,
		RenderStatusUrl:   "https://boiler-room-actions.onrender.com/status",
	},
}

func readConfig() (Config, error) {
	config, err := configutil.ReadConfigWithDefaults(configPath, defaultConfig)
	if err != nil {
		return Config{}, err
	}
	if url := os.Getenv("DB_URL"); url != "" {
		config.Database.Url = url
	}
	return config, nil
}
