package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config is the immutable per-process configuration. A deployment runs one
// process per factory; the factory restriction and the stagger phase are what
// keep sibling processes from colliding on the shared upstream quota.
type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// SheetsAPIKey may be empty: the process then starts in null-reader mode,
	// serving empty data and logging loudly instead of crashing.
	SheetsAPIKey  string `env:"SHEETS_API_KEY"`
	SpreadsheetID string `env:"SPREADSHEET_ID"`

	// Factory restricts this process to one owning group's rows.
	Factory string `env:"FACTORY"`

	// Range expressions per sheet family, already scoped to this factory's
	// row subset (a deployment may restrict one process to a slice of a
	// larger shared sheet).
	ProductionRange       string `env:"PRODUCTION_RANGE" default:"Production!A3:R60"`
	ProductionDetailRange string `env:"PRODUCTION_DETAIL_RANGE" default:"Checkpoints!A3:AZ200"`
	TeamsRange            string `env:"TEAMS_RANGE" default:"Teams!A3:Q300"`
	ProductsRange         string `env:"PRODUCTS_RANGE" default:"Products!A3:S400"`

	// ActiveHours lists the local-time windows in which polling runs,
	// e.g. "07:30-11:30,12:30-21:30".
	ActiveHours string `env:"ACTIVE_HOURS" default:"07:30-21:30"`

	// MinCycleInterval is the minimum spacing between cycle starts, applied
	// regardless of the nominal trigger cadence.
	MinCycleInterval time.Duration `env:"MIN_CYCLE_INTERVAL" default:"75s"`

	// StaggerPeriodMinutes/StaggerOffsetMinutes give this process its phase:
	// a cycle may start only in minutes where minute % period == offset.
	// Siblings get distinct offsets so their polls land on different minutes.
	StaggerPeriodMinutes int `env:"STAGGER_PERIOD_MINUTES" default:"2"`
	StaggerOffsetMinutes int `env:"STAGGER_OFFSET_MINUTES" default:"0"`

	// InterEntityDelay smooths the request rate inside one cycle.
	InterEntityDelay time.Duration `env:"INTER_ENTITY_DELAY" default:"500ms"`

	// MinRequestSpacing is the fetch client's global throttle.
	MinRequestSpacing time.Duration `env:"MIN_REQUEST_SPACING" default:"100ms"`

	RetryMaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" default:"1s"`
	RetryMaxJitter   time.Duration `env:"RETRY_MAX_JITTER" default:"250ms"`

	ReadTimeout time.Duration `env:"READ_TIMEOUT" default:"15s"`

	// RangeCacheTTL bounds staleness on the cached read path. Interactive
	// paths may bypass the cache explicitly.
	RangeCacheTTL time.Duration `env:"RANGE_CACHE_TTL" default:"20s"`

	// TeamCounts statically configures the expected sub-row count per parent
	// line for the teams layout, e.g. "L1:4,L2:4,L3:3".
	TeamCounts string `env:"TEAM_COUNTS"`

	// GroupingRules lists index pairs to merge per family,
	// e.g. "teams:L1:1-2,3-4;products:L2:1-2".
	GroupingRules string `env:"GROUPING_RULES"`

	// TrailerMarker is the case-insensitive prefix that delimits the
	// variable trailing block in the products layout.
	TrailerMarker string `env:"TRAILER_MARKER" default:"SAMPLE"`

	// RedisURL enables the shared broker so sibling processes fan out
	// through one channel space. Empty runs the in-memory broker.
	RedisURL string `env:"REDIS_URL"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Factory == "" {
		return fmt.Errorf("FACTORY is required")
	}
	if cfg.SheetsAPIKey != "" && cfg.SpreadsheetID == "" {
		return fmt.Errorf("SPREADSHEET_ID is required when SHEETS_API_KEY is set")
	}
	if cfg.StaggerPeriodMinutes < 1 {
		return fmt.Errorf("STAGGER_PERIOD_MINUTES must be >= 1")
	}
	if cfg.StaggerOffsetMinutes < 0 || cfg.StaggerOffsetMinutes >= cfg.StaggerPeriodMinutes {
		return fmt.Errorf("STAGGER_OFFSET_MINUTES must be in [0, STAGGER_PERIOD_MINUTES)")
	}
	if cfg.MinCycleInterval < time.Second {
		return fmt.Errorf("MIN_CYCLE_INTERVAL must be at least 1s")
	}
	if cfg.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	return nil
}
