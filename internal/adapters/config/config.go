package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"revshare/pkg/errors"
)

type Config struct {
	App           AppConfig
	Simulation    SimulationConfig
	Delegators    DelegatorConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"revshare"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// SimulationConfig describes the pool and the run
type SimulationConfig struct {
	Seed             uint64  `envconfig:"SIM_SEED" default:"1"`
	Timesteps        int     `envconfig:"SIM_TIMESTEPS" default:"365"`
	InitialSupply    float64 `envconfig:"SIM_INITIAL_SUPPLY" default:"1000"`
	InitialReserve   float64 `envconfig:"SIM_INITIAL_RESERVE" default:"1000"`
	OwnersShare      float64 `envconfig:"SIM_OWNERS_SHARE" default:"0.2"`
	ExchangeRate     float64 `envconfig:"SIM_RESERVE_TO_REVENUE_RATE" default:"1"`
	MinPctDiffToAct  float64 `envconfig:"SIM_MIN_PCT_DIFF_TO_ACT" default:"0.02"`
	TrendPeriod      int     `envconfig:"SIM_TREND_PERIOD" default:"10"`
	VestingPolicy    string  `envconfig:"SIM_VESTING_POLICY" default:"cliff"` // cliff|half_life
	VestingCliff     int     `envconfig:"SIM_VESTING_CLIFF" default:"30"`
	VestingHalfLife  float64 `envconfig:"SIM_VESTING_HALF_LIFE" default:"14"`
	StepsPerSecond   float64 `envconfig:"SIM_STEPS_PER_SECOND" default:"0"` // 0 = unpaced
	SnapshotInterval int     `envconfig:"SIM_SNAPSHOT_INTERVAL" default:"1"`
}

// DelegatorConfig describes the population
type DelegatorConfig struct {
	Count                int     `envconfig:"DELEGATOR_COUNT" default:"10"`
	FounderShares        float64 `envconfig:"DELEGATOR_FOUNDER_SHARES" default:"100"`
	FounderMinimumShares float64 `envconfig:"DELEGATOR_FOUNDER_MINIMUM_SHARES" default:"50"`
	ReserveTokenHoldings float64 `envconfig:"DELEGATOR_RESERVE_HOLDINGS" default:"100"`
	ExpectedRevenue      float64 `envconfig:"DELEGATOR_EXPECTED_REVENUE" default:"10"`
	RevenueNoise         float64 `envconfig:"DELEGATOR_REVENUE_NOISE" default:"0.1"`
	DiscountRate         float64 `envconfig:"DELEGATOR_DISCOUNT_RATE" default:"0.9"`
	ActivityRate         float64 `envconfig:"DELEGATOR_ACTIVITY_RATE" default:"0.5"`
	SmoothingFactor      float64 `envconfig:"DELEGATOR_SMOOTHING_FACTOR" default:"0.9"`
	MixedTypes           bool    `envconfig:"DELEGATOR_MIXED_TYPES" default:"false"`
}

type PostgresConfig struct {
	Enabled  bool   `envconfig:"POSTGRES_ENABLED" default:"false"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"revshare"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"revshare"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Enabled   bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host      string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port      int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User      string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password  string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database  string `envconfig:"CLICKHOUSE_DB" default:"revshare"`
	BatchSize int    `envconfig:"CLICKHOUSE_BATCH_SIZE" default:"50"`
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_POOL_STATE_TTL" default:"24h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Async   bool     `envconfig:"KAFKA_ASYNC" default:"false"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	var errs errors.MultiError

	if c.Simulation.Timesteps <= 0 {
		errs.Add(errors.NewValidationError("SIM_TIMESTEPS", "must be positive", c.Simulation.Timesteps))
	}
	if c.Simulation.InitialSupply <= 0 {
		errs.Add(errors.NewValidationError("SIM_INITIAL_SUPPLY", "must be positive", c.Simulation.InitialSupply))
	}
	if c.Simulation.InitialReserve <= 0 {
		errs.Add(errors.NewValidationError("SIM_INITIAL_RESERVE", "must be positive", c.Simulation.InitialReserve))
	}
	if c.Simulation.OwnersShare < 0 || c.Simulation.OwnersShare > 1 {
		errs.Add(errors.NewValidationError("SIM_OWNERS_SHARE", "must be in [0, 1]", c.Simulation.OwnersShare))
	}
	switch c.Simulation.VestingPolicy {
	case "cliff", "half_life":
	default:
		errs.Add(errors.NewValidationError("SIM_VESTING_POLICY", "must be cliff or half_life", c.Simulation.VestingPolicy))
	}
	if c.Delegators.Count <= 0 {
		errs.Add(errors.NewValidationError("DELEGATOR_COUNT", "must be positive", c.Delegators.Count))
	}
	if founders := float64(c.Delegators.Count) * c.Delegators.FounderShares; founders > c.Simulation.InitialSupply {
		errs.Add(errors.NewValidationError("DELEGATOR_FOUNDER_SHARES", "founding grants exceed SIM_INITIAL_SUPPLY", founders))
	}
	if c.ErrorTracking.Enabled && c.ErrorTracking.SentryDSN == "" {
		errs.Add(errors.NewValidationError("SENTRY_DSN", "required when error tracking is enabled", ""))
	}

	return errs.ToError()
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &cfg, nil
}
