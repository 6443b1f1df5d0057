package bootstrap

import (
	"context"
	"time"

	chclient "revshare/internal/adapters/clickhouse"
	"revshare/internal/adapters/config"
	errnoop "revshare/internal/adapters/errors/noop"
	"revshare/internal/adapters/errors/sentry"
	"revshare/internal/adapters/kafka"
	pgclient "revshare/internal/adapters/postgres"
	redisclient "revshare/internal/adapters/redis"
	"revshare/internal/api"
	"revshare/internal/api/health"
	"revshare/internal/domain/delegator"
	"revshare/internal/metrics"
	chrepo "revshare/internal/repository/clickhouse"
	pgrepo "revshare/internal/repository/postgres"
	"revshare/internal/repository/redis"
	"revshare/internal/simulation"
	"revshare/pkg/errors"
	"revshare/pkg/logger"
)

// connectTimeout bounds each sink's connect and migrate phase
const connectTimeout = 15 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the enabled data stores and the Kafka producer
func (c *Container) MustInitInfrastructure() {
	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()

	var err error

	if c.Config.Postgres.Enabled {
		c.Log.Info("Connecting to PostgreSQL...")
		c.PG, err = pgclient.NewClient(ctx, c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	}

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		c.CH, err = chclient.NewClient(ctx, c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(ctx, c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}

	if c.Config.Kafka.Enabled {
		c.Kafka = provideKafkaProducer(c.Config, c.Log)
	}
}

// ========================================
// Phase 3: Recorders
// ========================================

// MustInitRecorders creates one recorder per enabled sink and migrates its schema
func (c *Container) MustInitRecorders() {
	ctx, cancel := context.WithTimeout(c.Context, connectTimeout)
	defer cancel()

	recorders, err := provideRecorders(ctx, c)
	if err != nil {
		c.Log.Fatalf("failed to init recorders: %v", err)
	}
	c.Recorders = simulation.NewMultiRecorder(recorders...)

	c.Log.Infow("✓ Recorders initialized", "count", c.Recorders.Len())
}

// ========================================
// Phase 4: Simulation
// ========================================

// MustInitSimulation seeds the population and builds the engine
func (c *Container) MustInitSimulation() {
	engine, err := provideEngine(c.Config, c.Recorders)
	if err != nil {
		c.Log.Fatalf("failed to init simulation: %v", err)
	}
	c.Engine = engine
	c.ErrorTracker.SetRun(engine.RunID().String(), c.Config.Simulation.Seed)

	c.Log.Infow("✓ Simulation ready",
		"run_id", engine.RunID().String(),
		"seed", c.Config.Simulation.Seed,
		"delegators", c.Config.Delegators.Count,
		"vesting", c.Config.Simulation.VestingPolicy,
	)
}

// ========================================
// Phase 5: HTTP
// ========================================

// MustInitHTTP registers collectors and builds the health and metrics server
func (c *Container) MustInitHTTP() {
	if !c.Config.Metrics.Enabled {
		return
	}

	metrics.Init()

	healthHandler := health.New(c.Log, provideHealthCheckers(c), c.Config.App.Name, c.Engine.RunID().String())
	c.HTTPServer = api.NewServer(api.ServerConfig{
		Addr:        c.Config.Metrics.Addr,
		ServiceName: c.Config.App.Name,
		RunID:       c.Engine.RunID().String(),
	}, healthHandler, c.Log)
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideKafkaProducer(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	log.Info("Initializing Kafka producer...")
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("Kafka brokers not configured, using default localhost:9092")
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Async:   cfg.Kafka.Async,
	})
	log.Info("✓ Kafka producer initialized")
	return producer
}

// provideHealthCheckers returns a checker per connected data store
func provideHealthCheckers(c *Container) map[string]health.Checker {
	checkers := make(map[string]health.Checker)
	if c.PG != nil {
		checkers["postgres"] = c.PG
	}
	if c.CH != nil {
		checkers["clickhouse"] = c.CH
	}
	if c.Redis != nil {
		checkers["redis"] = c.Redis
	}
	return checkers
}

// provideRecorders builds recorders for the sinks the container connected
func provideRecorders(ctx context.Context, c *Container) ([]simulation.Recorder, error) {
	var recorders []simulation.Recorder

	if c.PG != nil {
		repo := pgrepo.NewDelegatorSnapshotRepository(c.PG.DB())
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		recorders = append(recorders, simulation.NewSnapshotRecorder(repo))
	}

	if c.CH != nil {
		repo := chrepo.NewPoolHistoryRepository(c.CH.Conn())
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		recorders = append(recorders, simulation.NewPoolHistoryRecorder(repo, c.Config.ClickHouse.BatchSize))
	}

	if c.Redis != nil {
		cache := redis.NewPoolCache(c.Redis.Client(), c.Config.Redis.TTL)
		recorders = append(recorders, simulation.NewPoolCacheRecorder(cache))
	}

	if c.Kafka != nil {
		recorders = append(recorders, simulation.NewEventRecorder(c.Kafka, simulation.EventTopics{
			Trades: kafka.TopicTradeExecuted,
			Steps:  kafka.TopicPoolStep,
		}))
	}

	if c.Config.Metrics.Enabled {
		recorders = append(recorders, simulation.NewMetricsRecorder())
	}

	return recorders, nil
}

// provideEngine seeds a population from cfg and wires it to an engine
func provideEngine(cfg *config.Config, recorder simulation.Recorder) (*simulation.Engine, error) {
	vesting, err := simulation.NewVestingPolicy(
		cfg.Simulation.VestingPolicy,
		cfg.Simulation.VestingCliff,
		cfg.Simulation.VestingHalfLife,
	)
	if err != nil {
		return nil, err
	}

	population := simulation.NewPopulation(delegator.NewSource(cfg.Simulation.Seed))
	if err := population.Seed(populationConfig(cfg.Delegators)); err != nil {
		return nil, errors.Wrap(err, "failed to seed population")
	}

	return simulation.NewEngine(engineSettings(cfg.Simulation), population, vesting, recorder)
}

func engineSettings(cfg config.SimulationConfig) simulation.Settings {
	return simulation.Settings{
		Timesteps:        cfg.Timesteps,
		InitialSupply:    cfg.InitialSupply,
		InitialReserve:   cfg.InitialReserve,
		OwnersShare:      cfg.OwnersShare,
		ExchangeRate:     cfg.ExchangeRate,
		MinPctDiffToAct:  cfg.MinPctDiffToAct,
		TrendPeriod:      cfg.TrendPeriod,
		StepsPerSecond:   cfg.StepsPerSecond,
		SnapshotInterval: cfg.SnapshotInterval,
	}
}

func populationConfig(cfg config.DelegatorConfig) simulation.PopulationConfig {
	return simulation.PopulationConfig{
		Count:                cfg.Count,
		FounderShares:        cfg.FounderShares,
		FounderMinimumShares: cfg.FounderMinimumShares,
		ReserveTokenHoldings: cfg.ReserveTokenHoldings,
		ExpectedRevenue:      cfg.ExpectedRevenue,
		RevenueNoise:         cfg.RevenueNoise,
		DiscountRate:         cfg.DiscountRate,
		ActivityRate:         cfg.ActivityRate,
		SmoothingFactor:      cfg.SmoothingFactor,
		MixedTypes:           cfg.MixedTypes,
	}
}
