package bootstrap

import (
	"context"
	"sync"

	chclient "revshare/internal/adapters/clickhouse"
	"revshare/internal/adapters/config"
	"revshare/internal/adapters/kafka"
	pgclient "revshare/internal/adapters/postgres"
	redisclient "revshare/internal/adapters/redis"
	"revshare/internal/api"
	"revshare/internal/simulation"
	"revshare/pkg/errors"
	"revshare/pkg/logger"
)

// Container holds all application dependencies and their lifecycle
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (optional sinks, nil when disabled)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client
	Kafka *kafka.Producer

	// Step recorders fed by the engine
	Recorders *simulation.MultiRecorder

	// Simulation
	Engine *simulation.Engine

	// Probes and metrics endpoint, nil when disabled
	HTTPServer *api.Server

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRecorders()
	c.MustInitSimulation()
	c.MustInitHTTP()
}

// Start starts the HTTP server when enabled
func (c *Container) Start() error {
	if c.HTTPServer == nil {
		return nil
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
		}
	}()
	return nil
}

// Run executes the simulation until it finishes or the container context is cancelled
func (c *Container) Run() (*simulation.Result, error) {
	if c.Engine == nil {
		return nil, errors.Wrap(errors.ErrInternal, "engine not initialized")
	}
	return c.Engine.Run(c.Context)
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.HTTPServer,
		c.Kafka,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}
