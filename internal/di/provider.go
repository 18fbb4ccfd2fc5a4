package di

import (
	"log/slog"

	"github.com/LeJamon/goAMM/internal/config"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/logging"
	"github.com/LeJamon/goAMM/internal/storage"
	"github.com/LeJamon/goAMM/internal/storage/kvstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	// contract kinds available to the engine
	_ "github.com/LeJamon/goAMM/internal/core/factory"
	_ "github.com/LeJamon/goAMM/internal/core/pathprovider"
	_ "github.com/LeJamon/goAMM/internal/core/router"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)

	p.registerLogger()
	p.registerStorageBuilders()
	p.registerMetricsBuilders()
	p.registerEngineBuilders()

	return nil
}

func (p *Provider) registerLogger() {
	p.container.RegisterBuilder(ServiceLogger, func(c *Container) (interface{}, error) {
		return logging.NewLogger(p.config.Log.Level), nil
	})
}

// registerStorageBuilders registers the store manager and the state database.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceStorage, func(c *Container) (interface{}, error) {
		m, err := storage.NewManager(p.config.Storage.Backend, p.config.Storage.Path)
		if err != nil {
			return nil, err
		}
		c.OnClose(m)
		return m, nil
	})

	p.container.RegisterBuilder(ServiceStateDB, func(c *Container) (interface{}, error) {
		m, err := Resolve[kvstore.Manager](c, ServiceStorage)
		if err != nil {
			return nil, err
		}
		return storage.OpenState(m, p.config.Storage.CacheSize)
	})
}

// registerMetricsBuilders registers a private Prometheus registry carrying
// the engine collectors plus the Go and process collectors.
func (p *Provider) registerMetricsBuilders() {
	p.container.RegisterBuilder(ServiceRegistry, func(c *Container) (interface{}, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})

	p.container.RegisterBuilder(ServiceMetrics, func(c *Container) (interface{}, error) {
		reg, err := Resolve[*prometheus.Registry](c, ServiceRegistry)
		if err != nil {
			return nil, err
		}
		return runtime.NewMetrics(reg), nil
	})
}

// registerEngineBuilders registers the height counter and the call engine.
func (p *Provider) registerEngineBuilders() {
	p.container.RegisterBuilder(ServiceHeights, func(c *Container) (interface{}, error) {
		return runtime.NewCounter(p.config.Chain.StartHeight), nil
	})

	p.container.RegisterBuilder(ServiceEngine, func(c *Container) (interface{}, error) {
		db, err := Resolve[kvstore.DB](c, ServiceStateDB)
		if err != nil {
			return nil, err
		}
		heights, err := Resolve[*runtime.Counter](c, ServiceHeights)
		if err != nil {
			return nil, err
		}
		metrics, err := Resolve[*runtime.Metrics](c, ServiceMetrics)
		if err != nil {
			return nil, err
		}
		logger, err := Resolve[*slog.Logger](c, ServiceLogger)
		if err != nil {
			return nil, err
		}
		return runtime.NewEngine(db, runtime.EngineConfig{
			Heights:  heights,
			Logger:   logger,
			Metrics:  metrics,
			MaxDepth: p.config.Chain.MaxCallDepth,
		}), nil
	})
}

// Engine returns the call engine, building it and its dependencies.
func (p *Provider) Engine() (*runtime.Engine, error) {
	return Resolve[*runtime.Engine](p.container, ServiceEngine)
}

// Heights returns the height counter shared with the engine.
func (p *Provider) Heights() (*runtime.Counter, error) {
	return Resolve[*runtime.Counter](p.container, ServiceHeights)
}

// Registry returns the Prometheus registry served by the daemon.
func (p *Provider) Registry() (*prometheus.Registry, error) {
	return Resolve[*prometheus.Registry](p.container, ServiceRegistry)
}

// Logger returns the configured logger.
func (p *Provider) Logger() (*slog.Logger, error) {
	return Resolve[*slog.Logger](p.container, ServiceLogger)
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}
