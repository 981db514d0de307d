package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/harvester-api/config"
	redisadapter "github.com/target/harvester-api/internal/adapters/redis"
	"github.com/target/harvester-api/internal/core"
	"github.com/target/harvester-api/internal/data"
	"github.com/target/harvester-api/internal/data/memstore"
	"github.com/target/harvester-api/internal/jobconfig"
	"github.com/target/harvester-api/internal/observability/statsd"
	"github.com/target/harvester-api/internal/ports"
	"github.com/target/harvester-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Projects *service.ProjectService
	Jobs     *service.JobService
	Runs     *service.RunService
	Results  *service.ResultService
	// Auth is nil when local token issuance is disabled.
	Auth      *service.AuthService
	Validator ports.TokenValidator
	Health    map[string]core.HealthChecker
	Metrics   *statsd.Client
}

// Close releases resources owned by the container.
func (c ServiceContainer) Close() error {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	// DB is required when the store driver is postgres.
	DB *sql.DB
	// RedisClient is optional; without it refresh tokens and lock-out
	// counters are kept in process memory.
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// tokenBackends groups the stores AuthService keeps short-lived state in.
type tokenBackends struct {
	Refresh  ports.RefreshTokenStore
	Throttle ports.LoginThrottle
}

// buildRepositories selects the Entity Store implementation; no business rules here.
func buildRepositories(driver config.StoreDriver, db *sql.DB) (core.Repositories, error) {
	switch driver {
	case config.StoreDriverPostgres:
		if db == nil {
			return core.Repositories{}, errors.New("postgres store selected but no database connection")
		}
		return data.NewRepositories(db, data.RealTimeProvider{}), nil
	case config.StoreDriverMemory:
		return memstore.New().Repositories(), nil
	default:
		return core.Repositories{}, fmt.Errorf("unknown store driver %q", driver)
	}
}

func buildTokenBackends(client redis.UniversalClient) tokenBackends {
	if client == nil {
		return tokenBackends{
			Refresh:  memstore.NewRefreshTokens(nil),
			Throttle: memstore.NewLoginThrottle(nil),
		}
	}
	return tokenBackends{
		Refresh:  redisadapter.NewRefreshTokenStore(client),
		Throttle: redisadapter.NewLoginThrottle(client),
	}
}

// buildObservability configures the StatsD sink. A dial failure is logged and
// metrics are dropped rather than failing startup.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) *statsd.Client {
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    true,
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		GlobalTags: cfg.Metrics.Tags,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func buildHealth(repos core.Repositories, client redis.UniversalClient) map[string]core.HealthChecker {
	checks := map[string]core.HealthChecker{"store": repos.Health}
	if client != nil {
		checks["redis"] = redisadapter.Health{Client: client}
	}
	return checks
}

// domainServicesOptions groups the inputs of buildDomainServices.
type domainServicesOptions struct {
	Repos   core.Repositories
	Policy  ports.OwnershipPolicy
	Metrics statsd.Sink
	Logger  *slog.Logger
}

func buildDomainServices(opts domainServicesOptions) ServiceContainer {
	return ServiceContainer{
		Projects: service.NewProjectService(service.ProjectServiceOptions{
			Repo:   opts.Repos.Projects,
			Policy: opts.Policy,
			Logger: opts.Logger,
		}),
		Jobs: service.NewJobService(service.JobServiceOptions{
			Repo:      opts.Repos.Jobs,
			Projects:  opts.Repos.Projects,
			Validator: jobconfig.New(jobconfig.Options{}),
			Logger:    opts.Logger,
		}),
		Runs: service.NewRunService(service.RunServiceOptions{
			Repo: opts.Repos.Runs,
			Jobs: opts.Repos.Jobs,
			Runtime: service.RunRuntime{
				Metrics: opts.Metrics,
				Logger:  opts.Logger,
			},
		}),
		Results: service.NewResultService(service.ResultServiceOptions{
			Repo:   opts.Repos.Results,
			Runs:   opts.Repos.Runs,
			Logger: opts.Logger,
		}),
	}
}

// NewServices builds every service the HTTP server needs.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repos, err := buildRepositories(cfg.Store.Driver, deps.DB)
	if err != nil {
		return ServiceContainer{}, err
	}
	policy, err := service.NewOwnershipPolicy(string(cfg.Ownership))
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("ownership policy: %w", err)
	}
	metrics := buildObservability(logger, cfg.Observability)

	var sink statsd.Sink
	if metrics != nil {
		sink = metrics
	}
	container := buildDomainServices(domainServicesOptions{
		Repos:   repos,
		Policy:  policy,
		Metrics: sink,
		Logger:  logger,
	})

	gate, err := BuildAuth(ctx, AuthDeps{
		Auth:   cfg.Auth,
		Users:  repos.Users,
		Tokens: buildTokenBackends(deps.RedisClient),
		Logger: logger,
	})
	if err != nil {
		if metrics != nil {
			_ = metrics.Close()
		}
		return ServiceContainer{}, err
	}
	container.Auth = gate.Service
	container.Validator = gate.Validator
	container.Health = buildHealth(repos, deps.RedisClient)
	container.Metrics = metrics

	logger.InfoContext(ctx, "services initialised",
		"store", cfg.Store.Driver,
		"ownership", policy.Name(),
		"local_auth", cfg.Auth.LocalEnabled(),
		"oidc", cfg.Auth.OIDCEnabled(),
		"metrics", metrics != nil,
	)
	return container, nil
}
