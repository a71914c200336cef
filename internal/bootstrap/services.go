package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/target/secretshare/config"
	"github.com/target/secretshare/internal/data"
	"github.com/target/secretshare/internal/observability/metrics"
	"github.com/target/secretshare/internal/observability/statsd"
	"github.com/target/secretshare/internal/ports"
	"github.com/target/secretshare/internal/service"
)

// ServiceDeps contains the infrastructure the services are built on.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ServiceContainer holds the constructed application services.
type ServiceContainer struct {
	Auth    *service.AuthService
	Secrets *service.SecretService
	// MetricsHandler serves the Prometheus registry; nil when disabled.
	MetricsHandler http.Handler

	statsd *statsd.Client
}

// Close releases resources owned by the container.
func (s *ServiceContainer) Close() error {
	if s == nil || s.statsd == nil {
		return nil
	}
	return s.statsd.Close()
}

// NewServices builds the registry, metrics, auth and secret services.
func NewServices(ctx context.Context, deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	enc, err := CreateEncryptor(cfg.SecretsEncryptionKey, logger)
	if err != nil {
		return nil, err
	}
	registry := data.NewUserRepo(deps.DB, enc)

	recorder, metricsHandler, statsdClient, err := buildMetrics(ctx, cfg.Observability, logger)
	if err != nil {
		return nil, err
	}

	authSvc, err := BuildAuthService(ctx, AuthConfig{
		Auth:          cfg.Auth,
		Registry:      registry,
		RedisClient:   deps.RedisClient,
		SessionPrefix: cfg.Redis.KeyPrefix,
		Metrics:       recorder,
		Logger:        logger,
	})
	if err != nil {
		return nil, errors.Join(err, statsdClient.Close())
	}

	return &ServiceContainer{
		Auth:           authSvc,
		Secrets:        service.NewSecretService(service.SecretServiceOptions{Registry: registry}),
		MetricsHandler: metricsHandler,
		statsd:         statsdClient,
	}, nil
}

// buildMetrics fans auth measurements out to Prometheus and, when configured, StatsD.
//
//nolint:ireturn // the recorder is a fan-out over whichever sinks are enabled.
func buildMetrics(
	ctx context.Context,
	cfg config.ObservabilityConfig,
	logger *slog.Logger,
) (ports.AuthMetrics, http.Handler, *statsd.Client, error) {
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled: cfg.Metrics.IsEnabled(),
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  cfg.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("statsd client: %w", err)
	}

	var recorders metrics.Multi
	if client.Enabled() {
		recorders = append(recorders, metrics.StatsD{Sink: client})
	}

	var handler http.Handler
	if cfg.PrometheusEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorders = append(recorders, metrics.NewPrometheus(reg))
		handler = metrics.Handler(reg)
	}

	if len(recorders) == 0 {
		return ports.NopMetrics{}, nil, client, nil
	}
	return recorders, handler, client, nil
}
