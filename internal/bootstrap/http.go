package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/target/secretshare"
	"github.com/target/secretshare/config"
	httpx "github.com/target/secretshare/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// HTTPServer is the browser-facing server plus the resources it owns.
type HTTPServer struct {
	Server  *http.Server
	limiter *httpx.RateLimiter
	logger  *slog.Logger
	timeout time.Duration
}

// NewHTTPServer builds the router and middleware stack without listening.
func NewHTTPServer(cfg HTTPServerConfig) (*HTTPServer, error) {
	if cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("config and services are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	templates, err := templateFS(appCfg.IsDev)
	if err != nil {
		return nil, err
	}
	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{TemplateFS: templates, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	limiter := newLoginLimiter(appCfg.Auth, logger)
	handler := buildHTTPHandler(httpHandlerConfig{
		Logger: logger,
		Services: httpx.RouterServices{
			Auth:     cfg.Services.Auth,
			Secrets:  cfg.Services.Secrets,
			Renderer: renderer,
			Cookies: httpx.CookieWriter{
				Domain:      appCfg.HTTP.CookieDomain,
				ForceSecure: appCfg.HTTP.CookieSecure,
			},
			CallbackURL:  appCfg.Auth.OAuth.RedirectURL,
			CSRFEnabled:  appCfg.HTTP.CSRFEnabled,
			LoginLimiter: limiter,
			Metrics:      cfg.Services.MetricsHandler,
			Logger:       logger,
		},
	})

	return &HTTPServer{
		Server: &http.Server{
			Addr:              appCfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: appCfg.HTTP.ReadHeaderTimeout,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter: limiter,
		logger:  logger,
		timeout: appCfg.HTTP.ShutdownTimeout,
	}, nil
}

// templateFS serves templates from disk in development so edits show up without a rebuild.
//
//nolint:ireturn // embedded and on-disk template trees share fs.FS.
func templateFS(isDev bool) (fs.FS, error) {
	if isDev {
		if _, err := os.Stat(httpx.TemplatePathFromRoot); err == nil {
			return os.DirFS(httpx.TemplatePathFromRoot), nil
		}
	}
	sub, err := fs.Sub(secretshare.TemplateFS, httpx.TemplatePathFromRoot)
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	return sub, nil
}

func newLoginLimiter(cfg config.AuthConfig, logger *slog.Logger) *httpx.RateLimiter {
	if cfg.LoginRatePerMinute <= 0 {
		return nil
	}
	return httpx.NewRateLimiter(httpx.RateLimiterConfig{
		Rate:   rate.Limit(float64(cfg.LoginRatePerMinute) / 60.0),
		Burst:  cfg.LoginRateBurst,
		Logger: logger,
	})
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
}

// Order: Recover -> Logging -> Router.
func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	h := httpx.NewRouter(cfg.Services)
	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)
	return h
}

// Run serves until ctx is cancelled or the listener fails, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.InfoContext(gctx, "starting HTTP server", "addr", s.Server.Addr)
		if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.WithoutCancel(gctx))
	})

	return g.Wait()
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "shutting down HTTP server")
	if s.limiter != nil {
		s.limiter.Stop()
	}

	timeout := s.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.logger.InfoContext(ctx, "HTTP server stopped")
	return nil
}
