package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth     AuthServiceInterface
	Secrets  SecretServiceInterface
	Renderer *TemplateRenderer
	Cookies  CookieWriter
	// CallbackURL is passed to the identity provider when a federated login begins.
	CallbackURL string
	CSRFEnabled bool
	// LoginLimiter guards POST /login and POST /register (optional).
	LoginLimiter *RateLimiter
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

type middleware func(http.Handler) http.Handler

func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// NewRouter wires the browser routes. Logging and Recover are applied by the caller.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages := &PageHandlers{Auth: services.Auth, Renderer: services.Renderer, Logger: logger}
	auth := &AuthHandlers{
		Svc:         services.Auth,
		Renderer:    services.Renderer,
		Cookies:     services.Cookies,
		CallbackURL: services.CallbackURL,
		Logger:      logger,
	}
	secrets := &SecretHandlers{Svc: services.Secrets, Renderer: services.Renderer, Logger: logger}

	var csrf middleware
	if services.CSRFEnabled {
		csrf = CSRFProtection(CSRFConfig{CookieDomain: services.Cookies.Domain})
	}
	var limit middleware
	if services.LoginLimiter != nil {
		limit = services.LoginLimiter.Middleware
	}
	guard := RequireAuthBrowser(services.Auth, logger)

	mux.Handle("GET /{$}", http.HandlerFunc(pages.Root))
	mux.Handle("GET "+pathHome, chain(http.HandlerFunc(pages.Home), csrf))
	mux.Handle("GET "+pathLogin, chain(http.HandlerFunc(pages.Login), csrf))
	mux.Handle("GET "+pathRegister, chain(http.HandlerFunc(pages.Register), csrf))

	mux.Handle("POST "+pathRegister, chain(http.HandlerFunc(auth.Register), limit, csrf))
	mux.Handle("POST "+pathLogin, chain(http.HandlerFunc(auth.Login), limit, csrf))
	mux.Handle("GET "+pathGoogleBegin, http.HandlerFunc(auth.GoogleBegin))
	mux.Handle("GET "+pathGoogleCallback, http.HandlerFunc(auth.GoogleCallback))
	mux.Handle("GET /logout", http.HandlerFunc(auth.Logout))
	mux.Handle("POST /logout", chain(http.HandlerFunc(auth.Logout), csrf))

	mux.Handle("GET "+pathSecrets, chain(http.HandlerFunc(secrets.View), guard, csrf))
	mux.Handle("GET "+pathSubmit, chain(http.HandlerFunc(secrets.SubmitForm), guard, csrf))
	mux.Handle("POST "+pathSubmit, chain(http.HandlerFunc(secrets.Submit), guard, csrf))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	if services.Metrics != nil {
		mux.Handle("GET /metrics", services.Metrics)
	}

	return mux
}
