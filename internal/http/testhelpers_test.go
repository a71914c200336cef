package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	authmocks "github.com/target/secretshare/internal/mocks/auth"
	"github.com/target/secretshare/internal/service"
)

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// testApp is the full router backed by in-memory doubles.
type testApp struct {
	handler  http.Handler
	auth     *service.AuthService
	registry *authmocks.MemoryRegistry
	hasher   *authmocks.PlainHasher
	sessions *authmocks.MemorySessionStore
	provider *authmocks.MockFederatedProvider
}

type testAppOption func(*RouterServices)

func withCSRF() testAppOption {
	return func(s *RouterServices) { s.CSRFEnabled = true }
}

func withLimiter(rl *RateLimiter) testAppOption {
	return func(s *RouterServices) { s.LoginLimiter = rl }
}

func newTestApp(t *testing.T, opts ...testAppOption) *testApp {
	t.Helper()
	renderer := RequireTemplateRenderer(t)

	app := &testApp{
		registry: authmocks.NewMemoryRegistry(),
		hasher:   &authmocks.PlainHasher{},
		sessions: authmocks.NewMemorySessionStore(),
		provider: authmocks.NewMockFederatedProvider(),
	}
	app.auth = service.NewAuthService(service.AuthServiceOptions{
		Local: service.NewLocalAuthenticator(service.LocalAuthenticatorOptions{
			Registry: app.registry,
			Hasher:   app.hasher,
		}),
		Federated: service.NewFederatedAuthenticator(service.FederatedAuthenticatorOptions{Registry: app.registry}),
		Sessions: service.NewSessionManager(service.SessionManagerOptions{
			Store:    app.sessions,
			Registry: app.registry,
		}),
		Provider: app.provider,
	})

	rs := RouterServices{
		Auth:        app.auth,
		Secrets:     service.NewSecretService(service.SecretServiceOptions{Registry: app.registry}),
		Renderer:    renderer,
		CallbackURL: "http://localhost:8080/auth/google/secrets",
	}
	for _, opt := range opts {
		opt(&rs)
	}
	app.handler = NewRouter(rs)
	return app
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func httptestRecorder(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func newFormRequest(target string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func newGetRequest(target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func credentials(email, password string) url.Values {
	return url.Values{"username": {email}, "password": {password}}
}

// findCookie returns the named cookie set by the response, or nil.
func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// register signs up email/password and returns the session cookie.
func (a *testApp) register(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec := a.do(newFormRequest("/register", credentials(email, password)))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/secrets", rec.Header().Get("Location"))
	c := findCookie(rec, SessionCookieName)
	require.NotNil(t, c)
	return c
}
