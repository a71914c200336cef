package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/secretshare/internal/domain/auth"
)

func TestRouter_Root(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(newGetRequest("/"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))

	session := app.register(t, "alice@example.com", "pw123")
	rec = app.do(newGetRequest("/", session))
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))

	rec = app.do(newGetRequest("/", &http.Cookie{Name: SessionCookieName, Value: "forged"}))
	assert.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestRouter_PublicPages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/home", "/login", "/register"} {
		t.Run(path, func(t *testing.T) {
			rec := app.do(newGetRequest(path))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
		})
	}

	rec := app.do(newGetRequest("/login"))
	assert.Contains(t, rec.Body.String(), `name="username"`)
	assert.Contains(t, rec.Body.String(), `href="/auth/google"`)
}

func TestRouter_GuardRedirectsUnauthenticated(t *testing.T) {
	app := newTestApp(t)
	_, err := app.registry.Create(context.Background(), "alice@example.com", domainauth.HashedCredential([]byte("plain:pw123")))
	require.NoError(t, err)

	requests := map[string]*http.Request{
		"view secret":    newGetRequest("/secrets"),
		"submit form":    newGetRequest("/submit"),
		"submit secret":  newFormRequest("/submit", url.Values{"secret": {"hello"}}),
		"unknown cookie": newGetRequest("/secrets", &http.Cookie{Name: SessionCookieName, Value: "forged"}),
	}
	for name, req := range requests {
		t.Run(name, func(t *testing.T) {
			rec := app.do(req)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		})
	}

	ident, err := app.registry.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, ident.HasSecret())
}

func TestRouter_SecretsPlaceholder(t *testing.T) {
	app := newTestApp(t)
	session := app.register(t, "alice@example.com", "pw123")

	rec := app.do(newGetRequest("/secrets", session))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You should submit a secret!")
}

func TestRouter_RegisterLoginSubmitView(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice@example.com", "pw123")

	rec := app.do(newFormRequest("/login", credentials("alice@example.com", "pw123")))
	require.Equal(t, "/secrets", rec.Header().Get("Location"))
	session := findCookie(rec, SessionCookieName)
	require.NotNil(t, session)

	rec = app.do(newGetRequest("/submit", session))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="secret"`)

	rec = app.do(newFormRequest("/submit", url.Values{"secret": {"hello"}}, session))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))

	rec = app.do(newGetRequest("/secrets", session))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
	assert.NotContains(t, rec.Body.String(), "You should submit a secret!")
}

func TestRouter_FederatedUserSeesPlaceholder(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(newGetRequest("/auth/google/secrets?code=abc&state=s1", oauthCookies("s1", "n1")...))
	session := findCookie(rec, SessionCookieName)
	require.NotNil(t, session)

	rec = app.do(newGetRequest("/secrets", session))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You should submit a secret!")
}

func TestRouter_SecretIsEscaped(t *testing.T) {
	app := newTestApp(t)
	session := app.register(t, "alice@example.com", "pw123")

	rec := app.do(newFormRequest("/submit", url.Values{"secret": {"<script>alert(1)</script>"}}, session))
	require.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(newGetRequest("/secrets", session))
	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestRouter_SubmitTooLong(t *testing.T) {
	app := newTestApp(t)
	session := app.register(t, "alice@example.com", "pw123")

	rec := app.do(newFormRequest("/submit", url.Values{"secret": {strings.Repeat("x", 4097)}}, session))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "secret must be at most 4096 characters")
}

func TestRouter_SubmitBackendError(t *testing.T) {
	app := newTestApp(t)
	session := app.register(t, "alice@example.com", "pw123")
	app.registry.SetErr = errors.New("disk full")

	rec := app.do(newFormRequest("/submit", url.Values{"secret": {"hello"}}, session))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "500: Internal Server Error", rec.Body.String())
}

func TestRouter_GuardRegistryError(t *testing.T) {
	app := newTestApp(t)
	session := app.register(t, "alice@example.com", "pw123")
	app.registry.FindErr = errors.New("connection refused")

	rec := app.do(newGetRequest("/secrets", session))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "500: Internal Server Error", rec.Body.String())
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(newGetRequest("/healthz"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	req := newGetRequest("/healthz")
	req.Method = http.MethodHead
	rec = app.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRouter_MetricsOptional(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(newGetRequest("/metrics"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	app = newTestApp(t, func(s *RouterServices) {
		s.Metrics = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})
	})
	rec = app.do(newGetRequest("/metrics"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRouter_CSRF(t *testing.T) {
	app := newTestApp(t, withCSRF())
	_, err := app.registry.Create(context.Background(), "alice@example.com", domainauth.HashedCredential([]byte("plain:pw123")))
	require.NoError(t, err)

	// Without a token the post is refused.
	rec := app.do(newFormRequest("/login", credentials("alice@example.com", "pw123")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The login page issues the token cookie and embeds it in the form.
	rec = app.do(newGetRequest("/login"))
	require.Equal(t, http.StatusOK, rec.Code)
	csrf := findCookie(rec, DefaultCSRFCookieName)
	require.NotNil(t, csrf)
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)

	form := credentials("alice@example.com", "pw123")
	form.Set("csrf_token", csrf.Value)
	rec = app.do(newFormRequest("/login", form, csrf))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))
}

func TestRouter_LoginRateLimited(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})
	defer rl.Stop()
	app := newTestApp(t, withLimiter(rl))

	for range 2 {
		rec := app.do(newFormRequest("/login", credentials("alice@example.com", "wrong")))
		assert.Equal(t, http.StatusFound, rec.Code)
	}
	rec := app.do(newFormRequest("/login", credentials("alice@example.com", "wrong")))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRouter_RegisterMultibytePasswordIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(newFormRequest("/register", credentials("alice@example.com", strings.Repeat("é", 40))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password must be at most 72 bytes")
	assert.Nil(t, findCookie(rec, SessionCookieName))

	ident, err := app.registry.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, ident)
}
