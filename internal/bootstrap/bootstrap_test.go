package bootstrap

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/secretshare/config"
	"github.com/target/secretshare/internal/adapters/devauth"
	"github.com/target/secretshare/internal/data/cryptoutil"
	authmocks "github.com/target/secretshare/internal/mocks/auth"
	"github.com/target/secretshare/internal/ports"
	"github.com/target/secretshare/internal/service"
)

func TestCreateEncryptor(t *testing.T) {
	t.Run("empty key is noop", func(t *testing.T) {
		var logs bytes.Buffer
		enc, err := CreateEncryptor("", slog.New(slog.NewJSONHandler(&logs, nil)))
		require.NoError(t, err)
		assert.IsType(t, cryptoutil.NoopEncryptor{}, enc)
		assert.Contains(t, logs.String(), "plaintext")
	})

	for name, key := range map[string]string{
		"hex key":    strings.Repeat("ab", 32),
		"passphrase": "correct horse battery staple",
	} {
		t.Run(name, func(t *testing.T) {
			enc, err := CreateEncryptor(key, nil)
			require.NoError(t, err)
			require.IsType(t, &cryptoutil.AESGCMEncryptor{}, enc)

			ct, err := enc.Encrypt([]byte("hello"), []byte("alice@example.com"))
			require.NoError(t, err)
			assert.NotContains(t, ct, "hello")
			pt, err := enc.Decrypt(ct, []byte("alice@example.com"))
			require.NoError(t, err)
			assert.Equal(t, "hello", string(pt))
		})
	}
}

func TestDeriveKey(t *testing.T) {
	hexKey := strings.Repeat("01", 32)
	assert.Equal(t, bytes.Repeat([]byte{1}, 32), deriveKey(hexKey))
	assert.Len(t, deriveKey("short"), 32)
	assert.NotEqual(t, deriveKey("a"), deriveKey("b"))
}

func TestBuildFederatedProvider(t *testing.T) {
	prov, err := BuildFederatedProvider(context.Background(), config.AuthConfig{
		Mode:    config.AuthModeMock,
		DevAuth: config.DevAuthConfig{Email: "dev@example.com", Name: "Dev"},
	})
	require.NoError(t, err)
	assert.IsType(t, &devauth.Provider{}, prov)

	_, err = BuildFederatedProvider(context.Background(), config.AuthConfig{Mode: config.AuthModeMock})
	require.Error(t, err)

	_, err = BuildFederatedProvider(context.Background(), config.AuthConfig{Mode: "saml"})
	require.ErrorContains(t, err, "unknown auth mode")

	_, err = BuildFederatedProvider(context.Background(), config.AuthConfig{Mode: config.AuthModeOAuth})
	require.ErrorContains(t, err, "oidc provider")
}

func TestNewRedisClient(t *testing.T) {
	client, desc, err := NewRedisClient(config.RedisConfig{URI: "localhost:6379", DB: 2})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "localhost:6379", desc)
	assert.Equal(t, 2, client.(*redis.Client).Options().DB)

	client, desc, err = NewRedisClient(config.RedisConfig{URI: "redis://:hunter2@cache:6380/1"})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "cache:6380", client.(*redis.Client).Options().Addr)
	assert.NotContains(t, redactAddr(desc), "hunter2")

	_, _, err = NewRedisClient(config.RedisConfig{URI: " "})
	require.Error(t, err)

	_, _, err = NewRedisClient(config.RedisConfig{UseSentinel: true, SentinelNodes: []string{" "}})
	require.ErrorContains(t, err, "sentinel")

	client, desc, err = NewRedisClient(config.RedisConfig{
		UseSentinel:        true,
		SentinelNodes:      []string{"s1:26379"},
		SentinelMasterName: "primary",
	})
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "sentinel:primary", desc)
}

func TestRedactAddr(t *testing.T) {
	assert.Equal(t, "redis://cache:6379/0", redactAddr("redis://user:pw@cache:6379/0"))
	assert.Equal(t, "localhost:6379", redactAddr("localhost:6379"))
}

func TestConnectRedis(t *testing.T) {
	mini := miniredis.RunT(t)
	client, err := ConnectRedis(context.Background(), DatabaseConfig{
		RedisConfig: config.RedisConfig{URI: mini.Addr()},
		Logger:      slog.Default(),
	})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mini.Close()
	_, err = ConnectRedis(context.Background(), DatabaseConfig{RedisConfig: config.RedisConfig{URI: mini.Addr()}})
	require.ErrorContains(t, err, "ping redis")
}

func TestBuildMetrics(t *testing.T) {
	rec, handler, client, err := buildMetrics(context.Background(), config.ObservabilityConfig{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, ports.NopMetrics{}, rec)
	assert.Nil(t, handler)
	assert.False(t, client.Enabled())

	rec, handler, client, err = buildMetrics(context.Background(), config.ObservabilityConfig{PrometheusEnabled: true}, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, handler)
	defer client.Close()

	rec.Registration(service.OutcomeSuccess)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `secretshare_registrations_total{outcome="success"} 1`)
}

func newTestServices(t *testing.T, cfg *config.AppConfig) *ServiceContainer {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	registry := authmocks.NewMemoryRegistry()
	authSvc, err := BuildAuthService(context.Background(), AuthConfig{
		Auth:        cfg.Auth,
		Registry:    registry,
		RedisClient: client,
		Logger:      slog.Default(),
	})
	require.NoError(t, err)
	return &ServiceContainer{
		Auth:    authSvc,
		Secrets: service.NewSecretService(service.SecretServiceOptions{Registry: registry}),
	}
}

func testAppConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		IsDev: true,
		Auth: config.AuthConfig{
			Mode:       config.AuthModeMock,
			DevAuth:    config.DevAuthConfig{Email: "dev@example.com"},
			SessionTTL:         time.Hour,
			BcryptCost:         4,
			LoginRatePerMinute: 30,
			LoginRateBurst:     5,
		},
		Postgres: config.DBConfig{Host: "localhost", Port: 5432},
		HTTP:     config.HTTPConfig{Addr: "127.0.0.1:0", CSRFEnabled: true},
	}
	cfg.Sanitize()
	return cfg
}

func TestBuildAuthService_RequiresDependencies(t *testing.T) {
	_, err := BuildAuthService(context.Background(), AuthConfig{Registry: authmocks.NewMemoryRegistry()})
	require.Error(t, err)

	_, err = BuildAuthService(context.Background(), AuthConfig{RedisClient: redis.NewClient(&redis.Options{})})
	require.Error(t, err)
}

func TestNewHTTPServer_ServesPagesAndLogin(t *testing.T) {
	cfg := testAppConfig()
	srv, err := NewHTTPServer(HTTPServerConfig{Config: cfg, Services: newTestServices(t, cfg), Logger: slog.Default()})
	require.NoError(t, err)
	t.Cleanup(func() { srv.limiter.Stop() })

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="csrf_token"`)

	// Mock federated login: begin redirects straight to the callback.
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	callback := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(callback, "/auth/google/secrets?"), callback)

	req := httptest.NewRequest(http.MethodGet, callback, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/secrets", rec.Header().Get("Location"))
}

func TestNewHTTPServer_LimiterFollowsConfig(t *testing.T) {
	cfg := testAppConfig()
	cfg.Auth.LoginRatePerMinute = 0
	srv, err := NewHTTPServer(HTTPServerConfig{Config: cfg, Services: newTestServices(t, cfg)})
	require.NoError(t, err)
	assert.Nil(t, srv.limiter)

	_, err = NewHTTPServer(HTTPServerConfig{Config: cfg})
	require.Error(t, err)
}

func TestHTTPServer_RunStopsOnCancel(t *testing.T) {
	cfg := testAppConfig()
	srv, err := NewHTTPServer(HTTPServerConfig{Config: cfg, Services: newTestServices(t, cfg)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestValidateServerConfig(t *testing.T) {
	require.Error(t, ValidateServerConfig(nil))
	require.NoError(t, ValidateServerConfig(testAppConfig()))

	prod := testAppConfig()
	prod.IsDev = false
	require.Error(t, ValidateServerConfig(prod))
}
