package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, "55432", cfg.Port)
		assert.Equal(t, "secretshare", cfg.User)
		assert.Equal(t, "secretshare", cfg.Password)
		assert.Equal(t, "secretshare", cfg.DBName)
	})

	t.Run("respects TEST_DB_PORT environment variable", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "postgres")
		t.Setenv("TEST_DB_PORT", "5432")

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "postgres", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
	})
}

func TestBuildBaseDSN_EscapesCredentials(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	dsn := buildBaseDSN(TestDBConfig{Host: "h", Port: "1", User: "u@x", Password: "p/w", DBName: "d"})
	assert.Equal(t, "postgres://u%40x:p%2Fw@h:1/d?sslmode=disable", dsn)
}

func TestRunConcurrent(t *testing.T) {
	errs := RunConcurrent(
		func() error { return nil },
		func() error { return nil },
	)
	assert.Len(t, errs, 2)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
