package secrets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/infrastructure/secrets"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

const storedSecret = "0123456789abcdef0123456789abcdef-from-vault"

func fakeVault(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root-token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		if r.URL.Path != "/v1/secret/data/kpidash/session" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"session_secret": "` + storedSecret + `", "short": "tiny"},
				"metadata": {"created_time": "2026-01-01T00:00:00Z", "custom_metadata": null, "deletion_time": "", "destroyed": false, "version": 3}
			}
		}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func vaultConfig(addr string) *config.Config {
	return &config.Config{
		Environment: constants.EnvironmentProduction,
		Session:     config.SessionConfig{VaultPath: "kpidash/session", VaultKey: "session_secret"},
		Vault:       config.VaultConfig{Address: addr, Token: "root-token", MountPath: "secret"},
	}
}

func TestSessionSecret_FromVault(t *testing.T) {
	ts := fakeVault(t)

	secret, err := secrets.SessionSecret(context.Background(), vaultConfig(ts.URL), logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, storedSecret, secret)
}

func TestSessionSecret_VaultErrors(t *testing.T) {
	ts := fakeVault(t)
	ctx := context.Background()

	cfg := vaultConfig(ts.URL)
	cfg.Vault.Token = "wrong"
	_, err := secrets.SessionSecret(ctx, cfg, logger.NewNoopLogger())
	assert.Error(t, err)

	cfg = vaultConfig(ts.URL)
	cfg.Session.VaultPath = "kpidash/missing"
	_, err = secrets.SessionSecret(ctx, cfg, logger.NewNoopLogger())
	assert.Error(t, err)

	cfg = vaultConfig(ts.URL)
	cfg.Session.VaultKey = "absent"
	_, err = secrets.SessionSecret(ctx, cfg, logger.NewNoopLogger())
	assert.ErrorContains(t, err, "absent")

	cfg = vaultConfig(ts.URL)
	cfg.Session.VaultKey = "short"
	_, err = secrets.SessionSecret(ctx, cfg, logger.NewNoopLogger())
	assert.ErrorContains(t, err, "at least")
}

func TestSessionSecret_InlineWins(t *testing.T) {
	cfg := vaultConfig("http://127.0.0.1:1")
	cfg.Session.Secret = strings.Repeat("s", 40)

	secret, err := secrets.SessionSecret(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, cfg.Session.Secret, secret)
}

func TestSessionSecret_Development(t *testing.T) {
	cfg := &config.Config{Environment: constants.EnvironmentDevelopment}

	a, err := secrets.SessionSecret(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	b, err := secrets.SessionSecret(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestSessionSecret_MissingOutsideDevelopment(t *testing.T) {
	cfg := &config.Config{Environment: constants.EnvironmentProduction}
	_, err := secrets.SessionSecret(context.Background(), cfg, logger.NewNoopLogger())
	assert.Error(t, err)
}
