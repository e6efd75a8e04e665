// Package secrets resolves the session signing secret.
package secrets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/pkg/logger"
)

// minSecretLength matches the HS256 key length the session manager requires.
const minSecretLength = 32

// VaultProvider reads secrets from a Vault KV v2 mount.
type VaultProvider struct {
	kv     *vault.KVv2
	logger logger.Logger
}

// NewVaultProvider creates a client for cfg.Address authenticated with cfg.Token.
func NewVaultProvider(cfg config.VaultConfig, log logger.Logger) (*VaultProvider, error) {
	vcfg := vault.DefaultConfig()
	vcfg.Address = cfg.Address
	client, err := vault.NewClient(vcfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}
	return &VaultProvider{kv: client.KVv2(mount), logger: log.WithComponent("vault")}, nil
}

// ReadString returns field key of the latest version of the secret at path.
func (p *VaultProvider) ReadString(ctx context.Context, path, key string) (string, error) {
	secret, err := p.kv.Get(ctx, path)
	if err != nil {
		p.logger.Error(ctx, "Failed to read secret from Vault", err, logger.String("path", path))
		return "", fmt.Errorf("read vault secret %s: %w", path, err)
	}
	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault secret %s has no string field %q", path, key)
	}
	return value, nil
}

// SessionSecret returns the configured session signing secret. An inline
// secret wins over Vault. In development with neither configured, a random
// per-process secret is generated, so sessions do not survive a restart.
func SessionSecret(ctx context.Context, cfg *config.Config, log logger.Logger) (string, error) {
	var secret string
	switch {
	case cfg.Session.Secret != "":
		secret = cfg.Session.Secret
	case cfg.Session.VaultPath != "":
		provider, err := NewVaultProvider(cfg.Vault, log)
		if err != nil {
			return "", err
		}
		secret, err = provider.ReadString(ctx, cfg.Session.VaultPath, cfg.Session.VaultKey)
		if err != nil {
			return "", err
		}
		log.Info(ctx, "Session secret loaded from Vault", logger.String("path", cfg.Session.VaultPath))
	case cfg.Environment.IsDevelopment():
		buf := make([]byte, minSecretLength)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		log.Warn(ctx, "No session secret configured, using an ephemeral one")
		return hex.EncodeToString(buf), nil
	default:
		return "", fmt.Errorf("no session secret configured")
	}

	if len(secret) < minSecretLength {
		return "", fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	return secret, nil
}
