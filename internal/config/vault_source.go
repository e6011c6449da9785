package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// VaultSource reads settings from a HashiCorp Vault KV v2 secret. Each
// setting is a field of the secret at <VAULT_PATH>/data/<VAULT_SECRET>.
type VaultSource struct {
	kv     *vault.KVv2
	secret string

	mu     sync.Mutex
	cached map[string]interface{}
}

func NewVaultSource() (*VaultSource, error) {
	addr := os.Getenv("VAULT_ADDR")
	token := os.Getenv("VAULT_TOKEN")
	mount := os.Getenv("VAULT_PATH")
	if mount == "" {
		mount = "secret"
	}
	name := os.Getenv("VAULT_SECRET")
	if name == "" {
		name = "recaptcha"
	}
	if addr == "" || token == "" {
		return nil, fmt.Errorf("vault config requires VAULT_ADDR and VAULT_TOKEN")
	}

	client, err := vault.NewClient(&vault.Config{Address: addr, Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("vault client init error: %w", err)
	}
	client.SetToken(token)
	return &VaultSource{
		kv:     client.KVv2(mount),
		secret: name,
	}, nil
}

func (v *VaultSource) Name() string {
	return "vault"
}

// Get prefers a non-empty environment variable, then the Vault secret field.
// The secret is read once and reused for later keys; a missing secret is
// remembered as empty. Other read errors are retried on the next call.
func (v *VaultSource) Get(key string) (string, error) {
	if val := os.Getenv(key); val != "" {
		return val, nil
	}

	data, err := v.data()
	if err != nil {
		return "", err
	}
	if val, ok := data[key].(string); ok && val != "" {
		return val, nil
	}
	return "", fmt.Errorf("vault secret %s field %s: %w", v.secret, key, ErrNotSet)
}

func (v *VaultSource) data() (map[string]interface{}, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cached != nil {
		return v.cached, nil
	}
	s, err := v.kv.Get(context.Background(), v.secret)
	switch {
	case errors.Is(err, vault.ErrSecretNotFound):
		v.cached = map[string]interface{}{}
	case err != nil:
		return nil, fmt.Errorf("vault read error: %w", err)
	case s == nil || s.Data == nil:
		v.cached = map[string]interface{}{}
	default:
		v.cached = s.Data
	}
	return v.cached, nil
}
