package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Source describes a backend that can provide configuration values.
// Get returns ErrNotSet when the key has no value.
type Source interface {
	Get(key string) (string, error)
	Name() string
}

// NewSource selects a source by name: "env" (default) or "vault".
func NewSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "env":
		return NewEnvSource(), nil
	case "vault":
		return NewVaultSource()
	default:
		return nil, fmt.Errorf("unknown config provider: %s", name)
	}
}

// SourceFromEnv uses CONFIG_PROVIDER to pick the source.
func SourceFromEnv() (Source, error) {
	return NewSource(os.Getenv("CONFIG_PROVIDER"))
}

// LoadDotEnv loads the first readable .env file from paths into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(paths ...string) (string, bool) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p, true
		}
	}
	return "", false
}
