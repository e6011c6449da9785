package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrNotSet = errors.New("config value not set")

// EnvSource loads values from environment variables (.env in dev).
type EnvSource struct{}

func NewEnvSource() *EnvSource {
	return &EnvSource{}
}

func (e *EnvSource) Name() string {
	return "env"
}

func (e *EnvSource) Get(key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("env %s: %w", key, ErrNotSet)
	}
	return val, nil
}

// MapSource serves values from memory. Used by tests and embedders that keep
// settings in their own store.
type MapSource map[string]string

func (m MapSource) Name() string {
	return "map"
}

func (m MapSource) Get(key string) (string, error) {
	if val := m[key]; val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%s: %w", key, ErrNotSet)
}
