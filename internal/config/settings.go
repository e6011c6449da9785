package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Keys read from the configured Source.
const (
	KeySiteKey       = "RECAPTCHA_SITE_KEY"
	KeySecretKey     = "RECAPTCHA_SECRET_KEY"
	KeyRequestMethod = "RECAPTCHA_REQUEST_METHOD"
	KeyProvider      = "RECAPTCHA_PROVIDER"
	KeyTimeout       = "RECAPTCHA_TIMEOUT"
	KeyPagesFile     = "RECAPTCHA_PAGES_FILE"
	KeyTheme         = "RECAPTCHA_THEME"
	KeySize          = "RECAPTCHA_SIZE"
	KeyDebug         = "RECAPTCHA_DEBUG"
)

const DefaultTimeout = 5 * time.Second

// Settings is the administrator-supplied configuration of the plugin.
type Settings struct {
	// SiteKey is embedded in rendered pages.
	SiteKey string
	// SecretKey is only sent to the verification endpoint.
	SecretKey string
	// RequestMethod is the preferred outbound transport (pooled|direct).
	// Anything else falls back to the first available transport.
	RequestMethod string
	Provider      string        `validate:"omitempty,oneof=google turnstile"`
	Timeout       time.Duration `validate:"gt=0,lte=30s"`
	PagesFile     string
	// Theme and Size are defaults for pages that do not set their own.
	Theme string `validate:"omitempty,oneof=light dark"`
	Size  string `validate:"omitempty,oneof=normal compact"`
	Debug bool
}

// Enabled reports whether both credentials are present. Verification is
// skipped entirely otherwise.
func (s Settings) Enabled() bool {
	return s.SiteKey != "" && s.SecretKey != ""
}

var validate = validator.New()

// Validator is shared with packages that validate their own option structs.
func Validator() *validator.Validate {
	return validate
}

// Load reads Settings from src. Unset keys fall back to defaults; only
// malformed values are errors.
func Load(src Source) (Settings, error) {
	get := func(key string) (string, error) {
		val, err := src.Get(key)
		if errors.Is(err, ErrNotSet) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("config: %s from %s: %w", key, src.Name(), err)
		}
		return strings.TrimSpace(val), nil
	}

	s := Settings{Timeout: DefaultTimeout}
	fields := []struct {
		key string
		dst *string
	}{
		{KeySiteKey, &s.SiteKey},
		{KeySecretKey, &s.SecretKey},
		{KeyRequestMethod, &s.RequestMethod},
		{KeyProvider, &s.Provider},
		{KeyPagesFile, &s.PagesFile},
		{KeyTheme, &s.Theme},
		{KeySize, &s.Size},
	}
	for _, f := range fields {
		val, err := get(f.key)
		if err != nil {
			return Settings{}, err
		}
		*f.dst = val
	}
	s.Provider = strings.ToLower(s.Provider)
	s.Theme = strings.ToLower(s.Theme)
	s.Size = strings.ToLower(s.Size)

	raw, err := get(KeyTimeout)
	if err != nil {
		return Settings{}, err
	}
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("config: %s must be a duration (e.g. 5s): %w", KeyTimeout, err)
		}
		s.Timeout = d
	}

	raw, err = get(KeyDebug)
	if err != nil {
		return Settings{}, err
	}
	s.Debug = raw == "1" || strings.EqualFold(raw, "true")

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("config: invalid settings: %w", err)
	}
	return nil
}
