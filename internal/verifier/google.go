package verifier

import (
	"fmt"
	"strings"
)

// Provider describes a siteverify-compatible endpoint.
type Provider struct {
	Name string
	// Endpoint receives the form-encoded verification POST.
	Endpoint string
	// ResponseField is the form field the client widget fills with its token.
	ResponseField string
}

const googleEndpoint = "https://www.google.com/recaptcha/api/siteverify"

var Google = Provider{
	Name:          "google",
	Endpoint:      googleEndpoint,
	ResponseField: "g-recaptcha-response",
}

// ProviderByName resolves a configured provider; empty means Google.
func ProviderByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Google.Name:
		return Google, nil
	case Turnstile.Name:
		return Turnstile, nil
	default:
		return Provider{}, fmt.Errorf("invalid captcha provider %q (google|turnstile)", name)
	}
}
