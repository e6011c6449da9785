package verifier

const turnstileEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Turnstile accepts the same request and answers with the same JSON shape.
var Turnstile = Provider{
	Name:          "turnstile",
	Endpoint:      turnstileEndpoint,
	ResponseField: "cf-turnstile-response",
}
