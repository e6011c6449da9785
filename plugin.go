package recaptcha

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/bramley/phplist-plugin-recaptcha/internal/config"
	"github.com/bramley/phplist-plugin-recaptcha/internal/logging"
	"github.com/bramley/phplist-plugin-recaptcha/internal/transport"
	"github.com/bramley/phplist-plugin-recaptcha/internal/verifier"
	"go.uber.org/zap"
)

// Messages returned to the subscriber when validation fails locally.
const (
	MessageTokenMissing = "reCAPTCHA must be used"
	MessageRejected     = "reCAPTCHA verification failed"

	MessageTurnstileMissing  = "Turnstile must be used"
	MessageTurnstileRejected = "Turnstile verification failed"
)

type messages struct {
	missing  string
	rejected string
}

func messagesFor(provider string) messages {
	if provider == verifier.Turnstile.Name {
		return messages{MessageTurnstileMissing, MessageTurnstileRejected}
	}
	return messages{MessageTokenMissing, MessageRejected}
}

// PageData is the part of a subscribe page the plugin reads.
type PageData struct {
	ID           string
	Include      bool
	Theme        string
	Size         string
	LanguageFile string
}

// Submission is what the subscriber posted.
type Submission struct {
	Token string
	// TokenPresent is false when the response field was not posted at all.
	TokenPresent bool
	RemoteAddr   string
}

// SubscriptionHook is the capability a host form layer calls into. Validation
// returns "" when the submission passes, otherwise a message for the user.
type SubscriptionHook interface {
	DisplaySubscriptionChoice(page PageData) string
	ValidateSubscriptionPage(ctx context.Context, page PageData, sub Submission) string
}

// Plugin guards subscribe pages with a reCAPTCHA (or Turnstile) challenge.
// It is immutable after New and safe for concurrent use.
type Plugin struct {
	settings   config.Settings
	provider   verifier.Provider
	messages   messages
	verifier   verifier.Verifier
	transports *transport.Registry
	transport  transport.Kind
	logger     *zap.Logger
}

var _ SubscriptionHook = (*Plugin)(nil)

type pluginOptions struct {
	logger     *zap.Logger
	verifier   verifier.Verifier
	transports *transport.Registry
	endpoint   string
}

type Option func(*pluginOptions)

func WithLogger(l *zap.Logger) Option {
	return func(o *pluginOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithVerifier replaces the HTTP verification client.
func WithVerifier(v verifier.Verifier) Option {
	return func(o *pluginOptions) {
		o.verifier = v
	}
}

// WithTransports replaces the transports detected at startup.
func WithTransports(r *transport.Registry) Option {
	return func(o *pluginOptions) {
		if r != nil {
			o.transports = r
		}
	}
}

// WithEndpoint points verification at another siteverify URL.
func WithEndpoint(endpoint string) Option {
	return func(o *pluginOptions) {
		o.endpoint = endpoint
	}
}

// New builds a Plugin from settings. Verification is disabled, and every
// submission passes, unless both the site key and the secret key are set.
func New(settings config.Settings, opts ...Option) (*Plugin, error) {
	o := pluginOptions{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transports == nil {
		o.transports = transport.Default()
	}
	if settings.Timeout <= 0 {
		settings.Timeout = config.DefaultTimeout
	}

	provider, err := verifier.ProviderByName(settings.Provider)
	if err != nil {
		return nil, err
	}

	p := &Plugin{
		settings:   settings,
		provider:   provider,
		messages:   messagesFor(provider.Name),
		verifier:   o.verifier,
		transports: o.transports,
		logger:     o.logger.Named("recaptcha"),
	}

	if !settings.Enabled() {
		p.logger.Warn("site key or secret key not configured, subscribe pages will not be challenged")
		return p, nil
	}
	if p.verifier != nil {
		return p, nil
	}

	t, fallback, err := o.transports.Select(settings.RequestMethod)
	if err != nil {
		return nil, fmt.Errorf("captcha verification needs an outbound transport: %w", err)
	}
	if fallback && settings.RequestMethod != "" {
		p.logger.Warn("request method not available, using fallback",
			zap.String("requested", settings.RequestMethod),
			zap.String("using", string(t.Kind())))
	}
	p.transport = t.Kind()
	p.verifier = verifier.New(settings.SecretKey,
		verifier.WithProvider(provider),
		verifier.WithEndpoint(o.endpoint),
		verifier.WithHTTPClient(t.Client(settings.Timeout)),
		verifier.WithTimeout(settings.Timeout),
		verifier.WithLogger(p.logger),
	)
	return p, nil
}

func (p *Plugin) Enabled() bool {
	return p.settings.Enabled()
}

// Transport is the outbound mechanism chosen at startup; empty when disabled
// or when a custom verifier is used.
func (p *Plugin) Transport() transport.Kind {
	return p.transport
}

// DependencyCheck reports the runtime requirements for enabling the plugin.
func (p *Plugin) DependencyCheck() map[string]bool {
	return map[string]bool{
		"outbound http transport available": !p.transports.Empty(),
	}
}

// DisplaySubscriptionChoice returns the widget HTML for page, or "" when the
// plugin is disabled or the page does not include the widget.
func (p *Plugin) DisplaySubscriptionChoice(page PageData) string {
	if !p.Enabled() || !page.Include {
		return ""
	}
	opts := WidgetOptions{
		LanguageFile: page.LanguageFile,
		Theme:        page.Theme,
		Size:         page.Size,
	}
	if opts.Theme == "" {
		opts.Theme = p.settings.Theme
	}
	if opts.Size == "" {
		opts.Size = p.settings.Size
	}
	return renderWidget(p.provider.Name, p.settings.SiteKey, opts)
}

// ValidateSubscriptionPage checks the posted token once. It returns "" on
// success and otherwise the endpoint's error codes joined by ", ".
func (p *Plugin) ValidateSubscriptionPage(ctx context.Context, page PageData, sub Submission) string {
	ctx, _ = logging.WithSubmissionID(ctx)
	log := logging.For(ctx, p.logger).With(zap.String("page", page.ID))

	if !p.Enabled() {
		log.Debug("captcha disabled, submission accepted")
		return ""
	}
	if !page.Include {
		return ""
	}
	if !sub.TokenPresent || sub.Token == "" {
		log.Info("captcha not completed")
		return p.messages.missing
	}

	res := p.verifier.Verify(ctx, sub.Token, sub.RemoteAddr)
	if res.Success {
		log.Debug("captcha verified")
		return ""
	}

	log.Info("captcha rejected", zap.Strings("errorCodes", res.ErrorCodes))
	if len(res.ErrorCodes) == 0 {
		return p.messages.rejected
	}
	return strings.Join(res.ErrorCodes, ", ")
}

// Submission reads the posted token using the provider's response field.
func (p *Plugin) Submission(r *http.Request) Submission {
	return SubmissionFromRequest(r, p.provider.ResponseField)
}

// SubmissionFromRequest extracts the token from the X-Captcha-Token header or
// the named posted form field, and the client address without its port.
func SubmissionFromRequest(r *http.Request, field string) Submission {
	sub := Submission{RemoteAddr: remoteIP(r.RemoteAddr)}

	if t := r.Header.Get("X-Captcha-Token"); t != "" {
		sub.Token = t
		sub.TokenPresent = true
		return sub
	}
	// Only the request body counts; a token in the query string is ignored.
	if err := r.ParseForm(); err == nil {
		if vals, ok := r.PostForm[field]; ok {
			sub.TokenPresent = true
			if len(vals) > 0 {
				sub.Token = vals[0]
			}
		}
	}
	return sub
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
