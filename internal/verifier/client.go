package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout = 5 * time.Second

	// Answers are a few hundred bytes; anything larger is not a siteverify reply.
	maxBodySize = 64 << 10
)

// Client verifies tokens against one provider with one secret key.
type Client struct {
	secret   string
	provider Provider
	endpoint string
	timeout  time.Duration
	http     *http.Client
	logger   *zap.Logger
}

type Option func(*Client)

// WithProvider switches the endpoint to another siteverify-compatible service.
func WithProvider(p Provider) Option {
	return func(c *Client) {
		c.provider = p
		c.endpoint = p.Endpoint
	}
}

// WithEndpoint overrides the verification URL, keeping the provider.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds the whole verification call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(secret string, opts ...Option) *Client {
	c := &Client{
		secret:   secret,
		provider: Google,
		endpoint: Google.Endpoint,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

func (c *Client) Provider() Provider {
	return c.provider
}

// Verify posts the token to the provider once. An empty token fails without a
// network call. Transport problems, including the timeout, fail closed with
// CodeConnectionError.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) Result {
	if token == "" {
		return failure(CodeMissingInputResponse)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(ctx, Request{
		Secret:   c.secret,
		Response: token,
		RemoteIP: remoteIP,
	})
	if err != nil {
		c.logger.Error("could not build verification request", zap.String("endpoint", c.endpoint), zap.Error(err))
		return failure(CodeConnectionError)
	}

	body, err := c.send(req)
	if err != nil {
		c.logger.Warn("verification request failed", zap.String("provider", c.provider.Name), zap.Error(err))
		return failure(CodeConnectionError)
	}

	res, err := parseResponse(body)
	if err != nil {
		c.logger.Warn("unusable verification response", zap.String("provider", c.provider.Name), zap.Error(err))
	}
	return res
}

func (c *Client) buildRequest(ctx context.Context, r Request) (*http.Request, error) {
	form := url.Values{}
	form.Set("secret", r.Secret)
	form.Set("response", r.Response)
	if r.RemoteIP != "" {
		form.Set("remoteip", r.RemoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", c.provider.Name, err)
	}
	return body, nil
}

type rawResponse struct {
	Success    *bool           `json:"success"`
	ErrorCodes json.RawMessage `json:"error-codes"`
}

// parseResponse never fails to produce a Result; the error explains why a
// synthetic code was used.
func parseResponse(body []byte) (Result, error) {
	if !json.Valid(body) {
		return failure(CodeInvalidJSON), fmt.Errorf("body is not json")
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return failure(CodeMalformedResponse), fmt.Errorf("decode: %w", err)
	}
	if raw.Success == nil {
		return failure(CodeMalformedResponse), fmt.Errorf("missing boolean success field")
	}
	if *raw.Success {
		return Result{Success: true}, nil
	}

	codes := []string{}
	if len(raw.ErrorCodes) > 0 && string(raw.ErrorCodes) != "null" {
		if err := json.Unmarshal(raw.ErrorCodes, &codes); err != nil {
			return failure(CodeMalformedResponse), fmt.Errorf("decode error-codes: %w", err)
		}
	}
	return failure(codes...), nil
}
