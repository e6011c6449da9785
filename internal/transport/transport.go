package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Kind names an outbound HTTP mechanism.
type Kind string

const (
	// Pooled shares one keep-alive transport across calls.
	Pooled Kind = "pooled"
	// Direct opens a fresh connection for every call.
	Direct Kind = "direct"
)

var ErrNoTransport = errors.New("no outbound http transport available")

// ParseKind normalises a configured request method name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Pooled, Direct:
		return k, nil
	default:
		return "", fmt.Errorf("unknown request method %q (pooled|direct)", s)
	}
}

// Transport builds HTTP clients for the verification call.
type Transport interface {
	Kind() Kind
	Available() bool
	Client(timeout time.Duration) *http.Client
}

type pooled struct {
	rt http.RoundTripper
}

// NewPooled returns a transport backed by a shared connection pool cloned
// from http.DefaultTransport.
func NewPooled() Transport {
	return newPooled(http.DefaultTransport)
}

// newPooled is unavailable when base is not an *http.Transport.
func newPooled(base http.RoundTripper) Transport {
	ht, ok := base.(*http.Transport)
	if !ok || ht == nil {
		return &pooled{}
	}
	rt := ht.Clone()
	rt.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	rt.MaxIdleConns = 10
	rt.IdleConnTimeout = 90 * time.Second
	rt.TLSHandshakeTimeout = 5 * time.Second
	return &pooled{rt: rt}
}

func (p *pooled) Kind() Kind      { return Pooled }
func (p *pooled) Available() bool { return p.rt != nil }

func (p *pooled) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: p.rt, Timeout: timeout}
}

type direct struct{}

// NewDirect returns a transport that never reuses connections.
func NewDirect() Transport {
	return direct{}
}

func (direct) Kind() Kind      { return Direct }
func (direct) Available() bool { return true }

func (direct) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
		},
		Timeout: timeout,
	}
}
