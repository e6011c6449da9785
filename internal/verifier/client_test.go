package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func endpoint(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestVerifyPostsFormFields(t *testing.T) {
	t.Parallel()

	var (
		method, contentType string
		form                url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		form = r.PostForm
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	c := New("s3cret", WithEndpoint(srv.URL))
	res := c.Verify(context.Background(), "tok", "203.0.113.9")

	require.True(t, res.Success)
	require.Equal(t, http.MethodPost, method)
	require.Equal(t, "application/x-www-form-urlencoded", contentType)
	require.Equal(t, "s3cret", form.Get("secret"))
	require.Equal(t, "tok", form.Get("response"))
	require.Equal(t, "203.0.113.9", form.Get("remoteip"))
}

func TestVerifyOmitsUnknownRemoteIP(t *testing.T) {
	t.Parallel()

	var hasRemoteIP bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		_, hasRemoteIP = r.PostForm["remoteip"]
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	res := New("k", WithEndpoint(srv.URL)).Verify(context.Background(), "tok", "")
	require.True(t, res.Success)
	require.False(t, hasRemoteIP)
}

func TestVerifyEmptyTokenSkipsNetwork(t *testing.T) {
	t.Parallel()

	srv, calls := endpoint(t, http.StatusOK, `{"success": true}`)
	res := New("k", WithEndpoint(srv.URL)).Verify(context.Background(), "", "1.2.3.4")

	require.False(t, res.Success)
	require.Equal(t, []string{CodeMissingInputResponse}, res.ErrorCodes)
	require.Zero(t, atomic.LoadInt32(calls))
}

func TestVerifyResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		success bool
		codes   []string
	}{
		{"success", http.StatusOK, `{"success": true}`, true, nil},
		{"success ignores error codes", http.StatusOK, `{"success": true, "error-codes": ["foo"]}`, true, nil},
		{"success ignores odd error codes", http.StatusOK, `{"success": true, "error-codes": 7}`, true, nil},
		{"rejected with codes", http.StatusOK, `{"success": false, "error-codes": ["foo", "bar"]}`, false, []string{"foo", "bar"}},
		{"rejected without codes", http.StatusOK, `{"success": false}`, false, []string{}},
		{"rejected with null codes", http.StatusOK, `{"success": false, "error-codes": null}`, false, []string{}},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, false, []string{CodeInvalidJSON}},
		{"empty body", http.StatusOK, ``, false, []string{CodeInvalidJSON}},
		{"truncated json", http.StatusOK, `{"success": tr`, false, []string{CodeInvalidJSON}},
		{"array body", http.StatusOK, `["success"]`, false, []string{CodeMalformedResponse}},
		{"missing success", http.StatusOK, `{"error-codes": []}`, false, []string{CodeMalformedResponse}},
		{"string success", http.StatusOK, `{"success": "true"}`, false, []string{CodeMalformedResponse}},
		{"non string codes", http.StatusOK, `{"success": false, "error-codes": [1, 2]}`, false, []string{CodeMalformedResponse}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, calls := endpoint(t, tt.status, tt.body)
			res := New("k", WithEndpoint(srv.URL)).Verify(context.Background(), "tok", "")

			require.Equal(t, int32(1), atomic.LoadInt32(calls))
			require.Equal(t, tt.success, res.Success)
			if tt.success {
				require.Empty(t, res.ErrorCodes)
				return
			}
			require.Equal(t, tt.codes, res.ErrorCodes)
		})
	}
}

func TestVerifyTimeoutIsConnectionError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := New("k", WithEndpoint(srv.URL), WithTimeout(50*time.Millisecond)).Verify(context.Background(), "tok", "")

	require.False(t, res.Success)
	require.Equal(t, []string{CodeConnectionError}, res.ErrorCodes)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestVerifyUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res := New("k", WithEndpoint(addr)).Verify(context.Background(), "tok", "")
	require.False(t, res.Success)
	require.Equal(t, []string{CodeConnectionError}, res.ErrorCodes)
}

func TestVerifyBadEndpointURL(t *testing.T) {
	t.Parallel()

	res := New("k", WithEndpoint("://nope")).Verify(context.Background(), "tok", "")
	require.Equal(t, []string{CodeConnectionError}, res.ErrorCodes)
}

func TestVerifyCancelledContext(t *testing.T) {
	t.Parallel()

	srv, _ := endpoint(t, http.StatusOK, `{"success": true}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New("k", WithEndpoint(srv.URL)).Verify(ctx, "tok", "")
	require.Equal(t, []string{CodeConnectionError}, res.ErrorCodes)
}

func TestProviderByName(t *testing.T) {
	t.Parallel()

	p, err := ProviderByName("")
	require.NoError(t, err)
	require.Equal(t, Google, p)

	p, err = ProviderByName("Turnstile")
	require.NoError(t, err)
	require.Equal(t, "cf-turnstile-response", p.ResponseField)

	_, err = ProviderByName("hcaptcha")
	require.Error(t, err)

	c := New("k", WithProvider(Turnstile))
	require.Equal(t, turnstileEndpoint, c.endpoint)
	require.Equal(t, Turnstile, c.Provider())
}
