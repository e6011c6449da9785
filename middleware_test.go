package recaptcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bramley/phplist-plugin-recaptcha/internal/pages"
	"github.com/bramley/phplist-plugin-recaptcha/internal/verifier"
	"github.com/stretchr/testify/require"
)

func subscribeRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/subscribe?id=1", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func fixedPage(page PageData) PageResolver {
	return func(*http.Request) PageData { return page }
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var reached int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&reached, 1)
		w.WriteHeader(http.StatusCreated)
	})

	t.Run("Passing submission reaches the handler", func(t *testing.T) {
		fv := &fakeVerifier{result: verifier.Result{Success: true}}
		h := Middleware(newPlugin(t, enabledSettings, fv), fixedPage(includedPage))(next)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, subscribeRequest("email=x%40y.z&g-recaptcha-response=tok"))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "tok", fv.token)
	})

	t.Run("Rejected submission gets the JSON failure", func(t *testing.T) {
		before := atomic.LoadInt32(&reached)
		fv := &fakeVerifier{result: verifier.Result{ErrorCodes: []string{"foo", "bar"}}}
		h := Middleware(newPlugin(t, enabledSettings, fv), fixedPage(includedPage))(next)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, subscribeRequest("g-recaptcha-response=tok"))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body failureBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.False(t, body.Success)
		require.Equal(t, "foo, bar", body.Message)
		require.Equal(t, before, atomic.LoadInt32(&reached))
	})

	t.Run("Missing token uses the custom failure handler", func(t *testing.T) {
		fv := &fakeVerifier{result: verifier.Result{Success: true}}
		var got string
		h := Middleware(newPlugin(t, enabledSettings, fv), fixedPage(includedPage),
			WithFailureHandler(func(w http.ResponseWriter, _ *http.Request, message string) {
				got = message
				w.WriteHeader(http.StatusUnprocessableEntity)
			}),
		)(next)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, subscribeRequest("email=x%40y.z"))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, MessageTokenMissing, got)
		require.Zero(t, atomic.LoadInt32(&fv.calls))
	})
}

// hookOnly implements SubscriptionHook without a Submission reader.
type hookOnly struct {
	seen Submission
}

func (h *hookOnly) DisplaySubscriptionChoice(PageData) string { return "" }
func (h *hookOnly) ValidateSubscriptionPage(_ context.Context, _ PageData, sub Submission) string {
	h.seen = sub
	return ""
}

func TestMiddlewareDefaultReader(t *testing.T) {
	t.Parallel()

	hook := &hookOnly{}
	h := Middleware(hook, fixedPage(includedPage))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), subscribeRequest("g-recaptcha-response=abc"))
	require.Equal(t, "abc", hook.seen.Token)
}

func TestStorePages(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pages.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pages":{"1":{"theme":"dark"},"2":{"include":false}}}`), 0o600))
	store, err := pages.Open(path, nil)
	require.NoError(t, err)

	resolve := StorePages(store, func(r *http.Request) string { return r.URL.Query().Get("id") }, nil)

	page := resolve(subscribeRequest(""))
	require.Equal(t, PageData{ID: "1", Include: true, Theme: "dark"}, page)

	r := httptest.NewRequest(http.MethodPost, "/subscribe?id=2", nil)
	require.False(t, resolve(r).Include)

	fv := &fakeVerifier{}
	h := Middleware(newPlugin(t, enabledSettings, fv), resolve)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/subscribe?id=2", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, atomic.LoadInt32(&fv.calls))
}
