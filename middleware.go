package recaptcha

import (
	"encoding/json"
	"net/http"

	"github.com/bramley/phplist-plugin-recaptcha/internal/pages"
	"github.com/bramley/phplist-plugin-recaptcha/internal/verifier"
	"go.uber.org/zap"
)

// FailureHandler writes the response for a submission that did not pass.
type FailureHandler func(w http.ResponseWriter, r *http.Request, message string)

// PageResolver finds the subscribe page a request is posting to.
type PageResolver func(*http.Request) PageData

type middlewareConfig struct {
	failureHandler FailureHandler
}

type MiddlewareOption func(*middlewareConfig)

func WithFailureHandler(handler FailureHandler) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if handler != nil {
			cfg.failureHandler = handler
		}
	}
}

type submissionReader interface {
	Submission(r *http.Request) Submission
}

// Middleware validates subscribe submissions through hook before they reach
// next.
func Middleware(hook SubscriptionHook, pageFor PageResolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		failureHandler: JSONFailureHandler(http.StatusBadRequest),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	read := func(r *http.Request) Submission {
		return SubmissionFromRequest(r, verifier.Google.ResponseField)
	}
	if sr, ok := hook.(submissionReader); ok {
		read = sr.Submission
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page := pageFor(r)
			if msg := hook.ValidateSubscriptionPage(r.Context(), page, read(r)); msg != "" {
				cfg.failureHandler(w, r, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type failureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func JSONFailureHandler(status int) FailureHandler {
	return func(w http.ResponseWriter, _ *http.Request, message string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(failureBody{Success: false, Message: message})
	}
}

// PageDataFrom converts stored options for page id.
func PageDataFrom(id string, o pages.Options) PageData {
	return PageData{
		ID:           id,
		Include:      o.Include,
		Theme:        o.Theme,
		Size:         o.Size,
		LanguageFile: o.LanguageFile,
	}
}

// StorePages resolves pages from a settings store, using id to name the page
// of a request. If the store cannot reload, the last good settings are used.
func StorePages(store *pages.Store, id func(*http.Request) string, logger *zap.Logger) PageResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(r *http.Request) PageData {
		pageID := id(r)
		opts, _, err := store.Page(pageID)
		if err != nil {
			logger.Error("could not reload page settings", zap.String("page", pageID), zap.Error(err))
		}
		return PageDataFrom(pageID, opts)
	}
}
