package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// New builds the process logger. Debug selects zap's development config.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func Nop() *zap.Logger {
	return zap.NewNop()
}

type submissionKey struct{}

// WithSubmissionID tags ctx with an id shared by every log line written for
// one form submission. An existing id is kept.
func WithSubmissionID(ctx context.Context) (context.Context, string) {
	if id := SubmissionID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, submissionKey{}, id), id
}

func SubmissionID(ctx context.Context) string {
	if id, ok := ctx.Value(submissionKey{}).(string); ok {
		return id
	}
	return ""
}

// For returns l annotated with the submission id found in ctx, if any.
func For(ctx context.Context, l *zap.Logger) *zap.Logger {
	if id := SubmissionID(ctx); id != "" {
		return l.With(zap.String("submissionId", id))
	}
	return l
}
