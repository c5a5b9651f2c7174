// Package requestcontext carries request-scoped values (evaluator, request id,
// client metadata, request time) through a context.Context.
//
// Middleware sets the values; services read them. Nothing here depends on
// net/http, so the evaluation core stays transport agnostic and tests can
// inject a fixed evaluator or clock directly.
package requestcontext

import (
	"context"
	"time"

	id "roundwise/pkg/domain"
)

type (
	evaluatorIDKey struct{}
	clientKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// client groups what the caller told us about itself.
type client struct {
	ip        string
	userAgent string
}

func value[T any](ctx context.Context, key any) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// EvaluatorID returns the acting evaluator, or "" when unauthenticated.
func EvaluatorID(ctx context.Context) id.EvaluatorID {
	return value[id.EvaluatorID](ctx, evaluatorIDKey{})
}

func WithEvaluatorID(ctx context.Context, evaluatorID id.EvaluatorID) context.Context {
	return context.WithValue(ctx, evaluatorIDKey{}, evaluatorID)
}

func ClientIP(ctx context.Context) string {
	return value[client](ctx, clientKey{}).ip
}

func UserAgent(ctx context.Context) string {
	return value[client](ctx, clientKey{}).userAgent
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, client{ip: clientIP, userAgent: userAgent})
}

func RequestID(ctx context.Context) string {
	return value[string](ctx, requestIDKey{})
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the time the request was received. Outside a request
// (autosave goroutines, CLI) it falls back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
