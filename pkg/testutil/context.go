package testutil

import (
	"context"
	"net/http"
	"time"

	id "roundwise/pkg/domain"
	"roundwise/pkg/requestcontext"
)

// WithEvaluator adds an evaluator ID to the request context.
// This simulates what the evaluator middleware does for identified requests.
// Invalid IDs are silently ignored.
func WithEvaluator(req *http.Request, evaluatorID string) *http.Request {
	if parsed, err := id.ParseEvaluatorID(evaluatorID); err == nil {
		ctx := requestcontext.WithEvaluatorID(req.Context(), parsed)
		return req.WithContext(ctx)
	}
	return req
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// EvaluatorContext returns a background context carrying an evaluator and a
// fixed time, the usual starting point of service tests.
func EvaluatorContext(evaluatorID string, at time.Time) context.Context {
	ctx := requestcontext.WithEvaluatorID(context.Background(), id.EvaluatorID(evaluatorID))
	return requestcontext.WithTime(ctx, at)
}
