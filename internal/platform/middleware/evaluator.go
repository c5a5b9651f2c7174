package middleware

import (
	"log/slog"
	"net/http"

	id "roundwise/pkg/domain"
	"roundwise/pkg/requestcontext"
)

// RequireEvaluator reads the acting evaluator from X-Evaluator-ID. Identity
// is asserted by the fronting gateway; this service only validates its shape.
func RequireEvaluator(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			evaluatorID, err := id.ParseEvaluatorID(r.Header.Get(HeaderEvaluatorID))
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "rejected request without valid evaluator",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid X-Evaluator-ID header")
				return
			}
			ctx := requestcontext.WithEvaluatorID(r.Context(), evaluatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
