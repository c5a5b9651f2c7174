package service

import (
	"context"

	"roundwise/pkg/requestcontext"
)

const (
	eventSessionOpened  = "evaluation_session_opened"
	eventSessionClosed  = "evaluation_session_closed"
	eventRoundFinalized = "round_finalized"
	eventCapaCommitted  = "capa_committed"
)

// logAudit writes an audit-typed log line with whatever request metadata the
// context carries.
func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	for _, kv := range [][2]string{
		{"request_id", requestcontext.RequestID(ctx)},
		{"client_ip", requestcontext.ClientIP(ctx)},
		{"user_agent", requestcontext.UserAgent(ctx)},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	args := append(attrs, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
