package service

import (
	"context"

	"cadastro/internal/audit"
	authmw "cadastro/pkg/platform/middleware/auth"
)

// emit attaches the authenticated caller and forwards the event.
// Without a publisher the event is only logged.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if userID := authmw.GetUserID(ctx); !userID.IsNil() {
		event.UserID = userID.String()
	}
	if email := authmw.GetEmail(ctx); email != "" {
		event.Email = email
	}
	if s.audit == nil {
		s.logger.InfoContext(ctx, string(event.Type),
			"event_type", string(event.Type),
			"subject", event.Subject,
			"source", event.Source,
			"reason", event.Reason,
		)
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "event_type", string(event.Type), "error", err)
	}
}
