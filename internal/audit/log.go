package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events as structured log records.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, e Event) error {
	attrs := []any{
		"log_type", "audit",
		"event_type", string(e.Type),
		"category", string(e.Category),
	}
	for _, kv := range [][2]string{
		{"user_id", e.UserID},
		{"email", e.Email},
		{"subject", e.Subject},
		{"source", e.Source},
		{"reason", e.Reason},
		{"request_id", e.RequestID},
		{"client_ip", e.ClientIP},
		{"device", e.Device},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	if e.Type == EventLoginFailed || e.Type == EventCompanySearchFailed {
		s.logger.WarnContext(ctx, string(e.Type), attrs...)
		return nil
	}
	s.logger.InfoContext(ctx, string(e.Type), attrs...)
	return nil
}
