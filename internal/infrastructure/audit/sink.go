package audit

import (
	"context"

	"warden/internal/application/modmail/usecases"
	"warden/internal/shared/id"
	"warden/internal/shared/logger"
)

// LogSink writes audit events to the structured log. Fire and forget: a
// lost audit line never affects the operation that produced it.
type LogSink struct {
	logger logger.Interface
}

var _ usecases.AuditSink = (*LogSink)(nil)

func NewLogSink(log logger.Interface) *LogSink {
	return &LogSink{logger: log.Named("audit")}
}

func (s *LogSink) Record(ctx context.Context, event string, keysAndValues ...any) {
	args := make([]any, 0, len(keysAndValues)+4)
	args = append(args, "event", event, "event_id", id.NewAuditEventID())
	args = append(args, keysAndValues...)
	s.logger.Infow("audit event", args...)
}
