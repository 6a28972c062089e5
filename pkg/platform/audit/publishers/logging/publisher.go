package logging

import (
	"context"
	"log/slog"
	"time"

	audit "activityboard/pkg/platform/audit"
)

// Publisher writes audit events as structured log lines. It is the default
// sink when no Kafka brokers are configured.
type Publisher struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	event = event.Normalize(time.Now())
	p.logger.InfoContext(ctx, "audit event",
		"audit_id", event.ID.String(),
		"category", string(event.Category),
		"action", string(event.Action),
		"activity", event.Activity,
		"email", event.Email,
		"request_id", event.RequestID,
		"client_ip", event.ClientIP,
		"timestamp", event.Timestamp,
	)
	return nil
}
