// Package audit decorates audit events with request metadata before they
// reach the publisher. Services emit through here so request ID, client IP
// and device name are filled in consistently.
package audit

import (
	"context"
	"log/slog"

	"courtyard/internal/platform/device"
	id "courtyard/pkg/domain"
	platformaudit "courtyard/pkg/platform/audit"
	"courtyard/pkg/requestcontext"
)

// Publisher is the downstream sink. Narrowed so tests can fake it.
type Publisher interface {
	Emit(ctx context.Context, event platformaudit.Event) error
}

// Emitter enriches and forwards events. Emit never fails the calling
// operation; publisher errors are logged and dropped.
type Emitter struct {
	logger    *slog.Logger
	publisher Publisher
}

func NewEmitter(logger *slog.Logger, publisher Publisher) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger, publisher: publisher}
}

// Emit publishes one event stamped with the request's metadata. A nil
// publisher turns this into a no-op so wiring stays optional in tests.
func (e *Emitter) Emit(ctx context.Context, action platformaudit.AuditEvent, accountID id.AccountID, subject, reason string) {
	if e == nil || e.publisher == nil {
		return
	}
	event := platformaudit.Event{
		Timestamp: requestcontext.Now(ctx),
		AccountID: accountID,
		Subject:   subject,
		Action:    string(action),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		Device:    device.Display(requestcontext.UserAgent(ctx)),
	}
	if err := e.publisher.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
