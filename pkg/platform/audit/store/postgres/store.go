// Package postgres persists audit events in a dedicated table so they
// survive restarts when courtyard runs on the SQL backend. The application
// KV and this table share one database but are otherwise independent.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "courtyard/pkg/domain"
	audit "courtyard/pkg/platform/audit"
)

// Store implements audit.Store over Postgres.
type Store struct {
	db *sql.DB
}

// New prepares the audit table and returns the store. The caller owns the
// *sql.DB lifecycle.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS courtyard_audit_events (
			id         UUID PRIMARY KEY,
			category   TEXT NOT NULL,
			occurred   TIMESTAMPTZ NOT NULL,
			account_id UUID,
			subject    TEXT NOT NULL DEFAULT '',
			action     TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT '',
			ip         TEXT NOT NULL DEFAULT '',
			device     TEXT NOT NULL DEFAULT ''
		)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	const index = `
		CREATE INDEX IF NOT EXISTS courtyard_audit_events_account_idx
		ON courtyard_audit_events (account_id, occurred)`
	if _, err := db.ExecContext(ctx, index); err != nil {
		return nil, fmt.Errorf("create audit index: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts one audit event. The category is always derived from the
// action; the eventCategories map is the source of truth.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()

	var accountID *uuid.UUID
	if !event.AccountID.IsNil() {
		aid := uuid.UUID(event.AccountID)
		accountID = &aid
	}

	const query = `
		INSERT INTO courtyard_audit_events (
			id, category, occurred, account_id, subject, action,
			reason, request_id, ip, device
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		accountID,
		event.Subject,
		event.Action,
		event.Reason,
		event.RequestID,
		event.IP,
		event.Device,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByAccount returns an account's events in emission order.
func (s *Store) ListByAccount(ctx context.Context, accountID id.AccountID) ([]audit.Event, error) {
	const query = `
		SELECT category, occurred, account_id, subject, action,
			   reason, request_id, ip, device
		FROM courtyard_audit_events
		WHERE account_id = $1
		ORDER BY occurred`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the most recent events across all accounts, newest
// first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	const query = `
		SELECT category, occurred, account_id, subject, action,
			   reason, request_id, ip, device
		FROM courtyard_audit_events
		ORDER BY occurred DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			category  string
			occurred  time.Time
			accountID *uuid.UUID
		)
		if err := rows.Scan(
			&category,
			&occurred,
			&accountID,
			&event.Subject,
			&event.Action,
			&event.Reason,
			&event.RequestID,
			&event.IP,
			&event.Device,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Timestamp = occurred
		if accountID != nil {
			event.AccountID = id.AccountID(*accountID)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
