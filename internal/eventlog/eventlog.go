// Package eventlog keeps an append-only audit trail of circulation events.
// Entries are best effort: a failed append is logged and never fails the
// operation that produced it.
package eventlog

import (
	"context"
	"database/sql"
	stdjson "encoding/json"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Audit event types.
const (
	ItemIssued   = "ItemIssued"
	ItemReturned = "ItemReturned"
	FineCreated  = "FineCreated"
	FinePaid     = "FinePaid"
)

// Event is a recorded audit entry.
type Event struct {
	ID         int64              `json:"id"`
	EventType  string             `json:"eventType"`
	EntityID   string             `json:"entityId"`
	Payload    stdjson.RawMessage `json:"payload"`
	RecordedAt time.Time          `json:"recordedAt"`
}

// Log writes and reads the audit trail.
type Log struct {
	pool   *sql.DB
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an audit log backed by the given pool.
func New(pool *sql.DB, logger *slog.Logger) *Log {
	return &Log{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("libradesk/eventlog"),
	}
}

// Append records an event. Serialization or insert failures are logged and
// swallowed so the calling operation is never rolled back by its audit.
func (l *Log) Append(ctx context.Context, eventType, entityID string, payload any) {
	ctx, span := l.tracer.Start(ctx, "eventlog.append",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("entity.id", entityID),
		),
	)
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		l.logger.Warn("marshaling audit event", "eventType", eventType, "error", err)
		return
	}

	_, err = l.pool.ExecContext(ctx, `
		INSERT INTO events (event_type, entity_id, payload)
		VALUES ($1, $2, $3)
	`, eventType, entityID, data)
	if err != nil {
		l.logger.Warn("appending audit event", "eventType", eventType, "error", err)
	}
}

// Recent returns the newest events, up to limit.
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.pool.QueryContext(ctx, `
		SELECT id, event_type, entity_id, payload, recorded_at
		FROM events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.EventType, &event.EntityID,
			&event.Payload, &event.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
