package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/homechain/internal/services/homechain/domain/event"
	"github.com/louisbranch/homechain/internal/services/homechain/storage"
)

const eventColumns = `seq, id, type, timestamp, actor_type, actor_id, request_id, correlation_id, causation_id, entity_type, entity_id, payload_json`

func scanEvent(scan func(dest ...any) error) (event.Event, error) {
	var (
		evt       event.Event
		seq       int64
		timestamp int64
	)
	err := scan(&seq, &evt.ID, &evt.Type, &timestamp, &evt.ActorType, &evt.ActorID, &evt.RequestID,
		&evt.CorrelationID, &evt.CausationID, &evt.EntityType, &evt.EntityID, &evt.PayloadJSON)
	if err != nil {
		return event.Event{}, err
	}
	evt.Seq = uint64(seq)
	evt.Timestamp = fromMillis(timestamp)
	return evt, nil
}

// AppendEvents inserts events in order and returns them with Seq assigned.
func (r registries) AppendEvents(ctx context.Context, events ...event.Event) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if strings.TrimSpace(evt.ID) == "" {
			return nil, fmt.Errorf("event id is required")
		}
		result, err := r.q.ExecContext(ctx, `
INSERT INTO events (id, type, timestamp, actor_type, actor_id, request_id, correlation_id, causation_id, entity_type, entity_id, payload_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.ID, string(evt.Type), toMillis(evt.Timestamp), string(evt.ActorType), evt.ActorID,
			evt.RequestID, evt.CorrelationID, evt.CausationID, evt.EntityType, evt.EntityID, evt.PayloadJSON,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("event %s already journaled", evt.ID)
			}
			return nil, classify("append event", err)
		}
		seq, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("event %s sequence: %w", evt.ID, err)
		}
		evt.Seq = uint64(seq)
		evt.Timestamp = evt.Timestamp.UTC().Truncate(time.Millisecond)
		out = append(out, evt)
	}
	return out, nil
}

// ListEvents returns journal events after afterSeq, oldest first. A
// non-positive limit returns everything.
func (r registries) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	return r.queryEvents(ctx, "list events", `SELECT `+eventColumns+` FROM events WHERE seq > ? ORDER BY seq LIMIT ?`, int64(afterSeq), sqlLimit(limit))
}

// ListUnpublished returns the oldest events the bus has not acknowledged.
func (r registries) ListUnpublished(ctx context.Context, limit int) ([]event.Event, error) {
	return r.queryEvents(ctx, "list unpublished events", `SELECT `+eventColumns+` FROM events WHERE published_at IS NULL ORDER BY seq LIMIT ?`, sqlLimit(limit))
}

func (r registries) queryEvents(ctx context.Context, op, query string, args ...any) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// MarkPublished records the first publish time of each event. Events already
// marked keep their original time.
func (r registries) MarkPublished(ctx context.Context, at time.Time, seqs ...uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, seq := range seqs {
		result, err := r.q.ExecContext(ctx, `
UPDATE events SET published_at = COALESCE(published_at, ?)
WHERE seq = ?`, toMillis(at), int64(seq))
		if err != nil {
			return classify("mark published", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark published %d: %w", seq, err)
		}
		if affected == 0 {
			return fmt.Errorf("event %d: %w", seq, storage.ErrNotFound)
		}
	}
	return nil
}

// sqlLimit maps a non-positive limit to SQLite's unbounded LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
