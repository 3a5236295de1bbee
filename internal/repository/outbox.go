package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CartEvent is an outbox row. Payload is the JSON written at mutation time.
type CartEvent struct {
	ID        int64
	EventID   string
	CartID    int64
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// insertCartEvent records an outbox event inside the transaction of the
// mutation it describes, so the event exists iff the mutation committed.
func insertCartEvent(ctx context.Context, tx *sql.Tx, cartID int64, eventType string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cart_events (event_id, cart_id, event_type, payload) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), cartID, eventType, body)
	if err != nil {
		return fmt.Errorf("failed to insert cart event: %w", err)
	}

	return nil
}

func (r *Repository) UnprocessedEvents(ctx context.Context, limit int) ([]*CartEvent, error) {
	query := `
		SELECT id, event_id, cart_id, event_type, payload, created_at
		FROM cart_events
		WHERE processed_at IS NULL
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart events: %w", err)
	}
	defer rows.Close()

	var events []*CartEvent
	for rows.Next() {
		e := &CartEvent{}
		err := rows.Scan(&e.ID, &e.EventID, &e.CartID, &e.EventType, &e.Payload, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cart_events SET processed_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}
	return nil
}
