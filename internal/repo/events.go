package repo

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"eventsales/internal/model"
)

// GetEventsByIDs reads every requested event in a single round trip.
// Callers compare the map size against len(ids) to detect missing events.
func (r *repository) GetEventsByIDs(ctx context.Context, ids []string) (map[string]model.Event, error) {
	query := `
		SELECT id, title, cost, created_at, updated_at
		FROM events
		WHERE id = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get events by ids: %w", err)
	}
	defer rows.Close()

	events := make(map[string]model.Event, len(ids))
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Cost, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events[e.ID] = e
	}
	return events, rows.Err()
}

func (r *repository) ListEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT id, title, cost, created_at, updated_at
		FROM events
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Cost, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) error {
	query := `
		INSERT INTO events (id, title, cost, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, e.ID, e.Title, e.Cost).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	return classify(err)
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	query := `
		UPDATE events
		SET title = $1, cost = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, e.Title, e.Cost, e.ID).Scan(&e.UpdatedAt)
	return classify(err)
}

func (r *repository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return noneAffected(res)
}
