package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"schedcal/internal/models"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = "e.id, e.title, e.start_time, e.end_time, e.description, e.resource, e.user_id, e.created_at, e.updated_at"

func scanEvent(row pgx.Row) (models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.StartTime,
		&event.EndTime,
		&event.Description,
		&event.Resource,
		&event.UserID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	return event, err
}

func scanJoinedEvent(row pgx.Row) (models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.StartTime,
		&event.EndTime,
		&event.Description,
		&event.Resource,
		&event.UserID,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.Username,
	)
	return event, err
}

func (r *EventRepository) Create(ctx context.Context, event models.Event) (models.Event, error) {
	const query = `
		INSERT INTO events (title, start_time, end_time, description, resource, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, title, start_time, end_time, description, resource, user_id, created_at, updated_at`

	created, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.Title,
		event.StartTime,
		event.EndTime,
		event.Description,
		event.Resource,
		event.UserID,
	))
	if err != nil {
		return models.Event{}, translateError(err)
	}
	return created, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int) (models.Event, error) {
	const query = `
		SELECT ` + eventColumns + `, u.username
		FROM events e
		LEFT JOIN users u ON e.user_id = u.id
		WHERE e.id = $1`

	event, err := scanJoinedEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	const query = `
		SELECT ` + eventColumns + `, u.username
		FROM events e
		LEFT JOIN users u ON e.user_id = u.id
		ORDER BY e.start_time ASC`

	return r.queryJoined(ctx, query)
}

func (r *EventRepository) ListByOwner(ctx context.Context, userID int) ([]models.Event, error) {
	const query = `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.user_id = $1
		ORDER BY e.start_time ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) ListByRange(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	const query = `
		SELECT ` + eventColumns + `, u.username
		FROM events e
		LEFT JOIN users u ON e.user_id = u.id
		WHERE e.start_time >= $1 AND e.end_time <= $2
		ORDER BY e.start_time ASC`

	return r.queryJoined(ctx, query, start, end)
}

func (r *EventRepository) queryJoined(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanJoinedEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, id int, patch models.EventPatch) (models.Event, error) {
	// COALESCE keeps every field the caller did not supply. Clearing
	// user_id back to null is not expressible through this path, same as
	// every other field.
	const query = `
		UPDATE events
		SET title = COALESCE($1, title),
			start_time = COALESCE($2, start_time),
			end_time = COALESCE($3, end_time),
			description = COALESCE($4, description),
			resource = COALESCE($5, resource),
			user_id = COALESCE($6, user_id),
			updated_at = NOW()
		WHERE id = $7
		RETURNING id, title, start_time, end_time, description, resource, user_id, created_at, updated_at`

	event, err := scanEvent(r.pool.QueryRow(ctx, query,
		patch.Title,
		patch.StartTime,
		patch.EndTime,
		patch.Description,
		patch.Resource,
		patch.UserID,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, translateError(err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int) (models.Event, error) {
	const query = `
		DELETE FROM events WHERE id = $1
		RETURNING id, title, start_time, end_time, description, resource, user_id, created_at, updated_at`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, err
	}
	return event, nil
}
