package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Courier/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS container_events (
		id          UUID PRIMARY KEY,
		container   TEXT        NOT NULL,
		from_state  TEXT        NOT NULL,
		to_state    TEXT        NOT NULL,
		reason      TEXT,
		error       TEXT,
		occurred_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS container_events_container_idx
		ON container_events (container, occurred_at DESC);
`

// EventRepo — журнал переходов состояний контейнеров.
type EventRepo struct {
	pool *pgxpool.Pool
}

// NewEventRepo создаёт новый EventRepo.
func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// EventFilter — параметры выборки событий.
type EventFilter struct {
	// Container — имя контейнера (пустое — все).
	Container string

	// State — целевое состояние перехода (пустое — любое).
	State domain.ContainerState

	// Limit — максимальное количество записей (по умолчанию 50).
	Limit int
}

// EnsureSchema создаёт таблицу журнала, если её нет.
func (r *EventRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record сохраняет событие.
func (r *EventRepo) Record(ctx context.Context, e domain.ContainerEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `
		INSERT INTO container_events (id, container, from_state, to_state, reason, error, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.Container,
		e.From,
		e.To,
		nullString(e.Reason),
		nullString(e.Error),
		e.OccurredAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID возвращает событие по ID.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContainerEvent, error) {
	query := `
		SELECT id, container, from_state, to_state, reason, error, occurred_at
		FROM container_events
		WHERE id = $1
	`
	e, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}

// List возвращает последние события (новые первыми).
func (r *EventRepo) List(ctx context.Context, filter EventFilter) ([]domain.ContainerEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, container, from_state, to_state, reason, error, occurred_at
		FROM container_events
		WHERE ($1::text = '' OR container = $1)
		  AND ($2::text = '' OR to_state = $2)
		ORDER BY occurred_at DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, filter.Container, string(filter.State), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.ContainerEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListByContainer возвращает последние события контейнера.
func (r *EventRepo) ListByContainer(ctx context.Context, container string, limit int) ([]domain.ContainerEvent, error) {
	return r.List(ctx, EventFilter{Container: container, Limit: limit})
}

func scanEvent(row pgx.Row) (*domain.ContainerEvent, error) {
	var (
		e            domain.ContainerEvent
		reason, errS *string
	)
	err := row.Scan(&e.ID, &e.Container, &e.From, &e.To, &reason, &errS, &e.OccurredAt)
	if err != nil {
		return nil, err
	}
	if reason != nil {
		e.Reason = *reason
	}
	if errS != nil {
		e.Error = *errS
	}
	return &e, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
