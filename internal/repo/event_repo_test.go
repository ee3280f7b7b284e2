package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Courier/internal/domain"
)

// newTestRepo подключается к БД из COURIER_TEST_DB_URL; без неё тесты пропускаются.
func newTestRepo(t *testing.T) *EventRepo {
	t.Helper()

	dsn := os.Getenv("COURIER_TEST_DB_URL")
	if dsn == "" {
		t.Skip("COURIER_TEST_DB_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	r := NewEventRepo(pool)
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return r
}

func TestEventRepo_RecordAndList(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	name := "test-" + uuid.NewString()[:8]
	now := time.Now().UTC().Truncate(time.Millisecond)

	events := []domain.ContainerEvent{
		{Container: name, From: domain.StateStopped, To: domain.StateStarting, Reason: "start requested", OccurredAt: now},
		{Container: name, From: domain.StateStarting, To: domain.StateShutdownFatal, Reason: "start failed", Error: "mismatched queues", OccurredAt: now.Add(time.Second)},
	}
	for _, e := range events {
		if err := r.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := r.ListByContainer(ctx, name, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].To != domain.StateShutdownFatal || got[0].Error != "mismatched queues" {
		t.Errorf("newest event first expected, got %+v", got[0])
	}
	if got[1].Reason != "start requested" || got[1].Error != "" {
		t.Errorf("unexpected event %+v", got[1])
	}

	fatal, err := r.List(ctx, EventFilter{Container: name, State: domain.StateShutdownFatal})
	if err != nil {
		t.Fatalf("list by state: %v", err)
	}
	if len(fatal) != 1 {
		t.Errorf("expected 1 fatal event, got %d", len(fatal))
	}
}

func TestEventRepo_GetByID(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	e := domain.ContainerEvent{
		ID:         uuid.New(),
		Container:  "test-get",
		From:       domain.StateRunning,
		To:         domain.StateRecovering,
		OccurredAt: time.Now(),
	}
	if err := r.Record(ctx, e); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.Record(ctx, e); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists on duplicate id, got %v", err)
	}

	got, err := r.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.To != domain.StateRecovering {
		t.Errorf("expected RECOVERING, got %s", got.To)
	}

	if _, err := r.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
