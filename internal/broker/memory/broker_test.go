package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
)

func TestAdmin_DeclareMismatch(t *testing.T) {
	b := New()
	admin := b.Admin()
	ctx := context.Background()

	if err := admin.DeclareQueue(ctx, domain.DurableQueue("q")); err != nil {
		t.Fatalf("declare: %v", err)
	}

	// Повторное объявление с теми же свойствами — не ошибка.
	if err := admin.DeclareQueue(ctx, domain.DurableQueue("q")); err != nil {
		t.Fatalf("redeclare: %v", err)
	}

	err := admin.DeclareQueue(ctx, domain.NewQueue("q", false, false, true))
	if !errors.Is(err, broker.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	spec, err := admin.DescribeQueue(ctx, "q")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if spec == nil || *spec != domain.DurableQueue("q") {
		t.Errorf("unexpected spec: %+v", spec)
	}
}

func TestAdmin_DescribeAbsent(t *testing.T) {
	spec, err := New().Admin().DescribeQueue(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec != nil {
		t.Errorf("expected nil spec, got %+v", spec)
	}
}

func TestDeleteQueue_CancelsConsumers(t *testing.T) {
	b := New()
	ctx := context.Background()
	_ = b.Admin().DeclareQueue(ctx, domain.DurableQueue("q"))

	conn, err := b.Provider().AcquireConnection(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer conn.Close()

	sub, err := conn.Consume(ctx, "q")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if err := b.Publish("q", []byte("hello")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case d := <-sub.Deliveries():
		if string(d.Body) != "hello" {
			t.Errorf("unexpected body: %s", d.Body)
		}
		if err := d.Ack(); err != nil {
			t.Errorf("ack: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("delivery timeout")
	}

	_ = b.Admin().DeleteQueue(ctx, "q")

	select {
	case _, ok := <-sub.Deliveries():
		if ok {
			t.Error("expected closed deliveries channel")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer was not cancelled")
	}

	if b.Acked() != 1 {
		t.Errorf("expected 1 ack, got %d", b.Acked())
	}
	if err := sub.Cancel(); err != nil {
		t.Errorf("cancel after broker cancel: %v", err)
	}
}

func TestPublish_Backlog(t *testing.T) {
	b := New()
	ctx := context.Background()
	_ = b.Admin().DeclareQueue(ctx, domain.DurableQueue("q"))

	for i := 0; i < 3; i++ {
		_ = b.Publish("q", []byte{byte(i)})
	}

	conn, _ := b.Provider().AcquireConnection(ctx)
	defer conn.Close()
	sub, err := conn.Consume(ctx, "q")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	for i := 0; i < 3; i++ {
		d := <-sub.Deliveries()
		if d.Body[0] != byte(i) {
			t.Errorf("message %d out of order: %v", i, d.Body)
		}
	}
}

func TestConsume_MissingQueue(t *testing.T) {
	b := New()
	conn, _ := b.Provider().AcquireConnection(context.Background())
	defer conn.Close()

	if _, err := conn.Consume(context.Background(), "missing"); !errors.Is(err, broker.ErrQueueNotFound) {
		t.Errorf("expected ErrQueueNotFound, got %v", err)
	}
}

func TestProvider_FailAndDrop(t *testing.T) {
	b := New()
	p := b.Provider()
	ctx := context.Background()

	b.FailConnections(2)
	for i := 0; i < 2; i++ {
		if _, err := p.AcquireConnection(ctx); !errors.Is(err, ErrConnectionRefused) {
			t.Fatalf("attempt %d: expected ErrConnectionRefused, got %v", i, err)
		}
	}

	first, err := p.AcquireConnection(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !first.New() {
		t.Error("first connection should be new")
	}

	second, _ := p.AcquireConnection(ctx)
	if second.New() {
		t.Error("second connection should reuse the cached one")
	}

	b.DropConnections()

	select {
	case err, ok := <-first.Closed():
		if !ok || err == nil {
			t.Error("expected close error")
		}
	case <-time.After(time.Second):
		t.Fatal("close signal timeout")
	}

	if b.OpenConnections() != 0 {
		t.Errorf("expected no open connections, got %d", b.OpenConnections())
	}

	third, _ := p.AcquireConnection(ctx)
	defer third.Close()
	if !third.New() {
		t.Error("connection after drop should be new")
	}
}
