package listener

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/broker/memory"
	"github.com/shaiso/Courier/internal/domain"
)

// recorder — listener, запоминающий полученные сообщения.
type recorder struct {
	mu   sync.Mutex
	msgs []broker.Delivery
}

func (r *recorder) OnMessage(_ context.Context, d broker.Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, d)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// eventLog — EventSink в памяти.
type eventLog struct {
	mu     sync.Mutex
	events []domain.ContainerEvent
}

func (l *eventLog) Record(_ context.Context, e domain.ContainerEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) states() []domain.ContainerState {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.ContainerState, len(l.events))
	for i, e := range l.events {
		out[i] = e.To
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// baseConfig — общие значения для тестовых сценариев; каждый тест
// явно переопределяет нужные поля.
func baseConfig(b *memory.Broker, queues ...domain.QueueSpec) Config {
	cfg := DefaultConfig()
	cfg.Name = "test"
	cfg.Queues = queues
	cfg.Provider = b.Provider()
	cfg.Listener = &recorder{}
	cfg.VerifyInterval = 50 * time.Millisecond
	cfg.Retry = RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Multiplier:      2,
	}
	cfg.Logger = discardLogger()
	return cfg
}

// waitFor опрашивает cond каждые 10ms до истечения timeout.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func declare(t *testing.T, b *memory.Broker, spec domain.QueueSpec) {
	t.Helper()
	if err := b.Admin().DeclareQueue(context.Background(), spec); err != nil {
		t.Fatalf("declare %s: %v", spec, err)
	}
}
