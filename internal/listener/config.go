package listener

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/telemetry"
)

// Default configuration values.
const (
	defaultVerifyInterval = 2 * time.Second
	defaultConcurrency    = 1
	defaultSinkTimeout    = 2 * time.Second
)

// MessageListener получает сообщения из очередей контейнера.
// Ошибки обработки — ответственность listener'а.
type MessageListener interface {
	OnMessage(ctx context.Context, d broker.Delivery)
}

// ListenerFunc — адаптер функции к MessageListener.
type ListenerFunc func(ctx context.Context, d broker.Delivery)

// OnMessage вызывает f(ctx, d).
func (f ListenerFunc) OnMessage(ctx context.Context, d broker.Delivery) {
	f(ctx, d)
}

// EventSink сохраняет переходы контейнера между состояниями.
type EventSink interface {
	Record(ctx context.Context, event domain.ContainerEvent) error
}

// Config — конфигурация контейнера.
//
// Рекомендуемый способ — DefaultConfig() и явная замена нужных полей:
//
//	cfg := listener.DefaultConfig()
//	cfg.Name = "orders"
//	cfg.Queues = []domain.QueueSpec{domain.DurableQueue("orders")}
//	cfg.MismatchedQueuesFatal = true
type Config struct {
	// Name — имя контейнера (для логов, метрик и событий).
	Name string

	// Queues — очереди для потребления с ожидаемыми свойствами.
	Queues []domain.QueueSpec

	// MismatchedQueuesFatal — несоответствие очереди останавливает контейнер.
	MismatchedQueuesFatal bool

	// Admin — явно внедрённый администратор (опционально).
	Admin broker.Admin

	// Provider — поставщик соединений.
	Provider broker.ConnectionProvider

	// Listener — получатель сообщений.
	Listener MessageListener

	// AutoDeclare — объявлять ожидаемые очереди на каждом новом соединении.
	AutoDeclare bool

	// Concurrency — количество consumers на очередь (default: 1).
	Concurrency int

	// VerifyInterval — период повторной проверки очередей во время работы
	// (default: 2s, отрицательное значение выключает проверку).
	VerifyInterval time.Duration

	// Retry — политика повторного получения соединения.
	Retry RetryPolicy

	// EventSink — журнал переходов (опционально).
	EventSink EventSink

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// DefaultConfig возвращает конфигурацию с общими значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		AutoDeclare:    true,
		Concurrency:    defaultConcurrency,
		VerifyInterval: defaultVerifyInterval,
		Retry:          DefaultRetryPolicy(),
	}
}

// QueueNames возвращает имена очередей конфигурации.
func (c Config) QueueNames() []string {
	names := make([]string, len(c.Queues))
	for i, q := range c.Queues {
		names[i] = q.Name
	}
	return names
}
