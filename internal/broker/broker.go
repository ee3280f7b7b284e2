package broker

import (
	"context"

	"github.com/shaiso/Courier/internal/domain"
)

// Delivery — сообщение, доставленное consumer'у.
type Delivery struct {
	// Queue — очередь, из которой пришло сообщение.
	Queue string

	// MessageID — идентификатор сообщения (может быть пустым).
	MessageID string

	// ContentType — MIME-тип тела.
	ContentType string

	// Body — тело сообщения.
	Body []byte

	// Ack подтверждает обработку. Nil, если подтверждение не требуется.
	Ack func() error
}

// ConnectionProvider выдаёт соединения с брокером.
type ConnectionProvider interface {
	// AcquireConnection возвращает рабочее соединение или ошибку.
	AcquireConnection(ctx context.Context) (Connection, error)
}

// Connection — соединение (канал) с брокером, принадлежащее одному контейнеру.
type Connection interface {
	// Consume подписывается на очередь. Ошибка — очереди нет или канал закрыт.
	Consume(ctx context.Context, queue string) (Subscription, error)

	// Closed возвращает канал, который закрывается при потере соединения.
	// Если потеря вызвана ошибкой, ошибка отправляется перед закрытием.
	Closed() <-chan error

	// New сообщает, что соединение было установлено заново для этого вызова
	// AcquireConnection (а не взято из кэша).
	New() bool

	// Close освобождает соединение.
	Close() error
}

// Subscription — активный consumer на очереди.
type Subscription interface {
	// Queue возвращает имя очереди.
	Queue() string

	// Deliveries возвращает канал сообщений. Канал закрывается,
	// когда брокер отменяет consumer (например, очередь удалена)
	// или соединение потеряно.
	Deliveries() <-chan Delivery

	// Cancel отменяет consumer на брокере. Повторный вызов — no-op.
	Cancel() error
}

// Admin управляет очередями на брокере.
type Admin interface {
	// DescribeQueue возвращает свойства очереди. (nil, nil) — очереди нет.
	DescribeQueue(ctx context.Context, name string) (*domain.QueueSpec, error)

	// DeclareQueue объявляет очередь. Если очередь существует с другими
	// свойствами, возвращает ошибку, совместимую с ErrPreconditionFailed.
	DeclareQueue(ctx context.Context, spec domain.QueueSpec) error

	// DeleteQueue удаляет очередь. Удаление несуществующей очереди — не ошибка.
	DeleteQueue(ctx context.Context, name string) error
}
