package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Courier/internal/broker"
)

var (
	_ broker.Connection   = (*Session)(nil)
	_ broker.Subscription = (*Subscription)(nil)
)

// Session — AMQP канал, выданный одному контейнеру.
type Session struct {
	ch     *amqp.Channel
	isNew  bool
	closed chan error
	logger *slog.Logger
}

func newSession(ch *amqp.Channel, isNew bool, logger *slog.Logger) *Session {
	s := &Session{
		ch:     ch,
		isNew:  isNew,
		closed: make(chan error, 1),
		logger: logger,
	}

	// NotifyClose закрывается при любом закрытии канала;
	// значение приходит только при ошибке (канала или соединения).
	notify := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-notify; ok && err != nil {
			s.closed <- err
		}
		close(s.closed)
	}()

	return s
}

// Consume начинает потребление из очереди с ручным подтверждением.
func (s *Session) Consume(_ context.Context, queue string) (broker.Subscription, error) {
	tag := "courier-" + uuid.NewString()

	deliveries, err := s.ch.Consume(
		queue, // queue
		tag,   // consumer tag
		false, // auto-ack (мы ack вручную)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, mapError(err))
	}

	sub := &Subscription{
		ch:    s.ch,
		queue: queue,
		tag:   tag,
		out:   make(chan broker.Delivery),
		done:  make(chan struct{}),
	}
	go sub.pump(deliveries)

	s.logger.Debug("consumer registered", "queue", queue, "consumer_tag", tag)
	return sub, nil
}

// Closed возвращает канал уведомления о закрытии.
func (s *Session) Closed() <-chan error {
	return s.closed
}

// New сообщает, что соединение установлено этим AcquireConnection.
func (s *Session) New() bool {
	return s.isNew
}

// Close закрывает канал. Consumers канала отменяются брокером.
func (s *Session) Close() error {
	if s.ch.IsClosed() {
		return nil
	}
	if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close channel: %w", err)
	}
	return nil
}

// Subscription — consumer на очереди RabbitMQ.
type Subscription struct {
	ch    *amqp.Channel
	queue string
	tag   string

	out  chan broker.Delivery
	done chan struct{}
	once sync.Once
}

// Queue возвращает имя очереди.
func (s *Subscription) Queue() string {
	return s.queue
}

// Tag возвращает consumer tag.
func (s *Subscription) Tag() string {
	return s.tag
}

// Deliveries возвращает канал сообщений. Закрывается после basic.cancel
// от брокера (очередь удалена) или при закрытии канала.
func (s *Subscription) Deliveries() <-chan broker.Delivery {
	return s.out
}

// Cancel отменяет consumer. Закрытый канал не считается ошибкой.
func (s *Subscription) Cancel() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if cerr := s.ch.Cancel(s.tag, false); cerr != nil && !errors.Is(cerr, amqp.ErrClosed) {
			err = fmt.Errorf("cancel consumer %s: %w", s.tag, mapError(cerr))
		}
	})
	return err
}

// pump переводит AMQP доставки в broker.Delivery.
func (s *Subscription) pump(deliveries <-chan amqp.Delivery) {
	defer close(s.out)

	for raw := range deliveries {
		d := toDelivery(s.queue, raw)
		select {
		case s.out <- d:
		case <-s.done:
			// Consumer отменён: неподтверждённые сообщения вернутся
			// в очередь после закрытия канала.
			for range deliveries {
			}
			return
		}
	}
}

func toDelivery(queue string, raw amqp.Delivery) broker.Delivery {
	return broker.Delivery{
		Queue:       queue,
		MessageID:   raw.MessageId,
		ContentType: raw.ContentType,
		Body:        raw.Body,
		Ack: func() error {
			return raw.Ack(false)
		},
	}
}
