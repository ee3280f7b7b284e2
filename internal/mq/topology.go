package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
)

var _ broker.Admin = (*Admin)(nil)

// Admin управляет очередями RabbitMQ.
//
// Объявление и удаление выполняются по AMQP на одноразовых каналах.
// Свойства существующей очереди AMQP не возвращает, поэтому DescribeQueue
// использует Management API, если он задан. Без него DescribeQueue
// различает только "очереди нет" и "очередь есть" (ErrDescribeUnsupported).
type Admin struct {
	provider *Provider
	mgmt     *ManagementClient
	logger   *slog.Logger
}

// NewAdmin создаёт Admin. mgmt может быть nil.
func NewAdmin(provider *Provider, mgmt *ManagementClient, logger *slog.Logger) *Admin {
	return &Admin{
		provider: provider,
		mgmt:     mgmt,
		logger:   logger,
	}
}

// DescribeQueue возвращает свойства очереди или nil, если её нет.
func (a *Admin) DescribeQueue(ctx context.Context, name string) (*domain.QueueSpec, error) {
	if a.mgmt != nil {
		return a.mgmt.GetQueue(ctx, name)
	}

	// Пассивное объявление: 404 закрывает канал, поэтому канал одноразовый.
	err := a.provider.withChannel(func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclarePassive(name, false, false, false, false, nil)
		return err
	})

	mapped := mapError(err)
	switch {
	case err == nil:
		return nil, fmt.Errorf("describe queue %s: %w", name, broker.ErrDescribeUnsupported)
	case errors.Is(mapped, broker.ErrQueueNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("describe queue %s: %w", name, mapped)
	}
}

// DeclareQueue объявляет очередь.
// Если очередь уже есть с другими свойствами, брокер отвечает 406
// PRECONDITION_FAILED, что возвращается как broker.ErrPreconditionFailed.
func (a *Admin) DeclareQueue(ctx context.Context, spec domain.QueueSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := a.provider.withChannel(func(ch *amqp.Channel) error {
		_, err := ch.QueueDeclare(
			spec.Name,       // name
			spec.Durable,    // durable
			spec.AutoDelete, // delete when unused
			spec.Exclusive,  // exclusive
			false,           // no-wait
			nil,             // arguments
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", spec.Name, mapError(err))
	}

	a.logger.Debug("queue declared", "queue", spec.Name, "flags", spec.Flags())
	return nil
}

// DeleteQueue удаляет очередь вместе с сообщениями. Consumers очереди
// получают basic.cancel.
func (a *Admin) DeleteQueue(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := a.provider.withChannel(func(ch *amqp.Channel) error {
		_, err := ch.QueueDelete(
			name,  // name
			false, // if-unused
			false, // if-empty
			false, // no-wait
		)
		return err
	})

	mapped := mapError(err)
	switch {
	case err == nil:
		a.logger.Debug("queue deleted", "queue", name)
		return nil
	case errors.Is(mapped, broker.ErrQueueNotFound):
		return nil
	default:
		return fmt.Errorf("delete queue %s: %w", name, mapped)
	}
}
