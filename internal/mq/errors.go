package mq

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Courier/internal/broker"
)

// mapError переводит ошибки протокола AMQP в ошибки пакета broker.
// Исходная ошибка сохраняется в цепочке.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("%w: %w", broker.ErrConnectionClosed, err)
	}

	var aerr *amqp.Error
	if !errors.As(err, &aerr) {
		return err
	}

	switch aerr.Code {
	case amqp.PreconditionFailed:
		return fmt.Errorf("%w: %w", broker.ErrPreconditionFailed, err)
	case amqp.NotFound:
		return fmt.Errorf("%w: %w", broker.ErrQueueNotFound, err)
	case amqp.ResourceLocked:
		return fmt.Errorf("%w: %w", broker.ErrResourceLocked, err)
	case amqp.ConnectionForced, amqp.ChannelError:
		return fmt.Errorf("%w: %w", broker.ErrConnectionClosed, err)
	}
	return err
}
