package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher публикует сообщения напрямую в очереди (default exchange).
type Publisher struct {
	provider *Provider
	logger   *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(provider *Provider, logger *slog.Logger) *Publisher {
	return &Publisher{
		provider: provider,
		logger:   logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — идентификатор сообщения; пустой генерируется.
	ID string

	// ContentType — MIME-тип тела (по умолчанию application/json).
	ContentType string

	// Body — тело сообщения.
	Body []byte
}

// Publish публикует сообщение в очередь и возвращает его ID.
func (p *Publisher) Publish(ctx context.Context, queue string, msg Message) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.ContentType == "" {
		msg.ContentType = "application/json"
	}

	err := p.provider.withChannel(func(ch *amqp.Channel) error {
		return ch.PublishWithContext(
			ctx,
			"",    // exchange (default)
			queue, // routing key
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  msg.ContentType,
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    time.Now(),
				Body:         msg.Body,
			},
		)
	})
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", queue, mapError(err))
	}

	p.logger.Debug("published message",
		"queue", queue,
		"message_id", msg.ID,
		"content_type", msg.ContentType,
	)

	return msg.ID, nil
}
