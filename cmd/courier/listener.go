package main

import (
	"context"
	"log/slog"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/listener"
)

// newLogListener возвращает listener, который только логирует сообщения.
func newLogListener(logger *slog.Logger) listener.MessageListener {
	return listener.ListenerFunc(func(ctx context.Context, d broker.Delivery) {
		logger.Info("message received",
			"queue", d.Queue,
			"message_id", d.MessageID,
			"content_type", d.ContentType,
			"size", len(d.Body),
		)
	})
}
