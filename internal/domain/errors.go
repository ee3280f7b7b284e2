package domain

import "errors"

// Ошибки разбора доменных значений.
var (
	// ErrEmptyQueueName — в спецификации очереди не указано имя.
	ErrEmptyQueueName = errors.New("empty queue name")

	// ErrDuplicateQueue — очередь указана дважды.
	ErrDuplicateQueue = errors.New("duplicate queue")
)
