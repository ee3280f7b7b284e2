package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContainerEvent — запись о переходе контейнера между состояниями.
type ContainerEvent struct {
	// ID — уникальный идентификатор события.
	ID uuid.UUID `json:"id"`

	// Container — имя контейнера.
	Container string `json:"container"`

	// From — состояние до перехода.
	From ContainerState `json:"from"`

	// To — состояние после перехода.
	To ContainerState `json:"to"`

	// Reason — причина перехода (например, "start requested").
	Reason string `json:"reason,omitempty"`

	// Error — текст ошибки, если переход вызван ошибкой.
	Error string `json:"error,omitempty"`

	// OccurredAt — время перехода.
	OccurredAt time.Time `json:"occurred_at"`
}
