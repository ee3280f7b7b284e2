package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/listener"
)

// ContainerResponse — ответ с состоянием контейнера.
type ContainerResponse struct {
	Name                  string   `json:"name"`
	State                 string   `json:"state"`
	Running               bool     `json:"running"`
	MismatchedQueuesFatal bool     `json:"mismatched_queues_fatal"`
	Queues                []string `json:"queues"`
	Consuming             []string `json:"consuming"`
	Error                 string   `json:"error,omitempty"`
}

// ContainerFromStatus конвертирует listener.Status в ContainerResponse.
func ContainerFromStatus(s listener.Status) ContainerResponse {
	return ContainerResponse{
		Name:                  s.Name,
		State:                 string(s.State),
		Running:               s.Running,
		MismatchedQueuesFatal: s.Fatal,
		Queues:                s.Queues,
		Consuming:             s.Consuming,
		Error:                 s.Error,
	}
}

// EventResponse — ответ с событием журнала.
type EventResponse struct {
	ID         uuid.UUID `json:"id"`
	Container  string    `json:"container"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventFromDomain конвертирует domain.ContainerEvent в EventResponse.
func EventFromDomain(e domain.ContainerEvent) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Container:  e.Container,
		From:       string(e.From),
		To:         string(e.To),
		Reason:     e.Reason,
		Error:      e.Error,
		OccurredAt: e.OccurredAt,
	}
}

// HealthResponse — ответ /healthz и /readyz.
type HealthResponse struct {
	Status     string              `json:"status"`
	Containers []ContainerResponse `json:"containers,omitempty"`
}
