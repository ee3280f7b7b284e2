package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/listener"
	"github.com/shaiso/Courier/internal/repo"
)

// Containers — источник контейнеров (listener.Registry).
type Containers interface {
	Containers() []*listener.Container
	Container(name string) (*listener.Container, bool)
	Running() bool
}

// EventStore — журнал переходов контейнеров (repo.EventRepo).
type EventStore interface {
	List(ctx context.Context, filter repo.EventFilter) ([]domain.ContainerEvent, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	containers Containers
	events     EventStore
	baseCtx    context.Context
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Containers Containers

	// Events — журнал событий; nil отключает /events.
	Events EventStore

	// BaseContext — контекст, в котором запускаются контейнеры через API.
	// Контейнер не должен жить в контексте HTTP запроса.
	BaseContext context.Context

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		containers: cfg.Containers,
		events:     cfg.Events,
		baseCtx:    baseCtx,
		logger:     logger,
	}
}
