package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Courier/internal/broker"
)

// Registry — контекст запуска: доступные администраторы и созданные контейнеры.
//
// NewContainer проверяет конфигурацию синхронно (ResolveAdmin), поэтому
// ошибка привязки администратора прерывает сборку до старта consumers.
// Start запускает контейнеры по порядку; первая ошибка останавливает
// уже запущенные и возвращается вызывающему.
type Registry struct {
	mu         sync.Mutex
	admins     []broker.Admin
	containers []*Container
	logger     *slog.Logger
}

// NewRegistry создаёт пустой Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// AddAdmin регистрирует администратора.
func (r *Registry) AddAdmin(admin broker.Admin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admins = append(r.admins, admin)
}

// Admins возвращает зарегистрированных администраторов.
func (r *Registry) Admins() []broker.Admin {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broker.Admin(nil), r.admins...)
}

// NewContainer создаёт контейнер и регистрирует его.
// Администратор ищется среди зарегистрированных, если не внедрён явно.
func (r *Registry) NewContainer(cfg Config) (*Container, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}

	c, err := newContainer(cfg, r.admins)
	if err != nil {
		return nil, err
	}

	for _, existing := range r.containers {
		if existing.Name() == c.Name() {
			return nil, newError(KindConfiguration, c.Name(), fmt.Errorf("duplicate container name %q", c.Name()))
		}
	}

	r.containers = append(r.containers, c)
	return c, nil
}

// Containers возвращает зарегистрированные контейнеры.
func (r *Registry) Containers() []*Container {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Container(nil), r.containers...)
}

// Container возвращает контейнер по имени.
func (r *Registry) Container(name string) (*Container, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.containers {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Start запускает все контейнеры. При ошибке останавливает уже
// запущенные (в обратном порядке) и возвращает ошибку контейнера как есть.
func (r *Registry) Start(ctx context.Context) error {
	containers := r.Containers()

	for i, c := range containers {
		if err := c.Start(ctx); err != nil {
			r.logger.Error("container failed to start, aborting",
				"container", c.Name(),
				"error", err,
			)
			for j := i - 1; j >= 0; j-- {
				containers[j].Stop()
			}
			return err
		}
	}

	r.logger.Info("all containers started", "count", len(containers))
	return nil
}

// Stop останавливает все контейнеры в обратном порядке.
func (r *Registry) Stop() {
	containers := r.Containers()
	for i := len(containers) - 1; i >= 0; i-- {
		containers[i].Stop()
	}
}

// Running возвращает true, если все контейнеры работают.
func (r *Registry) Running() bool {
	for _, c := range r.Containers() {
		if !c.IsRunning() {
			return false
		}
	}
	return true
}
