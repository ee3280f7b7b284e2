package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/listener"
	"github.com/shaiso/Courier/internal/repo"
)

// Healthz — liveness: процесс отвечает.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz — readiness: все контейнеры в RUNNING или RECOVERING.
// GET /readyz
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ready"}
	status := http.StatusOK

	for _, c := range h.containers.Containers() {
		s := c.Status()
		if !s.Running {
			status = http.StatusServiceUnavailable
			resp.Status = "not ready"
		}
		resp.Containers = append(resp.Containers, ContainerFromStatus(s))
	}

	JSON(w, status, resp)
}

// ListContainers возвращает состояние всех контейнеров.
// GET /api/v1/containers
func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	containers := h.containers.Containers()

	result := make([]ContainerResponse, len(containers))
	for i, c := range containers {
		result[i] = ContainerFromStatus(c.Status())
	}

	List(w, result, len(result))
}

// GetContainer возвращает состояние контейнера.
// GET /api/v1/containers/{name}
func (h *Handler) GetContainer(w http.ResponseWriter, r *http.Request) {
	c, ok := h.containers.Container(r.PathValue("name"))
	if !ok {
		NotFound(w, "container not found")
		return
	}

	Success(w, ContainerFromStatus(c.Status()))
}

// StartContainer запускает остановленный контейнер (в том числе после SHUTDOWN_FATAL).
// POST /api/v1/containers/{name}/start
func (h *Handler) StartContainer(w http.ResponseWriter, r *http.Request) {
	c, ok := h.containers.Container(r.PathValue("name"))
	if !ok {
		NotFound(w, "container not found")
		return
	}

	if err := c.Start(h.baseCtx); err != nil {
		switch {
		case errors.Is(err, listener.ErrFatalStartup), errors.Is(err, listener.ErrTransientConnection):
			Conflict(w, err.Error())
		case errors.Is(err, listener.ErrContainerStopped):
			Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
		default:
			InternalError(w, h.logger, err)
		}
		return
	}

	Success(w, ContainerFromStatus(c.Status()))
}

// StopContainer останавливает контейнер.
// POST /api/v1/containers/{name}/stop
func (h *Handler) StopContainer(w http.ResponseWriter, r *http.Request) {
	c, ok := h.containers.Container(r.PathValue("name"))
	if !ok {
		NotFound(w, "container not found")
		return
	}

	c.Stop()
	Success(w, ContainerFromStatus(c.Status()))
}

// ListContainerEvents возвращает журнал переходов контейнера.
// GET /api/v1/containers/{name}/events?state=...&limit=...
func (h *Handler) ListContainerEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		NotImplemented(w, "event journal is disabled")
		return
	}

	filter := repo.EventFilter{
		Container: r.PathValue("name"),
		Limit:     50,
	}

	if state := r.URL.Query().Get("state"); state != "" {
		filter.State = domain.ContainerState(state)
		if !filter.State.IsValid() {
			BadRequest(w, "invalid state")
			return
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	events, err := h.events.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]EventResponse, len(events))
	for i, e := range events {
		result[i] = EventFromDomain(e)
	}

	List(w, result, len(result))
}
