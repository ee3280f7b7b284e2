package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Probes и метрики без логирования запросов
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Containers
	mux.Handle("GET /api/v1/containers", chain(http.HandlerFunc(h.ListContainers)))
	mux.Handle("GET /api/v1/containers/{name}", chain(http.HandlerFunc(h.GetContainer)))
	mux.Handle("POST /api/v1/containers/{name}/start", chain(http.HandlerFunc(h.StartContainer)))
	mux.Handle("POST /api/v1/containers/{name}/stop", chain(http.HandlerFunc(h.StopContainer)))
	mux.Handle("GET /api/v1/containers/{name}/events", chain(http.HandlerFunc(h.ListContainerEvents)))
}
