// Package api содержит HTTP API демона.
//
// Структура:
//   - handler.go           — Handler с DI (контейнеры, журнал событий, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (logging, recovery)
//   - response.go          — унифицированные JSON-ответы и обработка ошибок
//   - dto.go               — Data Transfer Objects
//   - container_handler.go — probes и обработчики для /containers
//
// /readyz отвечает 503, пока хотя бы один контейнер не в RUNNING/RECOVERING.
package api
