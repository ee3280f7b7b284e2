// Courier — демон listener-контейнеров RabbitMQ.
//
// Courier:
//   - Сверяет ожидаемые очереди с брокером до старта consumers
//   - При несоответствии в режиме MISMATCHED_QUEUES_FATAL прерывает запуск
//   - Во время работы восстанавливает consumers после потери соединения
//     и останавливает контейнер, если очередь пересоздана с другими свойствами
//   - Отдаёт состояние через HTTP (/healthz, /readyz, /api/v1/containers, /metrics)
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/Courier/internal/api"
	"github.com/shaiso/Courier/internal/config"
	"github.com/shaiso/Courier/internal/listener"
	"github.com/shaiso/Courier/internal/mq"
	"github.com/shaiso/Courier/internal/repo"
	"github.com/shaiso/Courier/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting courier")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics(nil)

	// RabbitMQ
	provider := mq.NewProvider(mq.ProviderConfig{
		URL:      cfg.RabbitMQ.URL,
		Name:     cfg.Name,
		Prefetch: cfg.RabbitMQ.Prefetch,
	}, logger)
	defer provider.Close()

	reg := listener.NewRegistry(logger)

	// Администратор регистрируется только с Management API: без него
	// свойства существующей очереди не прочитать.
	if cfg.RabbitMQ.ManagementURL != "" {
		mgmt, err := mq.NewManagementClient(cfg.RabbitMQ.ManagementURL, cfg.RabbitMQ.VHost)
		if err != nil {
			logger.Error("invalid management url", "error", err)
			os.Exit(1)
		}
		reg.AddAdmin(mq.NewAdmin(provider, mgmt, logger))
	} else {
		logger.Warn("RABBITMQ_MANAGEMENT_URL not set, queues will not be verified")
	}

	// Журнал событий (опционально)
	var events *repo.EventRepo
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		events = repo.NewEventRepo(pool)
		if err := events.EnsureSchema(ctx); err != nil {
			logger.Error("failed to create schema", "error", err)
			os.Exit(1)
		}
		logger.Info("event journal enabled")
	}

	lcfg := listener.DefaultConfig()
	lcfg.Name = cfg.Name
	lcfg.Queues = cfg.Queues
	lcfg.MismatchedQueuesFatal = cfg.MismatchedQueuesFatal
	lcfg.AutoDeclare = cfg.AutoDeclare
	lcfg.Concurrency = cfg.Concurrency
	lcfg.VerifyInterval = cfg.VerifyInterval
	lcfg.Retry = cfg.Retry
	lcfg.Provider = provider
	lcfg.Listener = newLogListener(logger)
	lcfg.Metrics = metrics
	lcfg.Logger = logger
	if events != nil {
		lcfg.EventSink = events
	}

	// Ошибка конфигурации (например, нет администратора при
	// MISMATCHED_QUEUES_FATAL) прерывает запуск до подключения к брокеру.
	if _, err := reg.NewContainer(lcfg); err != nil {
		logger.Error("failed to create container", "error", err)
		os.Exit(1)
	}

	// HTTP API
	apiCfg := api.Config{
		Containers:  reg,
		BaseContext: ctx,
		Logger:      logger,
	}
	if events != nil {
		apiCfg.Events = events
	}
	handler := api.NewHandler(apiCfg)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Запускаем контейнеры: первая ошибка прерывает bootstrap
	if err := reg.Start(ctx); err != nil {
		logger.Error("bootstrap aborted", "error", err)
		shutdown(server, logger)
		reg.Stop()
		os.Exit(1)
	}

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	reg.Stop()
	shutdown(server, logger)
	logger.Info("courier stopped")
}

// shutdown останавливает HTTP сервер с таймаутом 10 секунд.
func shutdown(server *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
