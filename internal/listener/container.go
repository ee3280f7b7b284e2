package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/telemetry"
)

// Container — listener-контейнер: владеет consumers одного или нескольких
// очередей и их жизненным циклом.
//
// Container:
//   - При старте получает соединение, сверяет очереди с брокером (Detector)
//     и только после этого подписывается на них
//   - Во время работы следит за отменой consumers, потерей соединения
//     и периодически перепроверяет очереди
//   - При фатальном несоответствии переходит в SHUTDOWN_FATAL
//
// Переходы сериализованы: в каждый момент выполняется не больше одного.
type Container struct {
	name     string
	queues   []domain.QueueSpec
	fatal    bool
	admin    broker.Admin
	provider broker.ConnectionProvider
	listener MessageListener
	detector *Detector

	autoDeclare    bool
	concurrency    int
	verifyInterval time.Duration
	retry          RetryPolicy

	sink    EventSink
	metrics *telemetry.Metrics
	logger  *slog.Logger

	// transMu сериализует переходы состояния. run защищён им же.
	transMu sync.Mutex
	run     *run

	mu        sync.RWMutex
	state     domain.ContainerState
	lastErr   error
	consuming []string
	cancel    context.CancelFunc
	done      chan struct{}

	// lost — сигнал от consumers о потере подписки или соединения.
	lost chan string
}

// run — подписки одной успешной попытки старта.
type run struct {
	conn   broker.Connection
	subs   []broker.Subscription
	queues []string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Status — снимок состояния контейнера.
type Status struct {
	Name      string                `json:"name"`
	State     domain.ContainerState `json:"state"`
	Running   bool                  `json:"running"`
	Fatal     bool                  `json:"mismatched_queues_fatal"`
	Queues    []string              `json:"queues"`
	Consuming []string              `json:"consuming"`
	Error     string                `json:"error,omitempty"`
}

// New создаёт контейнер с явно внедрённым администратором (или без него).
//
// Если MismatchedQueuesFatal=true и Admin не задан, возвращает ошибку
// KindConfiguration (found: 0). Для поиска администратора среди
// зарегистрированных используйте Registry.NewContainer.
func New(cfg Config) (*Container, error) {
	return newContainer(cfg, nil)
}

func newContainer(cfg Config, available []broker.Admin) (*Container, error) {
	name := cfg.Name
	if name == "" {
		name = "container-" + uuid.NewString()[:8]
	}

	switch {
	case cfg.Provider == nil:
		return nil, newError(KindConfiguration, name, ErrNoProvider)
	case cfg.Listener == nil:
		return nil, newError(KindConfiguration, name, ErrNoListener)
	case len(cfg.Queues) == 0:
		return nil, newError(KindConfiguration, name, ErrNoQueues)
	}

	admin, err := ResolveAdmin(name, cfg.MismatchedQueuesFatal, cfg.Admin, available)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	verifyInterval := cfg.VerifyInterval
	if verifyInterval == 0 {
		verifyInterval = defaultVerifyInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		name:           name,
		queues:         append([]domain.QueueSpec(nil), cfg.Queues...),
		fatal:          cfg.MismatchedQueuesFatal,
		admin:          admin,
		provider:       cfg.Provider,
		listener:       cfg.Listener,
		autoDeclare:    cfg.AutoDeclare,
		concurrency:    concurrency,
		verifyInterval: verifyInterval,
		retry:          cfg.Retry,
		sink:           cfg.EventSink,
		metrics:        cfg.Metrics,
		logger:         telemetry.WithContainer(logger, name),
		state:          domain.StateStopped,
		lost:           make(chan string, 1),
	}
	if admin != nil {
		c.detector = NewDetector(admin, c.fatal)
	}
	c.metrics.SetState(name, domain.StateStopped)

	return c, nil
}

// Name возвращает имя контейнера.
func (c *Container) Name() string {
	return c.name
}

// Admin возвращает привязанного администратора (может быть nil).
func (c *Container) Admin() broker.Admin {
	return c.admin
}

// State возвращает текущее состояние.
func (c *Container) State() domain.ContainerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsRunning возвращает true в состояниях RUNNING и RECOVERING.
func (c *Container) IsRunning() bool {
	return c.State().IsActive()
}

// Err возвращает ошибку, которая перевела контейнер в SHUTDOWN_FATAL.
func (c *Container) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Status возвращает снимок состояния.
func (c *Container) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Status{
		Name:      c.name,
		State:     c.state,
		Running:   c.state.IsActive(),
		Fatal:     c.fatal,
		Queues:    make([]string, len(c.queues)),
		Consuming: append([]string{}, c.consuming...),
	}
	for i, q := range c.queues {
		s.Queues[i] = q.Name
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

// Start запускает контейнер.
//
// Получает соединение (с повторами по RetryPolicy), сверяет очереди
// и запускает consumers. Фатальное несоответствие возвращается
// синхронно как ошибка KindFatalStartup. ctx ограничивает и старт,
// и всю дальнейшую работу контейнера.
//
// Повторный Start работающего контейнера — no-op. Start из SHUTDOWN_FATAL —
// явный перезапуск.
func (c *Container) Start(ctx context.Context) error {
	c.transMu.Lock()
	defer c.transMu.Unlock()

	if c.State().IsActive() {
		return nil
	}

	// Сигналы от предыдущего запуска больше не актуальны.
	select {
	case <-c.lost:
	default:
	}

	lifeCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("starting container",
		"queues", c.queueNames(),
		"mismatched_queues_fatal", c.fatal,
		"admin", c.admin != nil,
	)
	c.transition(domain.StateStarting, "start requested", nil)

	r, err := c.startAttempt(lifeCtx, true)
	if err != nil {
		cancel()
		if lifeCtx.Err() != nil {
			c.transition(domain.StateStopped, "start cancelled", nil)
			return fmt.Errorf("%w: %w", ErrContainerStopped, lifeCtx.Err())
		}
		c.setErr(err)
		c.transition(domain.StateShutdownFatal, "start failed", err)
		return err
	}

	c.setRun(r)
	c.transition(domain.StateRunning, "consumers started", nil)

	done := make(chan struct{})
	c.mu.Lock()
	c.done = done
	c.mu.Unlock()

	go c.lifecycle(lifeCtx, cancel, done)
	return nil
}

// Stop останавливает контейнер: отменяет consumers на брокере,
// дожидается завершения workers и освобождает соединение.
// Stop остановленного контейнера — no-op.
func (c *Container) Stop() {
	c.mu.RLock()
	cancel, done := c.cancel, c.done
	c.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	c.transMu.Lock()
	defer c.transMu.Unlock()

	if c.run != nil {
		c.teardown(c.run)
		c.setRun(nil)
	}

	if c.State() == domain.StateStopped {
		return
	}
	c.transition(domain.StateStopped, "stop requested", nil)
}

// lifecycle — фоновая задача контейнера: реагирует на потерю consumers
// и периодически перепроверяет очереди.
func (c *Container) lifecycle(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	var tick <-chan time.Time
	if c.verifyInterval > 0 {
		ticker := time.NewTicker(c.verifyInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case reason := <-c.lost:
			c.restart(ctx, reason)
		case <-tick:
			c.verify(ctx)
		}

		if c.State() == domain.StateShutdownFatal {
			c.logger.Error("container shut down", "error", c.Err())
			return
		}
	}
}

// shutdown завершает текущий run после отмены контекста.
func (c *Container) shutdown() {
	c.transMu.Lock()
	defer c.transMu.Unlock()

	if c.run != nil {
		c.teardown(c.run)
		c.setRun(nil)
	}
	if c.State().IsActive() {
		c.transition(domain.StateStopped, "stop requested", nil)
	}
}

// restart перезапускает consumers: RUNNING → RECOVERING → повторная
// проверка очередей → RUNNING или SHUTDOWN_FATAL.
func (c *Container) restart(ctx context.Context, reason string) {
	c.transMu.Lock()
	defer c.transMu.Unlock()

	if c.State() != domain.StateRunning || ctx.Err() != nil {
		return
	}

	c.transition(domain.StateRecovering, reason, nil)
	if c.run != nil {
		c.teardown(c.run)
		c.setRun(nil)
	}

	r, err := c.startAttempt(ctx, false)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		var lerr *Error
		if errors.As(err, &lerr) && lerr.Kind == KindFatalStartup {
			err = newError(KindRuntimeMismatch, c.name, lerr.Err)
		}
		c.setErr(err)
		c.transition(domain.StateShutdownFatal, "recovery failed", err)
		return
	}

	c.setRun(r)

	// Сигналы от consumers предыдущего run больше не актуальны.
	select {
	case <-c.lost:
	default:
	}

	c.transition(domain.StateRunning, "consumers restarted", nil)
}

// verify перепроверяет очереди во время работы.
func (c *Container) verify(ctx context.Context) {
	if c.detector == nil || c.State() != domain.StateRunning {
		return
	}

	reports, err := c.detector.DetectAll(ctx, c.queues)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("queue verification failed", "error", err)
		}
		return
	}

	mismatched := Mismatched(reports)
	if len(mismatched) > 0 {
		c.reportMismatches(ctx, mismatched)
		if c.fatal {
			c.restart(ctx, "queue mismatch detected")
		}
		return
	}

	// Все очереди в порядке, но часть не потребляется (degraded) —
	// перезапускаем consumers, чтобы подписаться на них.
	if len(c.consumingNames()) < len(c.queues) {
		c.restart(ctx, "degraded queues available")
	}
}

// startAttempt выполняет попытку старта с повторами по RetryPolicy.
// Несоответствие очередей не повторяется.
func (c *Container) startAttempt(ctx context.Context, initial bool) (*run, error) {
	for attempt := 1; ; attempt++ {
		r, err := c.tryStart(ctx, initial)
		if err == nil {
			return r, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var lerr *Error
		if errors.As(err, &lerr) && lerr.Kind == KindFatalStartup {
			return nil, err
		}

		if c.retry.Exhausted(attempt) {
			return nil, newError(KindTransientConnection, c.name,
				fmt.Errorf("giving up after %d attempts: %w", attempt, err))
		}

		delay := c.retry.Delay(attempt)
		c.logger.Warn("start attempt failed, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// tryStart — одна попытка: соединение → объявление → проверка → подписка.
func (c *Container) tryStart(ctx context.Context, initial bool) (*run, error) {
	conn, err := c.provider.AcquireConnection(ctx)
	c.metrics.ConnectionAttempt(c.name, err)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if c.autoDeclare && c.admin != nil && (initial || conn.New()) {
		c.declareQueues(ctx)
	}

	consumable := c.queues
	if c.detector != nil {
		reports, err := c.detector.DetectAll(ctx, c.queues)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}

		mismatched := Mismatched(reports)
		c.reportMismatches(ctx, mismatched)

		if c.fatal && HasFatal(reports) {
			_ = conn.Close()
			return nil, newError(KindFatalStartup, c.name, &MismatchError{Reports: mismatched})
		}

		consumable = make([]domain.QueueSpec, 0, len(reports))
		for _, r := range reports {
			if !r.Mismatch {
				consumable = append(consumable, r.Expected)
			}
		}
	}

	return c.subscribe(ctx, conn, consumable)
}

// declareQueues объявляет ожидаемые очереди. Отказ брокера не прерывает
// старт: несоответствие обнаружит Detector.
func (c *Container) declareQueues(ctx context.Context) {
	for _, q := range c.queues {
		err := c.admin.DeclareQueue(ctx, q)
		switch {
		case err == nil:
			c.logger.Debug("queue declared", "queue", q.Name, "flags", q.Flags())
		case errors.Is(err, broker.ErrPreconditionFailed):
			c.logger.Warn("queue exists with different properties", "queue", q.Name, "error", err)
		default:
			c.logger.Warn("failed to declare queue", "queue", q.Name, "error", err)
		}
	}
}

func (c *Container) reportMismatches(ctx context.Context, reports []domain.MismatchReport) {
	for _, r := range reports {
		c.metrics.Mismatch(c.name, r.Queue)

		observed := "absent"
		if r.Observed != nil {
			observed = r.Observed.Flags()
		}

		level := slog.LevelWarn
		if r.Fatal {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "queue mismatch",
			"queue", r.Queue,
			"expected", r.Expected.Flags(),
			"observed", observed,
			"fatal", r.Fatal,
		)
	}
}

// subscribe создаёт consumers и только после этого запускает workers.
// При ошибке освобождает соединение.
func (c *Container) subscribe(ctx context.Context, conn broker.Connection, queues []domain.QueueSpec) (*run, error) {
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{conn: conn, cancel: cancel}

	for _, q := range queues {
		for i := 0; i < c.concurrency; i++ {
			sub, err := conn.Consume(runCtx, q.Name)
			if err != nil {
				c.teardown(r)
				return nil, fmt.Errorf("consume %s: %w", q.Name, err)
			}
			r.subs = append(r.subs, sub)
		}
		r.queues = append(r.queues, q.Name)
	}

	for _, sub := range r.subs {
		r.wg.Add(1)
		go c.consume(runCtx, r, sub)
	}

	r.wg.Add(1)
	go c.watchConnection(runCtx, r)

	c.logger.Info("consumers started", "queues", r.queues, "consumers", len(r.subs))
	return r, nil
}

// teardown отменяет consumers, ждёт workers и закрывает соединение.
func (c *Container) teardown(r *run) {
	r.cancel()
	for _, sub := range r.subs {
		if err := sub.Cancel(); err != nil {
			c.logger.Warn("failed to cancel consumer", "queue", sub.Queue(), "error", err)
		}
	}
	r.wg.Wait()

	if err := r.conn.Close(); err != nil {
		c.logger.Debug("failed to close connection", "error", err)
	}
}

// consume — worker одного consumer'а.
func (c *Container) consume(ctx context.Context, r *run, sub broker.Subscription) {
	defer r.wg.Done()

	logger := telemetry.WithQueue(c.logger, sub.Queue())
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-sub.Deliveries():
			if !ok {
				if ctx.Err() == nil {
					logger.Warn("consumer cancelled by broker")
					c.signalLost("consumer cancelled: " + sub.Queue())
				}
				return
			}
			c.dispatch(ctx, logger, d)
		}
	}
}

// dispatch передаёт сообщение listener'у и подтверждает его.
func (c *Container) dispatch(ctx context.Context, logger *slog.Logger, d broker.Delivery) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("listener panic", "panic", p, "message_id", d.MessageID)
		}
		if d.Ack != nil {
			if err := d.Ack(); err != nil {
				logger.Warn("failed to ack message", "message_id", d.MessageID, "error", err)
			}
		}
	}()

	c.metrics.Delivery(c.name, d.Queue)
	c.listener.OnMessage(ctx, d)
}

// watchConnection сигнализирует о потере соединения.
func (c *Container) watchConnection(ctx context.Context, r *run) {
	defer r.wg.Done()

	select {
	case <-ctx.Done():
	case err := <-r.conn.Closed():
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("connection lost", "error", err)
		c.signalLost("connection lost")
	}
}

func (c *Container) signalLost(reason string) {
	select {
	case c.lost <- reason:
	default:
	}
}

// transition меняет состояние, обновляет метрики и журнал.
// Вызывается только под transMu.
func (c *Container) transition(to domain.ContainerState, reason string, cause error) {
	c.mu.Lock()
	from := c.state
	if !from.CanTransitionTo(to) {
		c.mu.Unlock()
		c.logger.Error("state change rejected",
			"error", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to),
			"reason", reason,
		)
		return
	}
	c.state = to
	c.mu.Unlock()

	c.metrics.Transition(c.name, from, to)

	level := slog.LevelInfo
	attrs := []any{"from", from, "to", to, "reason", reason}
	if cause != nil {
		level = slog.LevelError
		attrs = append(attrs, "error", cause)
	}
	c.logger.Log(context.Background(), level, "container state changed", attrs...)

	c.record(from, to, reason, cause)
}

func (c *Container) record(from, to domain.ContainerState, reason string, cause error) {
	if c.sink == nil {
		return
	}

	event := domain.ContainerEvent{
		ID:         uuid.New(),
		Container:  c.name,
		From:       from,
		To:         to,
		Reason:     reason,
		OccurredAt: time.Now(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSinkTimeout)
	defer cancel()
	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Warn("failed to record container event", "error", err)
	}
}

func (c *Container) setRun(r *run) {
	c.run = r

	c.mu.Lock()
	defer c.mu.Unlock()
	if r == nil {
		c.consuming = nil
		return
	}
	c.consuming = append([]string(nil), r.queues...)
}

func (c *Container) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

func (c *Container) consumingNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consuming
}

func (c *Container) queueNames() []string {
	names := make([]string, len(c.queues))
	for i, q := range c.queues {
		names[i] = q.Name
	}
	return names
}
