// Package listener реализует listener-контейнер и проверку очередей.
//
// # Обзор
//
// Container владеет consumers одного или нескольких очередей:
// получает соединение у broker.ConnectionProvider, сверяет свойства очередей
// с брокером через broker.Admin и передаёт сообщения MessageListener.
//
// # Состояния
//
//	STOPPED → STARTING → RUNNING ⇄ RECOVERING
//	STARTING, RECOVERING → SHUTDOWN_FATAL
//	любое → STOPPED (Stop)
//
// Переходы выполняются по одному: Start, Stop и фоновая lifecycle-горутина
// берут общий мьютекс переходов. Consumers работают в отдельных горутинах.
//
// # Проверка очередей
//
// Detector сравнивает ожидаемую domain.QueueSpec с тем, что сообщает брокер.
// Отсутствие очереди или любой отличающийся флаг — несоответствие.
// Проверка выполняется заново на каждой попытке старта и периодически
// во время работы (Config.VerifyInterval):
//
//   - MismatchedQueuesFatal=true: при старте — ошибка KindFatalStartup,
//     во время работы — RECOVERING → SHUTDOWN_FATAL, IsRunning() == false
//   - MismatchedQueuesFatal=false: несоответствие логируется, контейнер
//     работает с совпадающими очередями (degraded)
//
// # Привязка администратора
//
// При MismatchedQueuesFatal=true нужен ровно один администратор:
// внедрённый в Config.Admin или единственный в Registry. Иначе создание
// контейнера возвращает ошибку KindConfiguration ("found: N").
//
//	reg := listener.NewRegistry(logger)
//	reg.AddAdmin(admin)
//
//	cfg := listener.DefaultConfig()
//	cfg.Name = "orders"
//	cfg.Queues = []domain.QueueSpec{domain.DurableQueue("orders")}
//	cfg.MismatchedQueuesFatal = true
//	cfg.Provider = provider
//	cfg.Listener = listener.ListenerFunc(handle)
//
//	if _, err := reg.NewContainer(cfg); err != nil {
//	    return err
//	}
//	if err := reg.Start(ctx); err != nil {
//	    return err // errors.Is(err, listener.ErrFatalStartup)
//	}
//	defer reg.Stop()
//
// # Ошибки
//
// Все ошибки контейнера — *Error с полем Kind и исходной причиной в Err:
//   - KindConfiguration — синхронно при создании
//   - KindFatalStartup — синхронно из Start
//   - KindTransientConnection — попытки соединения исчерпаны
//   - KindRuntimeMismatch — асинхронно, доступна через Container.Err()
package listener
