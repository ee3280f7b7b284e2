// Package broker описывает внешних участников listener-контейнера.
//
// Контейнер не знает о конкретном брокере — он работает через интерфейсы:
//   - ConnectionProvider — выдаёт соединения (кэшированные или новые)
//   - Connection         — канал к брокеру: подписка на очереди, сигнал закрытия
//   - Subscription       — активный consumer на одной очереди
//   - Admin              — объявление, удаление и описание очередей
//
// Реализации:
//   - internal/mq            — RabbitMQ (amqp091-go + management API)
//   - internal/broker/memory — брокер в памяти для тестов
//
// Безопасность конкурентного доступа — ответственность реализаций:
// один Admin и один ConnectionProvider разделяются между контейнерами.
package broker
