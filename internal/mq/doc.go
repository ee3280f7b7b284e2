// Package mq реализует интерфейсы пакета broker поверх RabbitMQ (AMQP 0-9-1).
//
// Структура:
//   - connection.go — Provider: ленивое соединение, канал на каждый AcquireConnection
//   - consumer.go   — Session и Subscription: consumers с ручным ack
//   - topology.go   — Admin: объявление, удаление и описание очередей
//   - management.go — клиент Management HTTP API (свойства очередей)
//   - publisher.go  — публикация сообщений в очереди
//   - errors.go     — перевод кодов AMQP (404, 405, 406) в ошибки broker
//
// Удаление очереди на брокере приходит consumer'у как basic.cancel:
// канал Deliveries() закрывается, и контейнер запускает восстановление.
package mq
