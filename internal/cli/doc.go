// Package cli реализует инструмент командной строки courier-cli.
//
// # Обзор
//
// Команды делятся на две группы:
//   - status, container, events — работают через HTTP API демона
//   - queue, publish — работают напрямую с RabbitMQ
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API демона. Инкапсулирует HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8090")
//	containers, err := client.ListContainers()
//
// ## Broker
//
// Admin и Publisher для прямых команд. queue check использует тот же
// Detector, что и контейнер, поэтому показывает ровно то, что увидит
// контейнер при старте.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: courier-cli status --json | jq .
//
// ## Commands
//
// Каждая группа создаётся через фабричную функцию (NewQueueCmd и т.д.),
// принимающую clientFn/brokerFn и outputFn — замыкания для ленивого
// создания зависимостей после парсинга PersistentFlags.
package cli
