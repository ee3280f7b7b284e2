// Package memory — брокер в памяти, реализующий интерфейсы пакета broker.
//
// Повторяет поведение RabbitMQ, важное для listener-контейнера:
//   - повторное объявление очереди с другими свойствами → ErrPreconditionFailed
//   - удаление очереди отменяет её consumers (каналы доставки закрываются)
//   - DropConnections закрывает все соединения с ошибкой
//
// Используется в тестах вместо реального брокера.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/Courier/internal/broker"
	"github.com/shaiso/Courier/internal/domain"
)

// ErrConnectionRefused — брокер отклонил подключение (см. FailConnections).
var ErrConnectionRefused = errors.New("connection refused")

// ErrDescribeFailed — сбой описания очереди (см. FailDescribes).
var ErrDescribeFailed = errors.New("describe failed")

const deliveryBuffer = 64

// Broker — брокер в памяти. Все методы потокобезопасны.
type Broker struct {
	mu sync.Mutex

	queues map[string]*queue
	conns  map[*Conn]struct{}

	// connected — "физическое" соединение установлено; сбрасывается DropConnections.
	connected bool

	failConnects  int
	failDescribes int

	describeCalls int
	declareCalls  int
	acked         int
}

type queue struct {
	spec      domain.QueueSpec
	backlog   []broker.Delivery
	consumers []*Subscription
	next      int
}

// New создаёт пустой брокер.
func New() *Broker {
	return &Broker{
		queues: make(map[string]*queue),
		conns:  make(map[*Conn]struct{}),
	}
}

// Admin возвращает администратора очередей этого брокера.
func (b *Broker) Admin() *Admin {
	return &Admin{b: b}
}

// Provider возвращает поставщика соединений этого брокера.
func (b *Broker) Provider() *Provider {
	return &Provider{b: b}
}

// FailConnections заставляет следующие n вызовов AcquireConnection вернуть ошибку.
func (b *Broker) FailConnections(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failConnects = n
}

// FailDescribes заставляет следующие n вызовов DescribeQueue вернуть ошибку.
func (b *Broker) FailDescribes(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDescribes = n
}

// DropConnections закрывает все открытые соединения с ошибкой
// (имитация разрыва TCP-соединения).
func (b *Broker) DropConnections() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.connected = false
	for c := range b.conns {
		b.closeConnLocked(c, ErrConnectionRefused)
	}
}

// Publish кладёт сообщение в очередь.
func (b *Broker) Publish(queueName string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[queueName]
	if !ok {
		return fmt.Errorf("publish to %s: %w", queueName, broker.ErrQueueNotFound)
	}

	d := broker.Delivery{
		Queue:       queueName,
		MessageID:   uuid.New().String(),
		ContentType: "application/octet-stream",
		Body:        body,
		Ack:         b.ack,
	}

	if !b.dispatchLocked(q, d) {
		q.backlog = append(q.backlog, d)
	}
	return nil
}

// QueueSpec возвращает свойства очереди (ok=false — очереди нет).
func (b *Broker) QueueSpec(name string) (domain.QueueSpec, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[name]
	if !ok {
		return domain.QueueSpec{}, false
	}
	return q.spec, true
}

// Consumers возвращает количество активных consumers на очереди.
func (b *Broker) Consumers(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if q, ok := b.queues[name]; ok {
		return len(q.consumers)
	}
	return 0
}

// OpenConnections возвращает количество открытых соединений.
func (b *Broker) OpenConnections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// DescribeCalls возвращает количество вызовов DescribeQueue.
func (b *Broker) DescribeCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.describeCalls
}

// DeclareCalls возвращает количество вызовов DeclareQueue.
func (b *Broker) DeclareCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.declareCalls
}

// Acked возвращает количество подтверждённых сообщений.
func (b *Broker) Acked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acked
}

func (b *Broker) ack() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked++
	return nil
}

// dispatchLocked отдаёт сообщение следующему consumer'у (round-robin).
// Возвращает false, если ни один consumer не принял сообщение.
func (b *Broker) dispatchLocked(q *queue, d broker.Delivery) bool {
	n := len(q.consumers)
	for i := 0; i < n; i++ {
		sub := q.consumers[(q.next+i)%n]
		select {
		case sub.ch <- d:
			q.next = (q.next + i + 1) % n
			return true
		default:
		}
	}
	return false
}

// flushLocked отдаёт накопленные сообщения consumers.
func (b *Broker) flushLocked(q *queue) {
	for len(q.backlog) > 0 {
		if !b.dispatchLocked(q, q.backlog[0]) {
			return
		}
		q.backlog = q.backlog[1:]
	}
}

// deleteQueueLocked удаляет очередь и отменяет её consumers.
func (b *Broker) deleteQueueLocked(name string) {
	q, ok := b.queues[name]
	if !ok {
		return
	}
	for _, sub := range q.consumers {
		sub.closeLocked()
	}
	q.consumers = nil
	delete(b.queues, name)
}

// closeConnLocked закрывает соединение: отменяет consumers
// и сигнализирует Closed().
func (b *Broker) closeConnLocked(c *Conn, cause error) {
	if c.closed {
		return
	}
	c.closed = true
	delete(b.conns, c)

	for _, q := range b.queues {
		kept := q.consumers[:0]
		for _, sub := range q.consumers {
			if sub.conn == c {
				sub.closeLocked()
				continue
			}
			kept = append(kept, sub)
		}
		q.consumers = kept
		q.next = 0
	}

	if cause != nil {
		c.closedCh <- cause
	}
	close(c.closedCh)
}

// Admin — администратор очередей брокера в памяти.
type Admin struct {
	b *Broker
}

// DescribeQueue возвращает свойства очереди или nil, если её нет.
func (a *Admin) DescribeQueue(_ context.Context, name string) (*domain.QueueSpec, error) {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	a.b.describeCalls++
	if a.b.failDescribes > 0 {
		a.b.failDescribes--
		return nil, fmt.Errorf("describe queue %s: %w", name, ErrDescribeFailed)
	}

	q, ok := a.b.queues[name]
	if !ok {
		return nil, nil
	}
	spec := q.spec
	return &spec, nil
}

// DeclareQueue объявляет очередь. Существующая очередь с другими
// свойствами → broker.ErrPreconditionFailed.
func (a *Admin) DeclareQueue(_ context.Context, spec domain.QueueSpec) error {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	a.b.declareCalls++
	if q, ok := a.b.queues[spec.Name]; ok {
		if !q.spec.Matches(spec) {
			return fmt.Errorf("declare queue %s (%s, existing %s): %w",
				spec.Name, spec.Flags(), q.spec.Flags(), broker.ErrPreconditionFailed)
		}
		return nil
	}

	a.b.queues[spec.Name] = &queue{spec: spec}
	return nil
}

// DeleteQueue удаляет очередь; consumers получают отмену.
func (a *Admin) DeleteQueue(_ context.Context, name string) error {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	a.b.deleteQueueLocked(name)
	return nil
}

// Provider — поставщик соединений брокера в памяти.
type Provider struct {
	b *Broker
}

// AcquireConnection открывает новый канал поверх общего соединения.
func (p *Provider) AcquireConnection(ctx context.Context) (broker.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := p.b
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failConnects > 0 {
		b.failConnects--
		return nil, ErrConnectionRefused
	}

	isNew := !b.connected
	b.connected = true

	c := &Conn{
		b:        b,
		isNew:    isNew,
		closedCh: make(chan error, 1),
	}
	b.conns[c] = struct{}{}
	return c, nil
}

// Conn — канал брокера в памяти.
type Conn struct {
	b        *Broker
	isNew    bool
	closed   bool
	closedCh chan error
}

// Consume подписывается на очередь.
func (c *Conn) Consume(_ context.Context, name string) (broker.Subscription, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if c.closed {
		return nil, broker.ErrConnectionClosed
	}

	q, ok := c.b.queues[name]
	if !ok {
		return nil, fmt.Errorf("consume %s: %w", name, broker.ErrQueueNotFound)
	}

	sub := &Subscription{
		b:     c.b,
		conn:  c,
		queue: name,
		tag:   "memory-" + uuid.New().String(),
		ch:    make(chan broker.Delivery, deliveryBuffer),
	}
	q.consumers = append(q.consumers, sub)
	c.b.flushLocked(q)

	return sub, nil
}

// Closed закрывается при закрытии соединения.
func (c *Conn) Closed() <-chan error {
	return c.closedCh
}

// New сообщает, было ли соединение установлено заново.
func (c *Conn) New() bool {
	return c.isNew
}

// Close закрывает канал и отменяет его consumers.
func (c *Conn) Close() error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	c.b.closeConnLocked(c, nil)
	return nil
}

// Subscription — consumer брокера в памяти.
type Subscription struct {
	b      *Broker
	conn   *Conn
	queue  string
	tag    string
	ch     chan broker.Delivery
	closed bool
}

// Queue возвращает имя очереди.
func (s *Subscription) Queue() string {
	return s.queue
}

// Tag возвращает consumer tag.
func (s *Subscription) Tag() string {
	return s.tag
}

// Deliveries возвращает канал сообщений.
func (s *Subscription) Deliveries() <-chan broker.Delivery {
	return s.ch
}

// Cancel отменяет consumer.
func (s *Subscription) Cancel() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if s.closed {
		return nil
	}
	if q, ok := s.b.queues[s.queue]; ok {
		kept := q.consumers[:0]
		for _, sub := range q.consumers {
			if sub != s {
				kept = append(kept, sub)
			}
		}
		q.consumers = kept
		q.next = 0
	}
	s.closeLocked()
	return nil
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
