package broker

import "errors"

// Ошибки брокера.
var (
	// ErrPreconditionFailed — очередь уже существует с другими свойствами.
	ErrPreconditionFailed = errors.New("precondition failed: queue exists with different properties")

	// ErrQueueNotFound — очереди нет на брокере.
	ErrQueueNotFound = errors.New("queue not found")

	// ErrDescribeUnsupported — администратор не может получить свойства очереди.
	ErrDescribeUnsupported = errors.New("queue description unsupported")

	// ErrConnectionClosed — соединение закрыто.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrResourceLocked — эксклюзивная очередь принадлежит другому соединению.
	ErrResourceLocked = errors.New("resource locked")
)
