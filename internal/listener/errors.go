package listener

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shaiso/Courier/internal/domain"
)

// ErrorKind — категория ошибки контейнера.
type ErrorKind string

const (
	// KindConfiguration — неоднозначная или отсутствующая привязка администратора.
	// Возникает при создании контейнера, не повторяется.
	KindConfiguration ErrorKind = "configuration"

	// KindFatalStartup — несоответствие очереди при старте с mismatchedQueuesFatal.
	KindFatalStartup ErrorKind = "fatal_startup"

	// KindTransientConnection — не удалось получить соединение (попытки исчерпаны).
	KindTransientConnection ErrorKind = "transient_connection"

	// KindRuntimeMismatch — несоответствие очереди, обнаруженное во время работы.
	KindRuntimeMismatch ErrorKind = "runtime_mismatch"
)

// Error — ошибка контейнера: категория + исходная причина.
//
// Причина доступна напрямую через поле Err, без нескольких уровней Unwrap:
//
//	var lerr *listener.Error
//	if errors.As(err, &lerr) && lerr.Kind == listener.KindFatalStartup {
//	    var mm *listener.MismatchError
//	    errors.As(lerr.Err, &mm)
//	}
type Error struct {
	// Kind — категория ошибки.
	Kind ErrorKind

	// Container — имя контейнера.
	Container string

	// Err — исходная причина.
	Err error
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Container != "" {
		b.WriteString(" (container ")
		b.WriteString(e.Container)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap возвращает исходную причину.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает по категории с sentinel-ошибками ErrConfiguration и т.д.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Container == "" && t.Err == nil
}

// Sentinel-ошибки для errors.Is по категории.
var (
	ErrConfiguration       = &Error{Kind: KindConfiguration}
	ErrFatalStartup        = &Error{Kind: KindFatalStartup}
	ErrTransientConnection = &Error{Kind: KindTransientConnection}
	ErrRuntimeMismatch     = &Error{Kind: KindRuntimeMismatch}
)

// Ошибки контейнера.
var (
	// ErrContainerStopped — старт прерван запросом stop.
	ErrContainerStopped = errors.New("container stopped")

	// ErrNoQueues — в конфигурации нет очередей.
	ErrNoQueues = errors.New("no queues configured")

	// ErrNoProvider — не задан поставщик соединений.
	ErrNoProvider = errors.New("no connection provider")

	// ErrNoListener — не задан listener.
	ErrNoListener = errors.New("no message listener")

	// ErrInvalidTransition — недопустимый переход состояния.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// AdminCountError — администратор не найден или найдено несколько.
type AdminCountError struct {
	Found int
}

func (e *AdminCountError) Error() string {
	return fmt.Sprintf("when mismatched queues are fatal, there must be exactly one "+
		"admin in the registry or one must be injected into this container; found: %d", e.Found)
}

// MismatchError — список несоответствий очередей.
type MismatchError struct {
	Reports []domain.MismatchReport
}

func (e *MismatchError) Error() string {
	parts := make([]string, 0, len(e.Reports))
	for _, r := range e.Reports {
		parts = append(parts, r.String())
	}
	return "mismatched queues: " + strings.Join(parts, "; ")
}

func newError(kind ErrorKind, container string, err error) *Error {
	return &Error{Kind: kind, Container: container, Err: err}
}
