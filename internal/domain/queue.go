package domain

import (
	"fmt"
	"strings"
)

// QueueSpec — свойства очереди, которые контейнер ожидает увидеть на брокере.
//
// Сравнивается по значению: две спецификации совпадают только если
// совпадают все три флага (durable, exclusive, auto_delete).
type QueueSpec struct {
	// Name — имя очереди (уникальный ключ).
	Name string `json:"name"`

	// Durable — очередь переживает рестарт брокера.
	Durable bool `json:"durable"`

	// Exclusive — очередь принадлежит одному соединению.
	Exclusive bool `json:"exclusive"`

	// AutoDelete — очередь удаляется после отписки последнего consumer.
	AutoDelete bool `json:"auto_delete"`
}

// NewQueue создаёт QueueSpec с явными флагами.
func NewQueue(name string, durable, exclusive, autoDelete bool) QueueSpec {
	return QueueSpec{
		Name:       name,
		Durable:    durable,
		Exclusive:  exclusive,
		AutoDelete: autoDelete,
	}
}

// DurableQueue возвращает QueueSpec с настройками по умолчанию для брокера:
// durable=true, exclusive=false, auto_delete=false.
func DurableQueue(name string) QueueSpec {
	return NewQueue(name, true, false, false)
}

// Matches сравнивает свойства очереди. Имя не сравнивается.
func (q QueueSpec) Matches(other QueueSpec) bool {
	return q.Durable == other.Durable &&
		q.Exclusive == other.Exclusive &&
		q.AutoDelete == other.AutoDelete
}

// Flags возвращает флаги очереди в виде "durable,exclusive,auto_delete"
// (только установленные).
func (q QueueSpec) Flags() string {
	var flags []string
	if q.Durable {
		flags = append(flags, flagDurable)
	}
	if q.Exclusive {
		flags = append(flags, flagExclusive)
	}
	if q.AutoDelete {
		flags = append(flags, flagAutoDelete)
	}
	return strings.Join(flags, ",")
}

// String возвращает строку в формате ParseQueueSpec.
func (q QueueSpec) String() string {
	flags := q.Flags()
	if flags == "" {
		return q.Name + ":"
	}
	return q.Name + ":" + flags
}

const (
	flagDurable    = "durable"
	flagExclusive  = "exclusive"
	flagAutoDelete = "auto_delete"
)

// ParseQueueSpec разбирает строку "name[:flag,flag...]".
//
// Без двоеточия очередь считается durable (как DurableQueue).
// С двоеточием устанавливаются только перечисленные флаги:
//
//	orders                 → durable
//	orders:                → все флаги false
//	orders:auto_delete     → только auto_delete
//	orders:durable,exclusive
func ParseQueueSpec(s string) (QueueSpec, error) {
	s = strings.TrimSpace(s)
	name, flags, hasFlags := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return QueueSpec{}, fmt.Errorf("queue spec %q: %w", s, ErrEmptyQueueName)
	}

	if !hasFlags {
		return DurableQueue(name), nil
	}

	spec := QueueSpec{Name: name}
	for _, f := range strings.Split(flags, ",") {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "":
		case flagDurable:
			spec.Durable = true
		case flagExclusive:
			spec.Exclusive = true
		case flagAutoDelete, "autodelete", "auto-delete":
			spec.AutoDelete = true
		default:
			return QueueSpec{}, fmt.Errorf("queue spec %q: unknown flag %q", s, f)
		}
	}
	return spec, nil
}

// ParseQueueList разбирает список спецификаций, разделённых ';'.
// Дубликаты имён запрещены.
func ParseQueueList(s string) ([]QueueSpec, error) {
	var specs []QueueSpec
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := ParseQueueSpec(part)
		if err != nil {
			return nil, err
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("queue %q: %w", spec.Name, ErrDuplicateQueue)
		}
		seen[spec.Name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}
