package domain

import "fmt"

// MismatchReport — результат сравнения ожидаемой очереди с брокером.
//
// Создаётся на каждую попытку старта и сразу потребляется
// state machine контейнера, не сохраняется.
type MismatchReport struct {
	// Queue — имя очереди.
	Queue string `json:"queue"`

	// Expected — свойства, которые ожидает контейнер.
	Expected QueueSpec `json:"expected"`

	// Observed — свойства на брокере. Nil — очереди нет.
	Observed *QueueSpec `json:"observed,omitempty"`

	// Mismatch — очередь отсутствует или свойства отличаются.
	Mismatch bool `json:"mismatch"`

	// Fatal — несоответствие должно остановить контейнер.
	Fatal bool `json:"fatal"`
}

// Absent возвращает true, если очереди нет на брокере.
func (r MismatchReport) Absent() bool {
	return r.Observed == nil
}

// String возвращает описание для логов и ошибок.
func (r MismatchReport) String() string {
	if !r.Mismatch {
		return fmt.Sprintf("queue %s: ok", r.Queue)
	}
	if r.Absent() {
		return fmt.Sprintf("queue %s: absent on broker (expected %s)", r.Queue, r.Expected)
	}
	return fmt.Sprintf("queue %s: expected %s, observed %s", r.Queue, r.Expected, *r.Observed)
}
