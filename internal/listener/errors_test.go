package listener

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Courier/internal/domain"
)

func TestError_IsByKind(t *testing.T) {
	err := newError(KindFatalStartup, "c1", &MismatchError{})

	if !errors.Is(err, ErrFatalStartup) {
		t.Error("expected errors.Is(err, ErrFatalStartup)")
	}
	if errors.Is(err, ErrConfiguration) {
		t.Error("fatal startup error must not match ErrConfiguration")
	}

	var mm *MismatchError
	if !errors.As(err, &mm) {
		t.Error("expected MismatchError in chain")
	}
}

func TestError_CauseIsDirect(t *testing.T) {
	cause := &AdminCountError{Found: 2}
	err := error(newError(KindConfiguration, "c1", cause))

	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatal("expected *Error")
	}
	if lerr.Err != cause {
		t.Error("cause should be accessible without unwrapping")
	}
	if !strings.Contains(err.Error(), "container c1") || !strings.Contains(err.Error(), "found: 2") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestMismatchError_Message(t *testing.T) {
	observed := domain.NewQueue("q", false, false, true)
	err := &MismatchError{Reports: []domain.MismatchReport{
		{Queue: "q", Expected: domain.DurableQueue("q"), Observed: &observed, Mismatch: true, Fatal: true},
		{Queue: "r", Expected: domain.DurableQueue("r"), Mismatch: true, Fatal: true},
	}}

	msg := err.Error()
	if !strings.Contains(msg, "queue q: expected q:durable, observed q:auto_delete") {
		t.Errorf("unexpected message: %s", msg)
	}
	if !strings.Contains(msg, "queue r: absent on broker") {
		t.Errorf("unexpected message: %s", msg)
	}
}
