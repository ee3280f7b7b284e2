package mq

import (
	"errors"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Courier/internal/broker"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "precondition failed",
			err:  &amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - inequivalent arg 'durable'"},
			want: broker.ErrPreconditionFailed,
		},
		{
			name: "not found",
			err:  &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND - no queue 'q'"},
			want: broker.ErrQueueNotFound,
		},
		{
			name: "resource locked",
			err:  &amqp.Error{Code: amqp.ResourceLocked, Reason: "RESOURCE_LOCKED"},
			want: broker.ErrResourceLocked,
		},
		{
			name: "closed",
			err:  amqp.ErrClosed,
			want: broker.ErrConnectionClosed,
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("declare: %w", &amqp.Error{Code: amqp.PreconditionFailed}),
			want: broker.ErrPreconditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("original error should stay in chain: %v", got)
			}
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("nil should stay nil")
	}

	plain := errors.New("boom")
	if got := mapError(plain); got != plain {
		t.Errorf("unknown error should be returned as is, got %v", got)
	}

	other := &amqp.Error{Code: amqp.AccessRefused}
	if got := mapError(other); got != error(other) {
		t.Errorf("unmapped code should be returned as is, got %v", got)
	}
}
