package listener

import (
	"context"
	"errors"
	"testing"

	"github.com/shaiso/Courier/internal/broker/memory"
	"github.com/shaiso/Courier/internal/domain"
)

func TestCompare(t *testing.T) {
	expected := domain.DurableQueue("test.mismatch")
	same := domain.DurableQueue("test.mismatch")
	nonDurable := domain.NewQueue("test.mismatch", false, false, true)

	tests := []struct {
		name     string
		observed *domain.QueueSpec
		fatal    bool
		mismatch bool
		isFatal  bool
	}{
		{"match", &same, true, false, false},
		{"absent fatal", nil, true, true, true},
		{"absent tolerated", nil, false, true, false},
		{"different flags fatal", &nonDurable, true, true, true},
		{"different flags tolerated", &nonDurable, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Compare(expected, tt.observed, tt.fatal)
			if r.Mismatch != tt.mismatch {
				t.Errorf("Mismatch = %v, want %v", r.Mismatch, tt.mismatch)
			}
			if r.Fatal != tt.isFatal {
				t.Errorf("Fatal = %v, want %v", r.Fatal, tt.isFatal)
			}
			if r.Queue != "test.mismatch" {
				t.Errorf("Queue = %q", r.Queue)
			}
		})
	}
}

func TestCompare_SingleFlagDiffers(t *testing.T) {
	expected := domain.NewQueue("q", true, false, false)
	for _, observed := range []domain.QueueSpec{
		domain.NewQueue("q", false, false, false),
		domain.NewQueue("q", true, true, false),
		domain.NewQueue("q", true, false, true),
	} {
		o := observed
		if !Compare(expected, &o, true).Mismatch {
			t.Errorf("expected mismatch for %s", o)
		}
	}
}

func TestCompare_CopiesObserved(t *testing.T) {
	observed := domain.DurableQueue("q")
	r := Compare(domain.DurableQueue("q"), &observed, false)

	observed.Durable = false
	if !r.Observed.Durable {
		t.Error("report should hold its own copy of observed spec")
	}
}

func TestDetector_NotCached(t *testing.T) {
	b := memory.New()
	admin := b.Admin()
	ctx := context.Background()
	_ = admin.DeclareQueue(ctx, domain.DurableQueue("q"))

	d := NewDetector(admin, true)

	r, err := d.Detect(ctx, domain.DurableQueue("q"))
	if err != nil || r.Mismatch {
		t.Fatalf("first check: report=%+v err=%v", r, err)
	}

	// Очередь удалена и объявлена с другими свойствами.
	_ = admin.DeleteQueue(ctx, "q")
	_ = admin.DeclareQueue(ctx, domain.NewQueue("q", false, false, true))

	r, err = d.Detect(ctx, domain.DurableQueue("q"))
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !r.Mismatch || !r.Fatal {
		t.Errorf("expected fatal mismatch after redeclare, got %+v", r)
	}
	if b.DescribeCalls() != 2 {
		t.Errorf("expected 2 describe calls, got %d", b.DescribeCalls())
	}
}

func TestDetector_DetectAll(t *testing.T) {
	b := memory.New()
	ctx := context.Background()
	_ = b.Admin().DeclareQueue(ctx, domain.DurableQueue("a"))

	d := NewDetector(b.Admin(), false)
	reports, err := d.DetectAll(ctx, []domain.QueueSpec{domain.DurableQueue("a"), domain.DurableQueue("b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mismatched := Mismatched(reports)
	if len(mismatched) != 1 || mismatched[0].Queue != "b" || !mismatched[0].Absent() {
		t.Errorf("unexpected mismatches: %+v", mismatched)
	}
	if HasFatal(reports) {
		t.Error("non-fatal detector must not produce fatal reports")
	}
}

func TestDetector_AdminError(t *testing.T) {
	b := memory.New()
	b.FailDescribes(1)

	_, err := NewDetector(b.Admin(), true).DetectAll(context.Background(), []domain.QueueSpec{domain.DurableQueue("a")})
	if !errors.Is(err, memory.ErrDescribeFailed) {
		t.Errorf("expected ErrDescribeFailed, got %v", err)
	}
}
