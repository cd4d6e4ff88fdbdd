// v1
// internal/breaker/breaker_test.go
package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

func failing(_ context.Context) error { return errBoom }
func succeeding(_ context.Context) error { return nil }

func TestOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 3, ResetTimeout: time.Hour}, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, failing); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected operation error, got %v", i, err)
		}
	}
	if b.State() != Open {
		t.Fatalf("expected open state after 3 failures, got %v", b.State())
	}
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrOpen) {
		t.Fatalf("expected fast-fail while open, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Hour}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, succeeding)
	_ = b.Execute(ctx, failing)
	if b.State() != Closed {
		t.Fatalf("expected closed state, interleaved success must reset the count")
	}
}

func TestProbeClosesAfterTimeout(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	if b.State() != Open {
		t.Fatalf("expected open state")
	}
	time.Sleep(20 * time.Millisecond)

	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("expected successful probe, got %v", err)
	}
	if b.State() != Closed {
		t.Fatalf("expected closed after successful probe, got %v", b.State())
	}
}

func TestFailedProbeReopens(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	time.Sleep(20 * time.Millisecond)

	if err := b.Execute(ctx, failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected probe to surface the operation error, got %v", err)
	}
	if b.State() != Open {
		t.Fatalf("expected reopen after failed probe, got %v", b.State())
	}
}

func TestStateString(t *testing.T) {
	if Closed.String() != "closed" || Open.String() != "open" || HalfOpen.String() != "half-open" {
		t.Fatalf("state labels wrong")
	}
}
