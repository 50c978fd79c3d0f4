package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// resetQueue clears the global queue between tests.
func resetQueue(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		q.mu.Lock()

		q.tasks = nil
		q.closed = false

		q.mu.Unlock()
	})
}

//nolint:paralleltest
func TestAddNilTaskIsIgnored(t *testing.T) {
	resetQueue(t)

	Add("nil", nil)

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("expected nil after adding nil task; got %v", err)
	}
}

//nolint:paralleltest
func TestLIFOOrder(t *testing.T) {
	resetQueue(t)

	var (
		orderMu sync.Mutex
		order   []string
	)

	for _, name := range []string{"db", "reaper", "http"} {
		Add(name, func(context.Context) error {
			orderMu.Lock()
			order = append(order, name)
			orderMu.Unlock()

			return nil
		})
	}

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	want := []string{"http", "reaper", "db"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("order mismatch: got %v, want %v", order, want)
	}
}

//nolint:paralleltest
func TestPanicIsReportedWithTaskName(t *testing.T) {
	resetQueue(t)

	var ranAfterPanic atomic.Bool

	Add("first", func(context.Context) error {
		ranAfterPanic.Store(true)

		return nil
	})
	Add("exploding", func(context.Context) error { panic("boom") })

	shErr := Shutdown(t.Context())
	if shErr == nil {
		t.Fatalf("expected error with panic; got nil")
	}

	if !strings.Contains(shErr.Error(), `panic in shutdown task "exploding": boom`) {
		t.Fatalf("expected named panic message; got: %q", shErr.Error())
	}

	if !ranAfterPanic.Load() {
		t.Fatalf("expected tasks after the panic to still run")
	}
}

//nolint:paralleltest
func TestErrorsAreJoinedAndNamed(t *testing.T) {
	resetQueue(t)

	errDB := errors.New("close pool")
	errSrv := errors.New("drain conns")

	Add("db", func(context.Context) error { return errDB })
	Add("http", func(context.Context) error { return errSrv })

	shErr := Shutdown(t.Context())
	if !errors.Is(shErr, errDB) || !errors.Is(shErr, errSrv) {
		t.Fatalf("expected joined error to contain both; got: %v", shErr)
	}

	if !strings.Contains(shErr.Error(), "shutdown db: close pool") {
		t.Fatalf("expected task name in message; got %q", shErr.Error())
	}
}

//nolint:paralleltest
func TestCancelStopsDrain(t *testing.T) {
	resetQueue(t)

	var ranLast atomic.Bool

	Add("last", func(context.Context) error {
		ranLast.Store(true)

		return nil
	})

	gateReady := make(chan struct{})
	Add("gate", func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() { errCh <- Shutdown(ctx) }()

	<-gateReady
	cancel()

	shErr := <-errCh
	if !errors.Is(shErr, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", shErr)
	}

	if ranLast.Load() {
		t.Fatalf("task after cancel should not run")
	}
}

//nolint:paralleltest
func TestShutdownRunsOnceAndRejectsLateAdds(t *testing.T) {
	resetQueue(t)

	var count atomic.Int32

	Add("count", func(context.Context) error {
		count.Add(1)

		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown #1 error: %v", err)
	}

	Add("late", func(context.Context) error {
		count.Add(100)

		return nil
	})

	if err := Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown #2 expected nil; got %v", err)
	}

	if got := count.Load(); got != 1 {
		t.Fatalf("expected count=1; got %d", got)
	}
}
