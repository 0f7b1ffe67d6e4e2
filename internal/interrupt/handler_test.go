package interrupt_test

// Notes:
// - Signals are injected through Options.SigCh; no real signal is sent.
// - nowFunc controls the double-press window deterministically.
// - ctx.Done() confirms the first signal was processed.

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/alnah/go-lecturequiz/internal/interrupt"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Contains(substr string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf.Bytes(), []byte(substr))
}

// fakeClock returns times set by the test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	sigCh  chan os.Signal
	exits  chan int
	stderr *syncBuffer
	clock  *fakeClock
	h      *interrupt.Handler
	ctx    context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hs := &harness{
		sigCh:  make(chan os.Signal, 2),
		exits:  make(chan int, 1),
		stderr: &syncBuffer{},
		clock:  &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	hs.h, hs.ctx = interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    hs.sigCh,
		ExitFunc: func(code int) { hs.exits <- code },
		NowFunc:  hs.clock.Now,
		Stderr:   hs.stderr,
	})
	t.Cleanup(hs.h.Stop)
	return hs
}

func (hs *harness) waitCancelled(t *testing.T) {
	t.Helper()
	select {
	case <-hs.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after first signal")
	}
}

// ---------------------------------------------------------------------------
// TestHandler - single and double interrupts
// ---------------------------------------------------------------------------

func TestHandler_FirstSignalCancels(t *testing.T) {
	t.Parallel()

	hs := newHarness(t)
	if hs.h.WasInterrupted() {
		t.Fatal("WasInterrupted() before any signal")
	}

	hs.sigCh <- syscall.SIGINT
	hs.waitCancelled(t)

	if !hs.h.WasInterrupted() {
		t.Error("WasInterrupted() = false after signal")
	}
	select {
	case code := <-hs.exits:
		t.Errorf("exit(%d) called after a single signal", code)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandler_DoubleSignalExits(t *testing.T) {
	t.Parallel()

	hs := newHarness(t)
	hs.sigCh <- syscall.SIGINT
	hs.waitCancelled(t)

	hs.clock.Advance(time.Second)
	hs.sigCh <- syscall.SIGINT

	select {
	case code := <-hs.exits:
		if code != interrupt.ExitInterrupt {
			t.Errorf("exit code = %d, want %d", code, interrupt.ExitInterrupt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second signal within window did not exit")
	}
	if !hs.stderr.Contains("Aborted.") {
		t.Error("abort message not written")
	}
}

func TestHandler_LateSecondSignalRestartsWindow(t *testing.T) {
	t.Parallel()

	hs := newHarness(t)
	hs.sigCh <- syscall.SIGINT
	hs.waitCancelled(t)

	hs.clock.Advance(5 * time.Second)
	hs.sigCh <- syscall.SIGTERM
	select {
	case code := <-hs.exits:
		t.Fatalf("exit(%d) called for a signal outside the window", code)
	case <-time.After(50 * time.Millisecond):
	}

	hs.clock.Advance(time.Second)
	hs.sigCh <- syscall.SIGINT
	select {
	case <-hs.exits:
	case <-time.After(2 * time.Second):
		t.Fatal("third signal inside the restarted window did not exit")
	}
}

func TestHandler_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		ExitFunc: func(int) { calls.Add(1) },
	})
	h.Stop()
	h.Stop()
	if calls.Load() != 0 {
		t.Error("Stop should not exit")
	}
}
