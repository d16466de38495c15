package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitForFires(t *testing.T, fires *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fires.Load() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d fires, got %d", want, fires.Load())
}

func TestCoalescesBurstIntoOneFire(t *testing.T) {
	t.Parallel()

	var fires atomic.Int32
	d := New(30*time.Millisecond, 0, func() { fires.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	waitForFires(t, &fires, 1)
	time.Sleep(60 * time.Millisecond)
	if fires.Load() != 1 {
		t.Fatalf("expected exactly one fire, got %d", fires.Load())
	}
	if d.State() != StateIdle {
		t.Fatalf("expected idle after fire, got %s", d.State())
	}
}

func TestMaxWaitBoundsPostponement(t *testing.T) {
	t.Parallel()

	var fires atomic.Int32
	d := New(40*time.Millisecond, 100*time.Millisecond, func() { fires.Add(1) })

	// keep re-triggering faster than the delay; maxWait has to fire it
	stop := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(stop) && fires.Load() == 0 {
		d.Trigger()
		time.Sleep(10 * time.Millisecond)
	}

	waitForFires(t, &fires, 1)
}

func TestCancelDropsPendingFire(t *testing.T) {
	t.Parallel()

	var fires atomic.Int32
	d := New(20*time.Millisecond, 0, func() { fires.Add(1) })

	d.Trigger()
	d.Cancel()
	if d.State() != StateIdle {
		t.Fatalf("expected idle after cancel, got %s", d.State())
	}

	time.Sleep(60 * time.Millisecond)
	if fires.Load() != 0 {
		t.Fatalf("expected no fires after cancel, got %d", fires.Load())
	}
}

func TestFlushFiresImmediately(t *testing.T) {
	t.Parallel()

	var fires atomic.Int32
	d := New(time.Hour, 0, func() { fires.Add(1) })

	d.Flush()
	if fires.Load() != 0 {
		t.Fatal("flush without pending fire must be a no-op")
	}

	d.Trigger()
	d.Flush()
	if fires.Load() != 1 {
		t.Fatalf("expected one fire after flush, got %d", fires.Load())
	}
}

func TestTriggerDuringFireStartsNewWindow(t *testing.T) {
	t.Parallel()

	var fires atomic.Int32
	var d *Debouncer
	d = New(10*time.Millisecond, 0, func() {
		if fires.Add(1) == 1 {
			d.Trigger()
		}
	})

	d.Trigger()
	waitForFires(t, &fires, 2)
}
