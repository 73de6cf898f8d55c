package core

import (
	"testing"
	"time"
)

// TestWorkerPool_PrestartCoreWorkers verifies prestartCoreWorkers brings
// the pool up to corePoolSize immediately, all idle.
func TestWorkerPool_PrestartCoreWorkers(t *testing.T) {
	// Arrange
	p := newWorkerPool(3, 5, time.Minute, 100*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	// Act
	p.prestartCoreWorkers()

	// Assert
	current, available := p.stats()
	if current != 3 {
		t.Errorf("current = %d, want 3", current)
	}
	if available != 3 {
		t.Errorf("available = %d, want 3", available)
	}
}

// TestWorkerPool_AcquireGrowsUnderMax verifies acquire() grows the pool
// when no worker is idle and max has not been reached.
func TestWorkerPool_AcquireGrowsUnderMax(t *testing.T) {
	// Arrange
	p := newWorkerPool(0, 2, time.Minute, 100*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	// Act
	w1, ok1 := p.acquire(High)
	w2, ok2 := p.acquire(High)

	// Assert
	if !ok1 || !ok2 {
		t.Fatal("acquire() failed under max pool size")
	}
	if w1 == w2 {
		t.Error("acquire() returned the same worker twice while none was released")
	}
	current, _ := p.stats()
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
}

// TestWorkerPool_LowPriorityGivesUpAfterBound verifies a Low priority
// acquire() with room to grow waits at most maxWaitForLowPriorityMs for an
// existing idle worker before the pool is allowed to grow for it.
func TestWorkerPool_LowPriorityGivesUpAfterBound(t *testing.T) {
	// Arrange
	p := newWorkerPool(1, 2, time.Minute, 40*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	w, ok := p.acquire(High)
	if !ok {
		t.Fatal("initial acquire() failed")
	}
	_ = w // held, not released: the one core worker is busy, but max=2 leaves room

	start := time.Now()

	// Act
	_, ok = p.acquire(Low)
	elapsed := time.Since(start)

	// Assert
	if !ok {
		t.Error("acquire(Low) failed, want it to grow the pool after the bounded wait")
	}
	if elapsed < 30*time.Millisecond {
		t.Errorf("acquire(Low) returned too quickly: %v, want >= ~40ms wait before growing", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("acquire(Low) took too long: %v", elapsed)
	}

	current, _ := p.stats()
	if current != 2 {
		t.Errorf("current = %d after Low growth, want 2", current)
	}
}

// TestWorkerPool_LowPriorityWaitsUnboundedWhenSaturated verifies a Low
// priority acquire() at maxPoolSize (no room to grow) waits for the
// existing worker to be released rather than giving up after
// maxWaitForLowPriorityMs — growth is moot, so the original's
// getExistingWorker(Long.MAX_VALUE) branch applies just as it does for
// High priority.
func TestWorkerPool_LowPriorityWaitsUnboundedWhenSaturated(t *testing.T) {
	// Arrange
	p := newWorkerPool(1, 1, time.Minute, 20*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	w, ok := p.acquire(High)
	if !ok {
		t.Fatal("initial acquire() failed")
	}

	go func() {
		time.Sleep(80 * time.Millisecond)
		p.release(w)
	}()

	start := time.Now()

	// Act
	got, ok := p.acquire(Low)
	elapsed := time.Since(start)

	// Assert
	if !ok {
		t.Fatal("acquire(Low) failed, want it to wait for the released worker")
	}
	if got != w {
		t.Error("acquire(Low) did not receive the released worker")
	}
	if elapsed < 60*time.Millisecond {
		t.Errorf("acquire(Low) returned too quickly: %v, want >= ~80ms wait for release", elapsed)
	}
}

// TestWorkerPool_ReleaseReusesWorker verifies a released worker is handed
// back out by a subsequent acquire() rather than growing the pool.
func TestWorkerPool_ReleaseReusesWorker(t *testing.T) {
	// Arrange
	p := newWorkerPool(0, 4, time.Minute, 100*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	w1, _ := p.acquire(High)
	p.release(w1)

	// Act
	w2, ok := p.acquire(High)

	// Assert
	if !ok {
		t.Fatal("acquire() after release failed")
	}
	if w1 != w2 {
		t.Error("acquire() after release() did not reuse the released worker")
	}
	current, _ := p.stats()
	if current != 1 {
		t.Errorf("current = %d after reuse, want 1", current)
	}
}

// TestWorkerPool_ExpireIdleWorkers verifies idle workers above
// corePoolSize are killed once they exceed keepAlive.
func TestWorkerPool_ExpireIdleWorkers(t *testing.T) {
	// Arrange
	p := newWorkerPool(1, 4, 20*time.Millisecond, 100*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	w1, _ := p.acquire(High)
	w2, _ := p.acquire(High)
	w3, _ := p.acquire(High)
	p.release(w1)
	p.release(w2)
	p.release(w3)

	current, _ := p.stats()
	if current != 3 {
		t.Fatalf("current = %d before expiry, want 3", current)
	}

	// Act
	time.Sleep(40 * time.Millisecond)
	p.expireIdleWorkers()

	// Assert
	current, _ = p.stats()
	if current != 1 {
		t.Errorf("current = %d after expiry, want 1 (core)", current)
	}
}

// TestWorkerPool_ZeroKeepAliveExpiresImmediately verifies a keepAlive of
// zero does not disable expiry: an idle worker above core is eligible for
// expiry on the very next reaper tick, not "never".
func TestWorkerPool_ZeroKeepAliveExpiresImmediately(t *testing.T) {
	// Arrange
	p := newWorkerPool(1, 4, 0, 100*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()

	w1, _ := p.acquire(High)
	w2, _ := p.acquire(High)
	p.release(w1)
	p.release(w2)

	current, _ := p.stats()
	if current != 2 {
		t.Fatalf("current = %d before expiry, want 2", current)
	}

	// Act
	p.expireIdleWorkers()

	// Assert
	current, _ = p.stats()
	if current != 1 {
		t.Errorf("current = %d after expiry with keepAlive=0, want 1 (core)", current)
	}
}

// TestWorkerPool_AllowCoreTimeoutExpiresCoreWorkers verifies idle workers
// at or below corePoolSize are only eligible for expiry once
// allowCoreTimeout is set.
func TestWorkerPool_AllowCoreTimeoutExpiresCoreWorkers(t *testing.T) {
	// Arrange
	p := newWorkerPool(2, 4, 0, 100*time.Millisecond, false, &DefaultPanicHandler{}, &NilMetrics{}, nil)
	defer p.shutdown()
	p.prestartCoreWorkers()

	current, _ := p.stats()
	if current != 2 {
		t.Fatalf("current = %d before expiry, want 2 (core)", current)
	}

	// Act - without allowCoreTimeout, core workers survive expiry
	p.expireIdleWorkers()
	current, _ = p.stats()
	if current != 2 {
		t.Fatalf("current = %d after expiry with allowCoreTimeout=false, want 2 (core kept alive)", current)
	}

	// Act - enabling allowCoreTimeout expires them immediately
	p.setAllowCoreTimeout(true)

	// Assert
	current, _ = p.stats()
	if current != 0 {
		t.Errorf("current = %d after enabling allowCoreTimeout, want 0", current)
	}
}
