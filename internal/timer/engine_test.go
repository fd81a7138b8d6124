package timer

import "testing"

func TestDisabledNeverRuns(t *testing.T) {
	e := New(nil, nil, WithManualClock())
	e.Start(0)
	if e.Phase() != PhaseDisabled {
		t.Fatalf("expected disabled, got %s", e.Phase())
	}
	if e.Tick(e.Generation()) {
		t.Fatalf("disabled engine must not tick")
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	var ticks []int
	expires := 0
	e := New(func(r int) { ticks = append(ticks, r) }, func() { expires++ }, WithManualClock())
	e.Start(3)

	gen := e.Generation()
	for e.Tick(gen) {
	}
	if expires != 1 {
		t.Fatalf("expected exactly one expiry, got %d", expires)
	}
	if e.Phase() != PhaseExpired {
		t.Fatalf("expected expired, got %s", e.Phase())
	}
	if len(ticks) != 3 || ticks[2] != 0 {
		t.Fatalf("unexpected tick sequence: %v", ticks)
	}
	// ticking past expiry is a no-op
	if e.Tick(gen) || expires != 1 {
		t.Fatalf("tick after expiry must do nothing")
	}
}

func TestStopIsIdempotentFromAnyPhase(t *testing.T) {
	e := New(nil, nil, WithManualClock())
	e.Stop()
	e.Stop()
	if e.Phase() != PhaseDisabled {
		t.Fatalf("stop on disabled engine changed phase: %s", e.Phase())
	}

	e.Start(10)
	e.Stop()
	if e.Phase() != PhaseStopped {
		t.Fatalf("expected stopped, got %s", e.Phase())
	}
	e.Stop()
	if e.Phase() != PhaseStopped {
		t.Fatalf("second stop changed phase: %s", e.Phase())
	}

	// an expired engine also lands in stopped
	e.Start(1)
	e.Tick(e.Generation())
	if e.Phase() != PhaseExpired {
		t.Fatalf("expected expired, got %s", e.Phase())
	}
	e.Stop()
	if e.Phase() != PhaseStopped {
		t.Fatalf("stop after expiry should land in stopped, got %s", e.Phase())
	}
}

func TestStaleGenerationCannotTick(t *testing.T) {
	expires := 0
	e := New(nil, func() { expires++ }, WithManualClock())
	e.Start(1)
	stale := e.Generation()

	e.Start(5)
	if e.Tick(stale) {
		t.Fatalf("stale generation must be rejected")
	}
	if e.Remaining() != 5 || expires != 0 {
		t.Fatalf("stale tick mutated restarted engine: remaining=%d expires=%d", e.Remaining(), expires)
	}

	if !e.Tick(e.Generation()) || e.Remaining() != 4 {
		t.Fatalf("current generation should tick to 4, got %d", e.Remaining())
	}
}
