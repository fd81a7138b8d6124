package timer

import (
	"sync"
	"time"
)

// Phase is the countdown lifecycle state.
type Phase string

const (
	PhaseDisabled Phase = "DISABLED"
	PhaseRunning  Phase = "RUNNING"
	PhaseExpired  Phase = "EXPIRED"
	PhaseStopped  Phase = "STOPPED"
)

// Engine is a per-second countdown clock. Start with a positive limit runs
// it; a limit of zero or less leaves it disabled (untimed modes). Expiry is
// reported once through onExpire; Stop cancels from any phase and is
// idempotent. A generation counter keeps a stale run loop from ticking an
// engine that has since been restarted or stopped.
type Engine struct {
	mu        sync.Mutex
	phase     Phase
	remaining int
	gen       uint64

	onTick   func(remaining int)
	onExpire func()

	interval time.Duration
	manual   bool
}

type Option func(*Engine)

// WithInterval overrides the one-second cadence.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithManualClock disables the run loop; the owner drives Tick itself.
func WithManualClock() Option {
	return func(e *Engine) { e.manual = true }
}

func New(onTick func(remaining int), onExpire func(), opts ...Option) *Engine {
	e := &Engine{phase: PhaseDisabled, onTick: onTick, onExpire: onExpire, interval: time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start resets the countdown. Any previous run loop is invalidated.
func (e *Engine) Start(limit int) {
	e.mu.Lock()
	e.gen++
	if limit <= 0 {
		e.phase = PhaseDisabled
		e.remaining = 0
		e.mu.Unlock()
		return
	}
	e.phase = PhaseRunning
	e.remaining = limit
	gen := e.gen
	manual := e.manual
	e.mu.Unlock()

	if !manual {
		go e.run(gen)
	}
}

func (e *Engine) run(gen uint64) {
	t := time.NewTicker(e.interval)
	defer t.Stop()
	for range t.C {
		if !e.Tick(gen) {
			return
		}
	}
}

// Tick performs one countdown step for the given generation and reports
// whether the loop should continue. Tests drive it directly via Generation.
func (e *Engine) Tick(gen uint64) bool {
	e.mu.Lock()
	if gen != e.gen || e.phase != PhaseRunning {
		e.mu.Unlock()
		return false
	}
	e.remaining--
	remaining := e.remaining
	expired := remaining <= 0
	if expired {
		e.phase = PhaseExpired
	}
	onTick, onExpire := e.onTick, e.onExpire
	e.mu.Unlock()

	// callbacks run outside the lock so they may call back into the engine
	if onTick != nil {
		onTick(remaining)
	}
	if expired {
		if onExpire != nil {
			onExpire()
		}
		return false
	}
	return true
}

// Stop cancels the countdown. Safe to call repeatedly and from any phase;
// running and expired engines land in Stopped, a disabled engine stays
// disabled since there is no countdown to cancel.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	if e.phase != PhaseDisabled {
		e.phase = PhaseStopped
	}
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Generation exposes the current run generation for manual ticking.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}
