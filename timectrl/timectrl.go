package timectrl

import (
	"sync"
	"time"
)

// SimClock is the simulation time source used by mission components. Every
// blocking "physical" action (takeoff, scan tick, move, clean activation,
// ground service) advances simulation time through Sleep, so the mission is
// fully deterministic when run against an accelerated clock.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// Sleep advances simulation time by d. Depending on the controller's
	// mode it may also block in wall-clock time.
	Sleep(d time.Duration)
	// Elapsed returns total simulation time since the controller started.
	Elapsed() time.Duration
}

// Mode describes how the TimeController relates simulation time to
// wall-clock time.
type Mode int

const (
	// RealTime blocks for (a capped slice of) each simulated delay.
	RealTime Mode = iota
	// Accelerated advances simulation time instantly.
	Accelerated
)

// DefaultMaxRealSlice caps how long a single RealTime sleep blocks, so long
// simulated moves don't stall an interactive run.
const DefaultMaxRealSlice = 100 * time.Millisecond

// TimeController implements SimClock and notifies registered listeners
// whenever simulation time advances.
type TimeController struct {
	mu        sync.RWMutex
	startTime time.Time
	current   time.Time
	mode      Mode
	maxSlice  time.Duration

	listeners []func(time.Time)
}

// NewTimeController constructs a controller starting at the given simulation time.
func NewTimeController(start time.Time, mode Mode) *TimeController {
	return &TimeController{
		startTime: start,
		current:   start,
		mode:      mode,
		maxSlice:  DefaultMaxRealSlice,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current
}

// Elapsed returns simulation time elapsed since start. Implements SimClock.
func (tc *TimeController) Elapsed() time.Duration {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.current.Sub(tc.startTime)
}

// Sleep advances simulation time by d and notifies listeners. In RealTime
// mode it also blocks for min(d, maxSlice) of wall-clock time. Implements
// SimClock.
func (tc *TimeController) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	tc.mu.Lock()
	tc.current = tc.current.Add(d)
	now := tc.current
	listeners := tc.listeners
	tc.mu.Unlock()

	if tc.mode == RealTime {
		slice := d
		if slice > tc.maxSlice {
			slice = tc.maxSlice
		}
		time.Sleep(slice)
	}

	for _, fn := range listeners {
		fn(now)
	}
}

// AddListener registers a callback invoked each time simulation time
// advances. Listeners must be registered before the mission starts.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}
