package session

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// ParseThrottle parses an operator-typed millisecond value. It returns 0 and
// false for anything that is not a non-negative integer.
func ParseThrottle(text string) (time.Duration, bool) {
	ms, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || ms < 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Throttle rate-limits seek values: within each interval only the most
// recent value is emitted, at the end of the interval.
type Throttle struct {
	emit func(int)

	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	latest   int
	// seq invalidates timers that were cancelled after they started firing.
	seq uint64
}

// NewThrottle returns a pass-through throttle. emit is called on a timer
// goroutine.
func NewThrottle(emit func(int)) *Throttle {
	return &Throttle{emit: emit}
}

// SetInterval changes the interval and drops any pending value.
func (t *Throttle) SetInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.interval = d
}

// Submit records v. It returns true when v should be forwarded right away
// (no interval configured); otherwise v is emitted later unless superseded.
func (t *Throttle) Submit(v int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interval <= 0 {
		return true
	}
	t.latest = v
	if t.timer == nil {
		seq := t.seq
		t.timer = time.AfterFunc(t.interval, func() { t.fire(seq) })
	}
	return false
}

// Cancel drops any pending value.
func (t *Throttle) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

func (t *Throttle) cancelLocked() {
	t.seq++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *Throttle) fire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq || t.timer == nil {
		t.mu.Unlock()
		return
	}
	v := t.latest
	t.timer = nil
	t.mu.Unlock()
	t.emit(v)
}
