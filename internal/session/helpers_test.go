package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "00:00"},
		{-10, "00:00"},
		{999, "00:00"},
		{15000, "00:15"},
		{60000, "01:00"},
		{754000, "12:34"},
		{3599999, "59:59"},
		{3600000, "1:00:00"},
		{7384000, "2:03:04"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.ms), "ms=%d", tt.ms)
	}
}

func TestVideoSelector(t *testing.T) {
	s := NewVideoSelector([]string{"a", "b", "c"})
	assert.Equal(t, "a", s.Select(false))
	assert.Equal(t, "b", s.Select(true))
	assert.Equal(t, 0, s.Index(), "select must not move the cursor")

	s.Advance()
	s.Advance()
	assert.Equal(t, "c", s.Select(false))
	assert.Equal(t, "a", s.Select(true))

	s.Advance()
	assert.Equal(t, 0, s.Index())

	assert.Panics(t, func() { NewVideoSelector(nil) })
}

func TestVideoSelectorCopiesInput(t *testing.T) {
	in := []string{"a", "b"}
	s := NewVideoSelector(in)
	in[0] = "z"
	assert.Equal(t, "a", s.Select(false))
}

func TestParseThrottle(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"0", 0, true},
		{"250", 250 * time.Millisecond, true},
		{" 40 ", 40 * time.Millisecond, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1", 0, false},
		{"1.5", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseThrottle(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

type emitted struct {
	mu     sync.Mutex
	values []int
}

func (e *emitted) add(v int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = append(e.values, v)
}

func (e *emitted) get() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.values...)
}

func TestThrottlePassThrough(t *testing.T) {
	var out emitted
	th := NewThrottle(out.add)
	assert.True(t, th.Submit(1))
	assert.Empty(t, out.get())
}

func TestThrottleEmitsLatest(t *testing.T) {
	var out emitted
	th := NewThrottle(out.add)
	th.SetInterval(30 * time.Millisecond)

	assert.False(t, th.Submit(1))
	assert.False(t, th.Submit(2))
	assert.False(t, th.Submit(3))
	require.Eventually(t, func() bool { return len(out.get()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{3}, out.get())

	assert.False(t, th.Submit(4))
	require.Eventually(t, func() bool { return len(out.get()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{3, 4}, out.get())
}

func TestThrottleCancelDropsPending(t *testing.T) {
	var out emitted
	th := NewThrottle(out.add)
	th.SetInterval(20 * time.Millisecond)

	th.Submit(1)
	th.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, out.get())
}

func TestThrottleSetIntervalDropsPending(t *testing.T) {
	var out emitted
	th := NewThrottle(out.add)
	th.SetInterval(20 * time.Millisecond)

	th.Submit(1)
	th.SetInterval(0)
	assert.True(t, th.Submit(2))
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, out.get())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "ended", Ended.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
