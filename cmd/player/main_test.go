package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/remoteplay/internal/config"
	"github.com/junsooki/remoteplay/internal/session"
)

type fakeControls struct {
	calls []string
}

func (f *fakeControls) Play()   { f.calls = append(f.calls, "play") }
func (f *fakeControls) Pause()  { f.calls = append(f.calls, "pause") }
func (f *fakeControls) Switch() { f.calls = append(f.calls, "switch") }
func (f *fakeControls) Seek(seconds int) {
	f.calls = append(f.calls, "seek "+strconv.Itoa(seconds))
}
func (f *fakeControls) SetThrottle(text string) { f.calls = append(f.calls, "throttle "+text) }

func TestDispatch(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"play", []string{"play"}},
		{"  PLAY  ", []string{"play"}},
		{"pause", []string{"pause"}},
		{"next", []string{"switch"}},
		{"seek 42", []string{"seek 42"}},
		{"throttle 250", []string{"throttle 250"}},
		{"throttle abc", []string{"throttle abc"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			var c fakeControls
			require.NoError(t, dispatch(tt.line, &c))
			assert.Equal(t, tt.want, c.calls)
		})
	}
}

func TestDispatchErrors(t *testing.T) {
	var c fakeControls
	assert.ErrorIs(t, dispatch("quit", &c), errQuit)
	assert.ErrorContains(t, dispatch("seek", &c), "usage")
	assert.ErrorContains(t, dispatch("seek -3", &c), "invalid seek position")
	assert.ErrorContains(t, dispatch("seek x", &c), "invalid seek position")
	assert.ErrorContains(t, dispatch("rewind", &c), "unknown command")
	assert.ErrorContains(t, dispatch("help", &c), "commands:")
	assert.Empty(t, c.calls)
}

func TestTerminalOutput(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(&buf)
	term.DurationChanged("01:00", 60)
	term.PositionChanged("00:15/01:00", 15)
	term.PhaseChanged(session.Idle, session.Active)
	term.Warn("Wrong throttle ms, default to 0")

	assert.Equal(t, strings.Join([]string{
		"duration 01:00 (seek 0-60)",
		"position 00:15/01:00",
		"idle -> active",
		"warning: Wrong throttle ms, default to 0",
		"",
	}, "\n"), buf.String())
}

func TestRunQuitsOnCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Signaling.Port = 1
	cfg.Signaling.Secure = false
	cfg.ICEServers = nil

	var out bytes.Buffer
	errc := make(chan error, 1)
	go func() { errc <- run(context.Background(), cfg, strings.NewReader("help\nquit\n"), &out) }()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after quit")
	}
	assert.Contains(t, out.String(), "commands:")
}
