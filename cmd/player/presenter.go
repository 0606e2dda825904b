package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/junsooki/remoteplay/internal/session"
)

// terminal renders session output as one line per change.
type terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminal(w io.Writer) *terminal { return &terminal{w: w} }

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *terminal) ConnectionEstablished()     { t.printf("connected, type play to start") }
func (t *terminal) ConnectionLost()            { t.printf("connection lost") }
func (t *terminal) RemoteDescriptionReceived() { t.printf("stream negotiated") }

func (t *terminal) DurationChanged(text string, seekMax int) {
	t.printf("duration %s (seek 0-%d)", text, seekMax)
}

func (t *terminal) PositionChanged(text string, _ int) { t.printf("position %s", text) }

func (t *terminal) PhaseChanged(from, to session.Phase) { t.printf("%s -> %s", from, to) }

func (t *terminal) Warn(msg string) { t.printf("warning: %s", msg) }

func (t *terminal) ReleaseSurface() {}
func (t *terminal) BindSurface()    {}

func (t *terminal) StreamAttached(kind string) { t.printf("receiving %s", kind) }
