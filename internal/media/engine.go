// Package media is the boundary to the media-transport engine that does the
// actual audio/video negotiation and decoding.
package media

import (
	"context"

	"github.com/junsooki/remoteplay/internal/protocol"
)

// SDPType is the kind of a session description.
type SDPType string

const (
	SDPTypeOffer  SDPType = "offer"
	SDPTypeAnswer SDPType = "answer"
)

// Engine negotiates one media session. Implementations must be safe for use
// from a single goroutine; callbacks may fire on any goroutine.
type Engine interface {
	// CreateOffer builds a local offer, applies it as the local description
	// and returns its SDP.
	CreateOffer(ctx context.Context) (string, error)
	SetRemoteDescription(sdp string, typ SDPType) error
	AddRemoteCandidate(c protocol.Candidate) error
	// RegisterLocalCandidate records a candidate previously reported
	// through Callbacks.OnLocalCandidate.
	RegisterLocalCandidate(c protocol.Candidate)
	Close() error
}

// Callbacks receives asynchronous notifications from an Engine.
type Callbacks struct {
	OnLocalCandidate func(protocol.Candidate)
	// OnRemoteTrack fires when a remote track of the given kind
	// ("audio" or "video") is attached.
	OnRemoteTrack func(kind string)
}

// Factory creates a fresh Engine bound to cb.
type Factory func(cb Callbacks) (Engine, error)
