package media

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/junsooki/remoteplay/internal/protocol"
)

// DefaultICEServers is the STUN configuration used when none is configured.
var DefaultICEServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun.rixtelecom.se",
	"stun:stun4.l.google.com:19302",
	"stun:stun.voiparound.com",
}

// PionEngine is an Engine backed by a pion PeerConnection that receives one
// audio and one video track from the media server.
type PionEngine struct {
	pc  *webrtc.PeerConnection
	cb  Callbacks
	log zerolog.Logger

	mu    sync.Mutex
	local []protocol.Candidate
}

// NewPionFactory returns a Factory creating PionEngines with the given ICE
// server URLs.
func NewPionFactory(iceServers []string, logger zerolog.Logger) Factory {
	return func(cb Callbacks) (Engine, error) {
		return NewPionEngine(iceServers, cb, logger)
	}
}

// NewPionEngine creates a configured PeerConnection with recvonly video and
// audio transceivers.
func NewPionEngine(iceServers []string, cb Callbacks, logger zerolog.Logger) (*PionEngine, error) {
	cfg := webrtc.Configuration{
		BundlePolicy: webrtc.BundlePolicyBalanced,
	}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}

	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}

	e := &PionEngine{pc: pc, cb: cb, log: logger}

	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeVideo, webrtc.RTPCodecTypeAudio} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			pc.Close()
			return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		e.log.Info().Str("state", state.String()).Msg("peer connection state")
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		// nil marks the end of gathering.
		if c == nil || e.cb.OnLocalCandidate == nil {
			return
		}
		e.cb.OnLocalCandidate(fromInit(c.ToJSON()))
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		kind := track.Kind().String()
		e.log.Info().Str("kind", kind).Str("codec", track.Codec().MimeType).Msg("remote track attached")
		if e.cb.OnRemoteTrack != nil {
			e.cb.OnRemoteTrack(kind)
		}
		go drain(track)
	})

	return e, nil
}

// CreateOffer creates an offer and sets it as the local description.
func (e *PionEngine) CreateOffer(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	if err := e.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	return offer.SDP, nil
}

// SetRemoteDescription applies the server's session description.
func (e *PionEngine) SetRemoteDescription(sdp string, typ SDPType) error {
	desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(string(typ)), SDP: sdp}
	if desc.Type == webrtc.SDPTypeUnknown {
		return fmt.Errorf("set remote description: unknown type %q", typ)
	}
	if err := e.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

// AddRemoteCandidate adds a candidate gathered by the server.
func (e *PionEngine) AddRemoteCandidate(c protocol.Candidate) error {
	cand, err := toInit(c)
	if err != nil {
		return fmt.Errorf("add ICE candidate: %w", err)
	}
	if err := e.pc.AddICECandidate(cand); err != nil {
		return fmt.Errorf("add ICE candidate: %w", err)
	}
	return nil
}

// RegisterLocalCandidate records a local candidate. pion applies its own
// candidates internally, so they are only kept for inspection.
func (e *PionEngine) RegisterLocalCandidate(c protocol.Candidate) {
	e.mu.Lock()
	e.local = append(e.local, c)
	e.mu.Unlock()
	e.log.Debug().Str("candidate", c.Candidate).Msg("local candidate registered")
}

func (e *PionEngine) localCandidates() []protocol.Candidate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]protocol.Candidate(nil), e.local...)
}

// Close shuts down the peer connection.
func (e *PionEngine) Close() error {
	return e.pc.Close()
}

func toInit(c protocol.Candidate) (webrtc.ICECandidateInit, error) {
	if c.SDPMLineIndex < 0 || c.SDPMLineIndex > math.MaxUint16 {
		return webrtc.ICECandidateInit{}, fmt.Errorf("sdpMLineIndex %d out of range", c.SDPMLineIndex)
	}
	mid := c.SDPMid
	index := uint16(c.SDPMLineIndex)
	return webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        &mid,
		SDPMLineIndex: &index,
	}, nil
}

func fromInit(init webrtc.ICECandidateInit) protocol.Candidate {
	c := protocol.Candidate{Candidate: init.Candidate}
	if init.SDPMid != nil {
		c.SDPMid = *init.SDPMid
	}
	if init.SDPMLineIndex != nil {
		c.SDPMLineIndex = int(*init.SDPMLineIndex)
	}
	return c
}

// drain reads and discards RTP until the track ends. Rendering happens
// outside this process.
func drain(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}
