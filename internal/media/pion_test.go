package media

import (
	"context"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/remoteplay/internal/protocol"
)

func newTestEngine(t *testing.T) *PionEngine {
	t.Helper()
	e, err := NewPionEngine(nil, Callbacks{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestCreateOfferRequestsAudioAndVideo(t *testing.T) {
	e := newTestEngine(t)

	sdp, err := e.CreateOffer(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sdp, "m=video")
	assert.Contains(t, sdp, "m=audio")
	assert.Contains(t, sdp, "a=recvonly")
}

func TestCreateOfferHonoursCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.CreateOffer(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyAnswerFromRemotePeer(t *testing.T) {
	e := newTestEngine(t)
	offer, err := e.CreateOffer(context.Background())
	require.NoError(t, err)

	remote, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer remote.Close()

	require.NoError(t, remote.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer}))
	answer, err := remote.CreateAnswer(nil)
	require.NoError(t, err)
	require.NoError(t, remote.SetLocalDescription(answer))

	assert.NoError(t, e.SetRemoteDescription(answer.SDP, SDPTypeAnswer))
}

func TestSetRemoteDescriptionRejectsBadInput(t *testing.T) {
	e := newTestEngine(t)

	assert.Error(t, e.SetRemoteDescription("v=0", SDPType("bogus")))
	assert.Error(t, e.SetRemoteDescription("not sdp", SDPTypeAnswer))
}

func TestRegisterLocalCandidate(t *testing.T) {
	e := newTestEngine(t)
	c := protocol.Candidate{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: "0"}

	e.RegisterLocalCandidate(c)
	assert.Equal(t, []protocol.Candidate{c}, e.localCandidates())
}

func TestCandidateConversion(t *testing.T) {
	c := protocol.Candidate{Candidate: "candidate:1", SDPMid: "1", SDPMLineIndex: 1}
	init, err := toInit(c)
	require.NoError(t, err)
	assert.Equal(t, c, fromInit(init))
	assert.Equal(t, protocol.Candidate{Candidate: "x"}, fromInit(webrtc.ICECandidateInit{Candidate: "x"}))
}

func TestPionFactory(t *testing.T) {
	f := NewPionFactory(nil, zerolog.Nop())
	e, err := f(Callbacks{})
	require.NoError(t, err)
	assert.NoError(t, e.Close())
}

func TestAddRemoteCandidateRejectsLineIndexOutOfRange(t *testing.T) {
	e := newTestEngine(t)
	for _, index := range []int{-1, 65536, 1 << 20} {
		c := protocol.Candidate{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: "0", SDPMLineIndex: index}
		assert.ErrorContains(t, e.AddRemoteCandidate(c), "out of range", "index %d", index)
	}
}
