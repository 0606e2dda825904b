// Package session drives a remote playback session: it owns the session
// phase, the signaling channel, the media engine and the position poller,
// and serializes every transition on a single goroutine.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xlog "github.com/junsooki/remoteplay/internal/log"
	"github.com/junsooki/remoteplay/internal/media"
	"github.com/junsooki/remoteplay/internal/poller"
	"github.com/junsooki/remoteplay/internal/protocol"
	"github.com/junsooki/remoteplay/internal/signaling"
)

// ThrottleWarning is shown when the seek throttle cannot be parsed.
const ThrottleWarning = "Wrong throttle ms, default to 0"

const inboxSize = 64

// Channel is the signaling connection as seen by the Machine.
type Channel interface {
	Connect(ctx context.Context)
	Send(cmd protocol.Command)
	Disconnect()
}

// ChannelFactory creates the channel for one generation. The channel must
// stamp gen on every event it writes to events.
type ChannelFactory func(gen uint64, sessionID string, events chan<- signaling.Event) Channel

// Options configures a Machine.
type Options struct {
	Videos       []string
	PollInterval time.Duration
	// SeekThrottle is the initial seek throttle in milliseconds, as text.
	SeekThrottle string

	NewChannel ChannelFactory
	NewEngine  media.Factory
	Presenter  Presenter
	Logger     zerolog.Logger
}

// Inputs posted to the Run goroutine.
type (
	playIntent     struct{}
	pauseIntent    struct{}
	switchIntent   struct{}
	seekIntent     struct{ seconds int }
	throttleIntent struct{ text string }
	seekFire       struct{ seconds int }

	offerResult struct {
		gen     uint64
		sdp     string
		err     error
		onOffer func(sdp string)
	}
	localCandidate struct {
		gen       uint64
		candidate protocol.Candidate
	}
	remoteTrack struct {
		gen  uint64
		kind string
	}
)

// Machine is the session state machine. Its exported methods may be called
// from any goroutine; all state is owned by Run.
type Machine struct {
	opts      Options
	log       zerolog.Logger
	presenter Presenter

	inbox   chan any
	events  chan signaling.Event
	stopped chan struct{}

	// Owned by Run.
	ctx         context.Context
	phase       Phase
	selector    *VideoSelector
	metadata    *protocol.VideoInfo
	gen         uint64
	sessionID   string
	channel     Channel
	engine      media.Engine
	established bool
	offer       func(sdp string)
	pending     func()
	poller      *poller.Poller
	throttle    *Throttle

	phaseView atomic.Int32
	indexView atomic.Int32
}

// New creates a Machine. It panics if opts has no videos or factories.
func New(opts Options) *Machine {
	if opts.NewChannel == nil || opts.NewEngine == nil {
		panic("session: channel and engine factories are required")
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = NopPresenter{}
	}

	m := &Machine{
		opts:      opts,
		log:       opts.Logger,
		presenter: presenter,
		inbox:     make(chan any, inboxSize),
		events:    make(chan signaling.Event, inboxSize),
		stopped:   make(chan struct{}),
		selector:  NewVideoSelector(opts.Videos),
		poller:    poller.New(opts.PollInterval),
	}
	m.throttle = NewThrottle(func(seconds int) { m.post(seekFire{seconds}) })
	return m
}

// Play resumes the session, starts one, or restarts an ended one.
func (m *Machine) Play() { m.post(playIntent{}) }

// Pause pauses an active session.
func (m *Machine) Pause() { m.post(pauseIntent{}) }

// Switch restarts the session on the next video.
func (m *Machine) Switch() { m.post(switchIntent{}) }

// Seek moves playback to the given slider position in seconds.
func (m *Machine) Seek(seconds int) { m.post(seekIntent{seconds}) }

// SetThrottle sets the seek throttle from operator input in milliseconds.
func (m *Machine) SetThrottle(text string) { m.post(throttleIntent{text}) }

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return Phase(m.phaseView.Load()) }

// VideoIndex returns the index of the current video.
func (m *Machine) VideoIndex() int { return int(m.indexView.Load()) }

func (m *Machine) post(in any) {
	select {
	case m.inbox <- in:
	case <-m.stopped:
	}
}

// Run builds the first channel and engine and processes inputs until ctx is
// cancelled, then sends Stop and tears everything down.
func (m *Machine) Run(ctx context.Context) error {
	defer close(m.stopped)
	m.ctx = ctx

	m.applyThrottle(m.opts.SeekThrottle)
	m.build()
	m.offer = m.offerAction(false)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case ev := <-m.events:
			m.handleEvent(ev)
		case in := <-m.inbox:
			m.handleInput(in)
		}
	}
}

func (m *Machine) handleInput(in any) {
	switch in := in.(type) {
	case playIntent:
		m.play()
	case pauseIntent:
		if m.phase != Active {
			m.log.Debug().Str("phase", m.phase.String()).Msg("pause ignored")
			return
		}
		m.channel.Send(protocol.Pause{})
	case switchIntent:
		m.reinit(true)
	case seekIntent:
		if m.phase != Active {
			m.log.Debug().Str("phase", m.phase.String()).Msg("seek ignored")
			return
		}
		if m.throttle.Submit(in.seconds) {
			m.seek(in.seconds)
		}
	case seekFire:
		if m.phase == Active {
			m.seek(in.seconds)
		}
	case throttleIntent:
		m.applyThrottle(in.text)
	case offerResult:
		if in.gen != m.gen {
			m.log.Debug().Uint64(xlog.FieldGeneration, in.gen).Msg("stale offer dropped")
			return
		}
		if in.err != nil {
			m.log.Error().Err(in.err).Msg("create offer")
			m.presenter.Warn(fmt.Sprintf("offer failed: %v", in.err))
			return
		}
		in.onOffer(in.sdp)
	case localCandidate:
		if in.gen != m.gen {
			return
		}
		m.channel.Send(protocol.IceCandidate{Candidate: in.candidate})
		if m.engine != nil {
			m.engine.RegisterLocalCandidate(in.candidate)
		}
	case remoteTrack:
		if in.gen == m.gen {
			m.presenter.StreamAttached(in.kind)
		}
	default:
		m.log.Error().Str("type", fmt.Sprintf("%T", in)).Msg("unknown input")
	}
}

func (m *Machine) handleEvent(ev signaling.Event) {
	if ev.Generation != m.gen {
		m.log.Debug().
			Uint64(xlog.FieldGeneration, ev.Generation).
			Stringer(xlog.FieldEvent, ev.Kind).
			Msg("stale channel event dropped")
		return
	}

	switch ev.Kind {
	case signaling.Established:
		m.established = true
		m.presenter.ConnectionEstablished()
		if action := m.pending; action != nil {
			m.pending = nil
			action()
		}
	case signaling.Closed:
		// The channel is dead; Play from Ended or Switch rebuilds it.
		m.established = false
		m.poller.Stop()
		m.throttle.Cancel()
		m.pending = nil
		m.log.Warn().Err(ev.Err).Msg("signaling connection lost")
		m.setPhase(Ended)
		m.presenter.ConnectionLost()
	case signaling.Message:
		m.handleMessage(ev.Message)
	}
}

func (m *Machine) handleMessage(msg protocol.Inbound) {
	switch msg := msg.(type) {
	case protocol.VideoInfo:
		m.metadata = &msg
		m.presenter.DurationChanged(FormatClock(msg.DurationMs), msg.DurationMs/1000)
	case protocol.PositionUpdate:
		if m.metadata == nil {
			return
		}
		text := FormatClock(msg.PositionMs) + "/" + FormatClock(m.metadata.DurationMs)
		m.presenter.PositionChanged(text, msg.PositionMs/1000)
	case protocol.PlayEnd:
		if m.phase != Active {
			return
		}
		m.poller.Stop()
		m.setPhase(Ended)
	case protocol.SessionAnswer:
		m.applyRemoteDescription(msg.SDP, media.SDPTypeAnswer)
	case protocol.RemoteOffer:
		m.applyRemoteDescription(msg.SDP, media.SDPTypeOffer)
	case protocol.RemoteCandidate:
		if m.engine == nil {
			return
		}
		if err := m.engine.AddRemoteCandidate(msg.Candidate); err != nil {
			m.log.Warn().Err(err).Msg("remote candidate rejected")
		}
	}
}

func (m *Machine) play() {
	switch m.phase {
	case Idle:
		offer := m.offer
		action := func() { m.call(offer) }
		if m.established {
			action()
			return
		}
		m.pending = action
	case Active:
		m.channel.Send(protocol.Resume{})
	case Ended:
		m.reinit(false)
	}
}

// call starts a session: the offer goes out once the engine produces it.
func (m *Machine) call(onOffer func(sdp string)) {
	m.setPhase(Active)
	m.createOffer(onOffer)
	m.startPolling()
}

func (m *Machine) createOffer(onOffer func(sdp string)) {
	if m.engine == nil {
		m.presenter.Warn("no media engine")
		return
	}
	engine, gen, ctx := m.engine, m.gen, m.ctx
	go func() {
		sdp, err := engine.CreateOffer(ctx)
		m.post(offerResult{gen: gen, sdp: sdp, err: err, onOffer: onOffer})
	}()
}

// offerAction returns the offer-created handler for the current generation.
// The video index is persisted only when the handler runs.
func (m *Machine) offerAction(advance bool) func(sdp string) {
	return func(sdp string) {
		url := m.selector.Select(advance)
		m.channel.Send(protocol.StartSession{SDPOffer: sdp, VideoURL: url})
		if advance {
			m.selector.Advance()
			m.indexView.Store(int32(m.selector.Index()))
		}
		m.log.Info().Str("video", url).Msg("session started")
	}
}

func (m *Machine) startPolling() {
	ch := m.channel
	m.poller.Start(func() { ch.Send(protocol.GetPosition{}) })
}

func (m *Machine) seek(seconds int) {
	m.channel.Send(protocol.DoSeek{PositionMs: seconds * 1000})
}

func (m *Machine) applyThrottle(text string) {
	d, ok := ParseThrottle(text)
	if !ok {
		m.log.Warn().Str("input", text).Msg("invalid seek throttle")
		m.presenter.Warn(ThrottleWarning)
	}
	m.throttle.SetInterval(d)
}

func (m *Machine) applyRemoteDescription(sdp string, typ media.SDPType) {
	if m.engine != nil {
		if err := m.engine.SetRemoteDescription(sdp, typ); err != nil {
			m.log.Warn().Err(err).Str("type", string(typ)).Msg("remote description rejected")
		}
	}
	m.presenter.RemoteDescriptionReceived()
}

// build creates the engine and channel of a new generation and connects.
func (m *Machine) build() {
	m.gen++
	m.sessionID = uuid.NewString()
	m.log = m.opts.Logger.With().
		Uint64(xlog.FieldGeneration, m.gen).
		Str(xlog.FieldSessionID, m.sessionID).
		Logger()

	m.engine = m.newEngine()
	m.presenter.BindSurface()

	m.channel = m.opts.NewChannel(m.gen, m.sessionID, m.events)
	m.channel.Connect(context.WithoutCancel(m.ctx))
}

func (m *Machine) newEngine() media.Engine {
	gen := m.gen
	engine, err := m.opts.NewEngine(media.Callbacks{
		OnLocalCandidate: func(c protocol.Candidate) {
			m.post(localCandidate{gen: gen, candidate: c})
		},
		OnRemoteTrack: func(kind string) {
			m.post(remoteTrack{gen: gen, kind: kind})
		},
	})
	if err != nil {
		m.log.Error().Err(err).Msg("create media engine")
		m.presenter.Warn(fmt.Sprintf("media engine unavailable: %v", err))
		return nil
	}
	return engine
}

// reinit tears the current generation down and builds the next one. The
// order of the steps is significant.
func (m *Machine) reinit(advance bool) {
	m.log.Info().Bool("advance", advance).Msg("reinitializing session")

	m.poller.Stop()
	m.throttle.Cancel()
	m.channel.Send(protocol.Stop{})
	m.teardown()
	m.setPhase(Idle)
	m.metadata = nil

	m.presenter.ReleaseSurface()
	m.build()

	offer := m.offerAction(advance)
	m.offer = offer
	m.pending = func() { m.call(offer) }
}

func (m *Machine) teardown() {
	m.channel.Disconnect()
	m.established = false
	if m.engine != nil {
		if err := m.engine.Close(); err != nil {
			m.log.Warn().Err(err).Msg("close media engine")
		}
		m.engine = nil
	}
}

func (m *Machine) shutdown() {
	m.log.Info().Msg("shutting down")
	m.poller.Stop()
	m.throttle.Cancel()
	m.pending = nil
	m.channel.Send(protocol.Stop{})
	m.teardown()
	m.setPhase(Ended)
}

func (m *Machine) setPhase(p Phase) {
	if p == m.phase {
		return
	}
	old := m.phase
	m.phase = p
	m.phaseView.Store(int32(p))
	m.log.Info().Stringer(xlog.FieldOldPhase, old).Stringer(xlog.FieldNewPhase, p).Msg("phase changed")
	m.presenter.PhaseChanged(old, p)
}
