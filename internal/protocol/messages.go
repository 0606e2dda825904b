package protocol

// Outbound command identifiers. The media server dispatches on these.
const (
	IDStart        = "start"
	IDPause        = "pause"
	IDResume       = "resume"
	IDGetPosition  = "getPosition"
	IDDoSeek       = "doSeek"
	IDStop         = "stop"
	IDICECandidate = "onIceCandidate"
)

// Inbound message identifiers.
const (
	IDVideoInfo = "videoInfo"
	IDPosition  = "position"
	IDPlayEnd   = "playEnd"
)

// Candidate is an ICE candidate as carried on the wire.
type Candidate struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex int    `json:"sdpMLineIndex"`
}

// Command is a message sent to the media server.
type Command interface {
	CommandID() string
}

// StartSession asks the server to start playing VideoURL over the session
// described by SDPOffer.
type StartSession struct {
	SDPOffer string `json:"sdpOffer"`
	VideoURL string `json:"videourl"`
}

type Pause struct{}

type Resume struct{}

type Stop struct{}

type GetPosition struct{}

// DoSeek moves playback to PositionMs.
type DoSeek struct {
	PositionMs int `json:"position"`
}

// IceCandidate forwards a locally gathered candidate to the server.
type IceCandidate struct {
	Candidate Candidate `json:"candidate"`
}

func (StartSession) CommandID() string { return IDStart }
func (Pause) CommandID() string        { return IDPause }
func (Resume) CommandID() string       { return IDResume }
func (Stop) CommandID() string         { return IDStop }
func (GetPosition) CommandID() string  { return IDGetPosition }
func (DoSeek) CommandID() string       { return IDDoSeek }
func (IceCandidate) CommandID() string { return IDICECandidate }

// Inbound is a decoded message from the media server. The set of
// implementations is closed.
type Inbound interface {
	inbound()
}

// VideoInfo describes the video currently loaded by the server.
type VideoInfo struct {
	IsSeekable    bool `json:"isSeekable"`
	SeekableStart int  `json:"initSeekable"`
	SeekableEnd   int  `json:"endSeekable"`
	DurationMs    int  `json:"videoDuration"`
}

// PositionUpdate reports the current playback position.
type PositionUpdate struct {
	PositionMs int `json:"position"`
}

// PlayEnd reports that the remote stream reached its end.
type PlayEnd struct{}

// SessionAnswer carries the server's SDP answer to our offer.
type SessionAnswer struct {
	SDP string
}

// RemoteCandidate is an ICE candidate gathered by the server.
type RemoteCandidate struct {
	Candidate Candidate
}

// RemoteOffer is a server-initiated session description.
type RemoteOffer struct {
	SDP string
}

func (VideoInfo) inbound()       {}
func (PositionUpdate) inbound()  {}
func (PlayEnd) inbound()         {}
func (SessionAnswer) inbound()   {}
func (RemoteCandidate) inbound() {}
func (RemoteOffer) inbound()     {}
