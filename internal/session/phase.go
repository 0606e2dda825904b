package session

// Phase is the lifecycle stage of the playback session.
type Phase int32

const (
	// Idle means no session has been negotiated on the current channel.
	Idle Phase = iota
	// Active means an offer was sent; position polling runs.
	Active
	// Ended means the server reported end of stream or the session was
	// torn down. Leaving it requires a reinitialization.
	Ended
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Ended:
		return "ended"
	}
	return "unknown"
}
