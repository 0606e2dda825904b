package signaling

import "github.com/junsooki/remoteplay/internal/protocol"

// EventKind identifies what happened on a channel.
type EventKind int

const (
	// Established is delivered once, before any Message.
	Established EventKind = iota + 1
	// Message carries one decoded inbound frame.
	Message
	// Closed reports that the connection ended or could not be opened.
	Closed
)

func (k EventKind) String() string {
	switch k {
	case Established:
		return "established"
	case Message:
		return "message"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Event is delivered on the subscriber channel passed in Options.
type Event struct {
	// Generation identifies the channel instance that produced the event.
	Generation uint64
	Kind       EventKind
	Message    protocol.Inbound
	Err        error
}
