// Package protocol implements the JSON wire format spoken with the media
// server: outbound playback commands and the inbound messages it answers with.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for frames that are not valid JSON objects or
	// whose fields have the wrong types.
	ErrMalformed = errors.New("malformed message")
	// ErrIgnored is returned for well-formed frames that match no known
	// message shape.
	ErrIgnored = errors.New("ignored message")
)

// Encode serializes cmd as a JSON object carrying its id discriminant.
func Encode(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("encode: nil command")
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CommandID(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.CommandID(), err)
	}
	id, _ := json.Marshal(cmd.CommandID())
	fields["id"] = id
	return json.Marshal(fields)
}

// Decode classifies an inbound frame. Shapes are tried in a fixed order:
// the videoInfo, position and playEnd ids, then an sdpAnswer, then a
// candidate object, then serverUrl (reserved, ignored) and finally a
// type "OFFER" session description.
func Decode(data []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	id := stringField(fields, "id")
	switch id {
	case IDVideoInfo:
		var info VideoInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, fmt.Errorf("%w: videoInfo: %v", ErrMalformed, err)
		}
		return info, nil
	case IDPosition:
		raw, ok := fields["position"]
		if !ok {
			return nil, fmt.Errorf("%w: position without value", ErrMalformed)
		}
		var pos PositionUpdate
		if err := json.Unmarshal(raw, &pos.PositionMs); err != nil {
			return nil, fmt.Errorf("%w: position: %v", ErrMalformed, err)
		}
		return pos, nil
	case IDPlayEnd:
		return PlayEnd{}, nil
	}

	if answer := stringField(fields, "sdpAnswer"); answer != "" {
		return SessionAnswer{SDP: answer}, nil
	}

	if raw, ok := fields["candidate"]; ok {
		var c Candidate
		if err := json.Unmarshal(raw, &c); err == nil && c.Candidate != "" {
			return RemoteCandidate{Candidate: c}, nil
		}
	}

	// serverUrl frames are a reserved protocol extension.
	if _, ok := fields["serverUrl"]; ok {
		return nil, fmt.Errorf("%w: serverUrl", ErrIgnored)
	}

	if stringField(fields, "type") == "OFFER" {
		sdp := stringField(fields, "description")
		if sdp == "" {
			sdp = stringField(fields, "sdp")
		}
		return RemoteOffer{SDP: sdp}, nil
	}

	return nil, fmt.Errorf("%w: id %q", ErrIgnored, id)
}

// DecodeCommand parses an outbound frame back into its Command. It is the
// media server's view of the protocol.
func DecodeCommand(data []byte) (Command, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var cmd Command
	switch id := stringField(fields, "id"); id {
	case IDStart:
		var c StartSession
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		cmd = c
	case IDDoSeek:
		var c DoSeek
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		cmd = c
	case IDICECandidate:
		var c IceCandidate
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		cmd = c
	case IDPause:
		cmd = Pause{}
	case IDResume:
		cmd = Resume{}
	case IDStop:
		cmd = Stop{}
	case IDGetPosition:
		cmd = GetPosition{}
	default:
		return nil, fmt.Errorf("%w: id %q", ErrIgnored, id)
	}
	return cmd, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
