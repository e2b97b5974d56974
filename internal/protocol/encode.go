package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Encode marshals one outbound message.
func Encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

func NewRoomUsers(users []domain.Session) RoomUsers {
	if users == nil {
		users = []domain.Session{}
	}
	return RoomUsers{Type: TypeRoomUsers, Users: users}
}

func NewUserJoined(s domain.Session) UserJoined {
	return UserJoined{Type: TypeUserJoined, Session: s}
}

func NewUserLeft(sid domain.SessionID) UserLeft {
	return UserLeft{Type: TypeUserLeft, UserID: sid}
}

func NewChatOut(m domain.ChatMessage) ChatOut {
	return ChatOut{Type: TypeChatMessage, ChatMessage: m}
}

func NewUserMediaState(sid domain.SessionID, s domain.MediaState) UserMediaState {
	return UserMediaState{Type: TypeUserMediaState, UserID: sid, IsCameraOn: s.IsCameraOn, IsMicOn: s.IsMicOn}
}

func NewError(err error) Error {
	return Error{Type: TypeError, Message: err.Error()}
}

// IsNegotiation reports whether kind is relayed peer to peer.
func IsNegotiation(kind string) bool {
	return kind == TypeOffer || kind == TypeAnswer || kind == TypeICECandidate
}

// PayloadField names the field carrying the opaque payload of kind.
func PayloadField(kind string) string {
	if kind == TypeICECandidate {
		return "candidate"
	}
	return kind
}

// DecodeNegotiation extracts target and payload of an offer, answer or
// ice-candidate frame. The payload keeps the exact bytes the client sent.
func DecodeNegotiation(kind string, data []byte) (to domain.SessionID, payload json.RawMessage, err error) {
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(data, &fields); err != nil {
		return "", nil, domain.ErrBadPayload
	}
	payload, ok := fields[PayloadField(kind)]
	if !ok || len(payload) == 0 {
		return "", nil, domain.ErrBadPayload
	}
	var target string
	if err = json.Unmarshal(fields["to"], &target); err != nil || target == "" {
		return "", nil, domain.ErrBadPayload
	}
	return domain.SessionID(target), payload, nil
}

// RelayFrame builds {"type":kind,"<field>":payload,"from":from} without
// re-encoding payload, so the receiver gets the sender's bytes verbatim.
func RelayFrame(kind string, from domain.SessionID, payload json.RawMessage) core.Frame {
	fromJSON, _ := json.Marshal(string(from))
	kindJSON, _ := json.Marshal(kind)
	fieldJSON, _ := json.Marshal(PayloadField(kind))

	var buf bytes.Buffer
	buf.Grow(len(payload) + len(fromJSON) + 48)
	buf.WriteString(`{"type":`)
	buf.Write(kindJSON)
	buf.WriteByte(',')
	buf.Write(fieldJSON)
	buf.WriteByte(':')
	buf.Write(payload)
	buf.WriteString(`,"from":`)
	buf.Write(fromJSON)
	buf.WriteByte('}')
	return core.Frame(buf.Bytes())
}
