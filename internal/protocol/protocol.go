// Package protocol is the JSON wire format of the signal WebSocket.
// Every frame is an object with a "type" field; the other fields are flat.
package protocol

import (
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

const (
	TypeJoinRoom       = "join-room"
	TypeRoomUsers      = "room-users"
	TypeUserJoined     = "user-joined"
	TypeUserLeft       = "user-left"
	TypeOffer          = "offer"
	TypeAnswer         = "answer"
	TypeICECandidate   = "ice-candidate"
	TypeChatMessage    = "chat-message"
	TypeMediaState     = "media-state"
	TypeUserMediaState = "user-media-state"
	TypePing           = "ping"
	TypePong           = "pong"
	TypeWhoAmI         = "whoami"
	TypeConnected      = "connected"
	TypeError          = "error"
)

type Envelope struct {
	Type string `json:"type"`
}

// Client to server.

type JoinRoom struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	UserID   string `json:"userId,omitempty"`
	Token    string `json:"token,omitempty"`
}

func (j JoinRoom) Request() domain.JoinRequest {
	return domain.JoinRequest{
		RoomID:   domain.RoomID(j.RoomID),
		UserName: j.UserName,
		UserID:   j.UserID,
		Token:    j.Token,
	}.Normalize()
}

type ChatIn struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
}

type MediaStateIn struct {
	RoomID     string `json:"roomId"`
	IsCameraOn bool   `json:"isCameraOn"`
	IsMicOn    bool   `json:"isMicOn"`
}

// Server to client.

type Connected struct {
	Type string           `json:"type"`
	ID   domain.SessionID `json:"id"`
}

type RoomUsers struct {
	Type  string           `json:"type"`
	Users []domain.Session `json:"users"`
}

type UserJoined struct {
	Type string `json:"type"`
	domain.Session
}

type UserLeft struct {
	Type   string           `json:"type"`
	UserID domain.SessionID `json:"userId"`
}

type ChatOut struct {
	Type string `json:"type"`
	domain.ChatMessage
}

type UserMediaState struct {
	Type       string           `json:"type"`
	UserID     domain.SessionID `json:"userId"`
	IsCameraOn bool             `json:"isCameraOn"`
	IsMicOn    bool             `json:"isMicOn"`
}

type WhoAmI struct {
	Type   string           `json:"type"`
	ID     domain.SessionID `json:"id"`
	Name   string           `json:"name,omitempty"`
	RoomID domain.RoomID    `json:"roomId,omitempty"`
}

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParticipantRecord is what the durability sink keeps per participant.
type ParticipantRecord struct {
	Name     string    `json:"name"`
	UserID   *string   `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}
