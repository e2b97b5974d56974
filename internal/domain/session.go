// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type SessionID string

// Session is a live connection bound to exactly one room.
type Session struct {
	ID       SessionID   `json:"id"`
	Name     string      `json:"name"`
	RoomID   RoomID      `json:"roomId"`
	UserID   *string     `json:"userId"`
	JoinedAt time.Time   `json:"joinedAt"`
	Media    *MediaState `json:"media,omitempty"`
}

var validate = validator.New()

// JoinRequest is what a connection asks for when entering a room.
type JoinRequest struct {
	RoomID   RoomID `validate:"required,max=64"`
	UserName string `validate:"required,max=64"`
	UserID   string `validate:"max=128"`
	Token    string
}

// Normalize trims surrounding whitespace so " " is treated as empty.
func (r JoinRequest) Normalize() JoinRequest {
	r.RoomID = RoomID(strings.TrimSpace(string(r.RoomID)))
	r.UserName = strings.TrimSpace(r.UserName)
	r.UserID = strings.TrimSpace(r.UserID)
	return r
}

func (r JoinRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return ErrInvalidJoin
	}
	return nil
}

// NewSession builds the session committed on a successful join.
func NewSession(id SessionID, req JoinRequest, at time.Time) Session {
	return Session{
		ID:       id,
		Name:     req.UserName,
		RoomID:   req.RoomID,
		UserID:   lo.EmptyableToPtr(req.UserID),
		JoinedAt: at.UTC(),
	}
}
