package domain

import "errors"

var (
	ErrInvalidJoin     = errors.New("roomId and userName are required")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrAlreadyJoined   = errors.New("already joined")
	ErrNotInRoom       = errors.New("not in room")
	ErrPeerNotFound    = errors.New("peer not found")
	ErrEmptyMessage    = errors.New("message empty")
	ErrMessageTooLong  = errors.New("message too long")
	ErrRateLimited     = errors.New("too many messages")
	ErrBadPayload      = errors.New("bad payload")
)
