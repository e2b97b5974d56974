package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/stretchr/testify/require"
)

var errFull = errors.New("backpressure")

// fakeConn records every frame handed to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) raw() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

// ofType returns the frames of one message type, decoded into fresh T values.
func ofType[T any](t *testing.T, c *fakeConn, typ string) []T {
	t.Helper()
	var out []T
	for _, f := range c.raw() {
		var env protocol.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		if env.Type != typ {
			continue
		}
		var v T
		require.NoError(t, json.Unmarshal(f, &v))
		out = append(out, v)
	}
	return out
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func sessionIDs(users []domain.Session) []domain.SessionID {
	ids := make([]domain.SessionID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func joinReq(room, name string) domain.JoinRequest {
	return domain.JoinRequest{RoomID: domain.RoomID(room), UserName: name}
}

func newTestOrchestrator() *Orchestrator {
	return New(nil, nil, nil, Options{NotifyUnknownTarget: true, MaxChatLength: 100})
}
