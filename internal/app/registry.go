package app

import (
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Member pairs a joined session with the endpoint that delivers to it.
type Member struct {
	Session domain.Session
	Conn    core.SignalConnection
}

// Registry maps a live connection id to its session.
// It is not safe for concurrent use; the orchestrator serializes access
// together with the RoomManager.
type Registry struct {
	members map[domain.SessionID]*Member
}

func NewRegistry() *Registry {
	return &Registry{
		members: make(map[domain.SessionID]*Member),
	}
}

// Register stores m under sid. Ids are unique per connection, an existing
// entry is overwritten.
func (r *Registry) Register(sid domain.SessionID, m *Member) {
	r.members[sid] = m
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(m.Session.RoomID)).Msg("registered session")
}

func (r *Registry) Lookup(sid domain.SessionID) (*Member, bool) {
	m, ok := r.members[sid]
	return m, ok
}

// Remove deletes sid and returns what was stored.
func (r *Registry) Remove(sid domain.SessionID) (*Member, bool) {
	m, ok := r.members[sid]
	if !ok {
		return nil, false
	}
	delete(r.members, sid)
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("removed session")
	return m, true
}

func (r *Registry) UpdateMedia(sid domain.SessionID, state domain.MediaState) bool {
	m, ok := r.members[sid]
	if !ok {
		return false
	}
	m.Session.Media = &state
	return true
}

func (r *Registry) Len() int {
	return len(r.members)
}
