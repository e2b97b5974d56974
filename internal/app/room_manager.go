package app

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type MemberSet map[domain.SessionID]struct{}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"memberCount"`
}

// RoomManager is the room directory: room id to member ids.
// A room exists only while it has at least one member.
// Like Registry it relies on the orchestrator for locking.
type RoomManager struct {
	rooms map[domain.RoomID]MemberSet
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[domain.RoomID]MemberSet)}
}

// EnsureRoom returns the member set of id, creating the room if needed.
func (f *RoomManager) EnsureRoom(id domain.RoomID) MemberSet {
	set, ok := f.rooms[id]
	if ok {
		return set
	}
	set = make(MemberSet)
	f.rooms[id] = set
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return set
}

func (f *RoomManager) AddMember(id domain.RoomID, sid domain.SessionID) {
	f.EnsureRoom(id)[sid] = struct{}{}
}

// RemoveMember drops sid from the room. When the room ends up empty it is
// deleted in the same step and roomDeleted is true.
func (f *RoomManager) RemoveMember(id domain.RoomID, sid domain.SessionID) (removed, roomDeleted bool) {
	set, ok := f.rooms[id]
	if !ok {
		return false, false
	}
	if _, removed = set[sid]; removed {
		delete(set, sid)
	}
	if len(set) == 0 {
		delete(f.rooms, id)
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
		return removed, true
	}
	return removed, false
}

// Members returns a point-in-time copy of the member ids. Order is arbitrary.
func (f *RoomManager) Members(id domain.RoomID) []domain.SessionID {
	return lo.Keys(f.rooms[id])
}

func (f *RoomManager) Has(id domain.RoomID) bool {
	_, ok := f.rooms[id]
	return ok
}

func (f *RoomManager) Contains(id domain.RoomID, sid domain.SessionID) bool {
	_, ok := f.rooms[id][sid]
	return ok
}

func (f *RoomManager) List() []RoomInfo {
	return lo.MapToSlice(f.rooms, func(id domain.RoomID, set MemberSet) RoomInfo {
		return RoomInfo{ID: id, MemberCount: len(set)}
	})
}
