package orch

import (
	"encoding/json"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Relay forwards an offer, answer or ice-candidate payload from sid to the
// peer `to`. Peers must share a room; anything else counts as an unknown target.
func (o *Orchestrator) Relay(sid domain.SessionID, kind string, to domain.SessionID, payload json.RawMessage) error {
	if !protocol.IsNegotiation(kind) {
		return domain.ErrBadPayload
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	sender, ok := o.registry.Lookup(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	target, ok := o.registry.Lookup(to)
	if !ok || target.Session.RoomID != sender.Session.RoomID || to == sid {
		log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Str("to", string(to)).Str("kind", kind).Msg("relay target unknown")
		if o.opts.NotifyUnknownTarget {
			return domain.ErrPeerNotFound
		}
		return nil
	}

	o.deliver(to, target, protocol.RelayFrame(kind, sid, payload))
	log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Str("to", string(to)).Str("kind", kind).Msg("relayed")
	return nil
}

// member resolves sid and checks it is joined to roomID. Caller holds mu.
func (o *Orchestrator) member(sid domain.SessionID, roomID domain.RoomID) (*app.Member, error) {
	m, ok := o.registry.Lookup(sid)
	if !ok || m.Session.RoomID != roomID || !o.rooms.Contains(roomID, sid) {
		return nil, domain.ErrNotInRoom
	}
	return m, nil
}

// BroadcastChat stamps text and delivers it to the whole room, sender
// included, so every client renders the same ordered stream.
func (o *Orchestrator) BroadcastChat(sid domain.SessionID, roomID domain.RoomID, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sender, err := o.member(sid, roomID)
	if err != nil {
		return err
	}
	msg, err := domain.NewChatMessage(sender.Session, text, o.opts.MaxChatLength, o.now())
	if err != nil {
		return err
	}

	sent := o.broadcast(o.rooms.Members(roomID), "", protocol.NewChatOut(msg))
	o.sink.Push(roomID.MessagesPath(), msg)
	log.Debug().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomID)).Int("sent_to", sent).Msg("chat")
	return nil
}

// BroadcastMediaState records the sender's flags and tells everyone else.
func (o *Orchestrator) BroadcastMediaState(sid domain.SessionID, roomID domain.RoomID, state domain.MediaState) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.member(sid, roomID); err != nil {
		return err
	}
	o.registry.UpdateMedia(sid, state)
	o.broadcast(o.rooms.Members(roomID), sid, protocol.NewUserMediaState(sid, state))
	return nil
}
