package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Join moves sid from Unjoined to Joined. On error nothing was mutated and
// the error is meant for the requester only.
func (o *Orchestrator) Join(ctx context.Context, sid domain.SessionID, conn core.SignalConnection, req domain.JoinRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.UserID != "" {
		vctx, cancel := context.WithTimeout(ctx, o.opts.VerifyTimeout)
		err := o.verifier.Verify(vctx, req.UserID, req.Token)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Str("user_id", req.UserID).Msg("identity rejected")
			return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if cur, ok := o.registry.Lookup(sid); ok {
		log.Warn().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(cur.Session.RoomID)).Msg("join while joined")
		return domain.ErrAlreadyJoined
	}

	sess := domain.NewSession(sid, req, o.now())
	prior := o.rooms.Members(sess.RoomID)
	m := &app.Member{Session: sess, Conn: conn}
	o.registry.Register(sid, m)
	o.rooms.AddMember(sess.RoomID, sid)

	o.broadcast(prior, sid, protocol.NewUserJoined(sess))
	users := o.snapshot(sess.RoomID)
	o.send(sid, m, protocol.NewRoomUsers(users))

	o.sink.Set(sess.RoomID.ParticipantsPath()+"/"+string(sid), protocol.ParticipantRecord{
		Name:     sess.Name,
		UserID:   sess.UserID,
		JoinedAt: sess.JoinedAt,
	})
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(sess.RoomID)).Int("members", len(users)).Msg("joined")
	return nil
}

// Leave unwinds sid's membership. Unknown or already removed sessions are a no-op.
func (o *Orchestrator) Leave(sid domain.SessionID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	m, ok := o.registry.Remove(sid)
	if !ok {
		return
	}
	roomID := m.Session.RoomID
	_, roomDeleted := o.rooms.RemoveMember(roomID, sid)
	o.sink.Remove(roomID.ParticipantsPath() + "/" + string(sid))

	if roomDeleted {
		o.sink.Remove(roomID.Path())
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("left, room closed")
		return
	}
	o.broadcast(o.rooms.Members(roomID), sid, protocol.NewUserLeft(sid))
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("left")
}
