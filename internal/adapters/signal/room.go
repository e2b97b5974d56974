package signal

import (
	"context"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	sid domain.SessionID,
	conn *WsSignalConn,
	data []byte,
) error {
	var p protocol.JoinRoom
	if err := decode(data, &p); err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join")
	return ctl.Orch.Join(ctx, sid, conn, p.Request())
}

func (ctl *SignalWSController) handleChat(sid domain.SessionID, data []byte) error {
	var p protocol.ChatIn
	if err := decode(data, &p); err != nil {
		return err
	}
	if !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("chat rate limited")
		return domain.ErrRateLimited
	}
	return ctl.Orch.BroadcastChat(sid, domain.RoomID(p.RoomID), p.Message)
}

func (ctl *SignalWSController) handleMediaState(sid domain.SessionID, data []byte) error {
	var p protocol.MediaStateIn
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.BroadcastMediaState(sid, domain.RoomID(p.RoomID), domain.MediaState{
		IsCameraOn: p.IsCameraOn,
		IsMicOn:    p.IsMicOn,
	})
}
