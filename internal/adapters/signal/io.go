package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, sid domain.SessionID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(ctl.opts.WriteWait))
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("writePump ping")
				return
			}
		}
	}
}

// readPump owns the disconnect path: whatever ends the loop, the session
// leaves its room exactly once from here.
func (ctl *SignalWSController) readPump(ctx context.Context, sid domain.SessionID, c *WsSignalConn) {
	defer ctl.pumps.Done()
	defer func() {
		ctl.Orch.Leave(sid)
		ctl.limiter.Forget(sid)
		c.Close()
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closed")
	}()

	pongWait := ctl.opts.pongWait()
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		ctl.handleSignal(ctx, sid, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, sid domain.SessionID, c *WsSignalConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.sendError(c, domain.ErrBadPayload)
		return
	}

	var err error
	switch env.Type {
	case protocol.TypeJoinRoom:
		err = ctl.handleJoin(ctx, sid, c, data)
	case protocol.TypeOffer, protocol.TypeAnswer, protocol.TypeICECandidate:
		err = ctl.handleRelay(sid, env.Type, data)
	case protocol.TypeChatMessage:
		err = ctl.handleChat(sid, data)
	case protocol.TypeMediaState:
		err = ctl.handleMediaState(sid, data)
	case protocol.TypePing:
		ctl.handlePing(c)
	case protocol.TypeWhoAmI:
		ctl.handleWhoAmI(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("type", env.Type).Msg("unknown signal")
		err = domain.ErrBadPayload
	}
	if err != nil {
		ctl.sendError(c, err)
	}
}

// decode fills v from a client frame; any failure is reported as a bad payload.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return domain.ErrBadPayload
	}
	return nil
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(frame); err != nil && !errors.Is(err, ErrConnClosed) {
		log.Warn().Err(err).Str("module", "signal").Msg("sendJSON")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, protocol.NewError(err))
}
