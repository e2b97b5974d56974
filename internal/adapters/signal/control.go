package signal

import (
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, protocol.Envelope{Type: protocol.TypePong})
}

func (ctl *SignalWSController) handleWhoAmI(sid domain.SessionID, conn *WsSignalConn) {
	resp := protocol.WhoAmI{
		Type: protocol.TypeWhoAmI,
		ID:   sid,
	}
	if sess, ok := ctl.Orch.Whoami(sid); ok {
		resp.Name = sess.Name
		resp.RoomID = sess.RoomID
	}
	ctl.sendJSON(conn, resp)
}
