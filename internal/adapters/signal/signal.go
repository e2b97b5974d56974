// Package signal is the WebSocket side of the hub: one read pump and one
// write pump per connection, decoding client frames into orchestrator calls.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
	SendBuffer int
	// ValidatePayloads checks offer/answer/candidate shapes before relaying.
	ValidatePayloads bool
	ChatRateLimit    int
	ChatRateInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

// pongWait must exceed PingPeriod so one missed pong is tolerated.
func (o Options) pongWait() time.Duration {
	return o.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	limiter *RoomRateLimiter
	opts    Options
	pumps   sync.WaitGroup
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		limiter: NewRoomRateLimiter(opts.ChatRateLimit, opts.ChatRateInterval),
		opts:    opts.withDefaults(),
	}
}

// WsSignalConn is the core.SignalConnection of one WebSocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close is idempotent. Frames still queued are discarded.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and starts the pumps. The connection
// lives until the peer goes away, it gets kicked, or ctx is cancelled.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(uuid.NewString())
	clientToken := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("client", clientToken).Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", clientToken).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	ctl.sendJSON(conn, protocol.Connected{Type: protocol.TypeConnected, ID: sid})

	ctl.pumps.Add(1)
	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, sid, conn)
}

// Wait blocks until every connection has run its disconnect path.
func (ctl *SignalWSController) Wait() {
	ctl.pumps.Wait()
}
