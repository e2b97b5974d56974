package signal_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv    *httptest.Server
	orch   *orch.Orchestrator
	cancel context.CancelFunc
}

func newTestServer(t *testing.T, opts signal.Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := orch.New(nil, nil, nil, orch.Options{NotifyUnknownTarget: true, MaxChatLength: 100})
	ctl := signal.NewSignalWSController(o, opts)
	ctx, cancel := context.WithCancel(context.Background())

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{srv: srv, orch: o, cancel: cancel}
}

type client struct {
	t  *testing.T
	ws *websocket.Conn
	id string
}

func (s *testServer) dial(t *testing.T) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	c := &client{t: t, ws: ws}
	var hello protocol.Connected
	c.expect(protocol.TypeConnected, &hello)
	require.NotEmpty(t, hello.ID)
	c.id = string(hello.ID)
	return c
}

func (c *client) send(v any) {
	c.t.Helper()
	require.NoError(c.t, c.ws.WriteJSON(v))
}

func (c *client) sendRaw(s string) {
	c.t.Helper()
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, []byte(s)))
}

func (c *client) read() (string, []byte) {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	var env protocol.Envelope
	require.NoError(c.t, json.Unmarshal(data, &env))
	return env.Type, data
}

func (c *client) expect(typ string, into any) []byte {
	c.t.Helper()
	got, data := c.read()
	require.Equal(c.t, typ, got, string(data))
	if into != nil {
		require.NoError(c.t, json.Unmarshal(data, into))
	}
	return data
}

func (c *client) expectError(want error) {
	c.t.Helper()
	var e protocol.Error
	c.expect(protocol.TypeError, &e)
	require.Equal(c.t, want.Error(), e.Message)
}

func (c *client) join(room, name string) protocol.RoomUsers {
	c.t.Helper()
	c.send(map[string]any{"type": "join-room", "roomId": room, "userName": name})
	var users protocol.RoomUsers
	c.expect(protocol.TypeRoomUsers, &users)
	return users
}

func TestSignal_JoinPresenceAndDisconnect(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, signal.Options{})

	alice := s.dial(t)
	users := alice.join("r1", "alice")
	req.Len(users.Users, 1)
	req.Equal(domain.SessionID(alice.id), users.Users[0].ID)
	req.Nil(users.Users[0].UserID)

	bob := s.dial(t)
	users = bob.join("r1", "bob")
	req.Len(users.Users, 2)
	req.Equal(domain.SessionID(alice.id), users.Users[0].ID)
	req.Equal(domain.SessionID(bob.id), users.Users[1].ID)

	var joined protocol.UserJoined
	alice.expect(protocol.TypeUserJoined, &joined)
	req.Equal(domain.SessionID(bob.id), joined.ID)
	req.Equal("bob", joined.Name)

	req.NoError(bob.ws.Close())
	var left protocol.UserLeft
	alice.expect(protocol.TypeUserLeft, &left)
	req.Equal(domain.SessionID(bob.id), left.UserID)

	req.NoError(alice.ws.Close())
	req.Eventually(func() bool { return len(s.orch.Rooms()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSignal_RelayKeepsPayloadBytes(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, signal.Options{ValidatePayloads: true})

	alice := s.dial(t)
	bob := s.dial(t)
	alice.join("r1", "alice")
	bob.join("r1", "bob")
	alice.expect(protocol.TypeUserJoined, nil)

	offer := `{ "sdp" : "v=0\r\n",  "type":"offer" }`
	alice.sendRaw(`{"type":"offer","to":"` + bob.id + `","offer":` + offer + `}`)

	data := bob.expect(protocol.TypeOffer, nil)
	req.Equal(`{"type":"offer","offer":`+offer+`,"from":"`+alice.id+`"}`, string(data))

	candidate := `{"candidate":"candidate:1 1 udp 2122260223 10.0.0.1 54321 typ host","sdpMid":"0","sdpMLineIndex":0}`
	bob.sendRaw(`{"type":"ice-candidate","to":"` + alice.id + `","candidate":` + candidate + `}`)
	data = alice.expect(protocol.TypeICECandidate, nil)
	req.Contains(string(data), `"candidate":`+candidate)

	alice.sendRaw(`{"type":"answer","to":"` + bob.id + `","answer":{"type":"offer","sdp":"v=0"}}`)
	alice.expect(protocol.TypeError, nil)

	alice.sendRaw(`{"type":"offer","to":"nobody","offer":` + offer + `}`)
	alice.expectError(domain.ErrPeerNotFound)
}

func TestSignal_ChatAndMediaState(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, signal.Options{ChatRateLimit: 2, ChatRateInterval: time.Minute})

	alice := s.dial(t)
	bob := s.dial(t)
	alice.join("r1", "alice")
	bob.join("r1", "bob")
	alice.expect(protocol.TypeUserJoined, nil)

	for _, text := range []string{"one", "two"} {
		alice.send(map[string]any{"type": "chat-message", "roomId": "r1", "message": text})
	}
	for _, c := range []*client{alice, bob} {
		for _, text := range []string{"one", "two"} {
			var msg protocol.ChatOut
			c.expect(protocol.TypeChatMessage, &msg)
			req.Equal(text, msg.Message)
			req.Equal("alice", msg.Sender)
			req.Equal(domain.SessionID(alice.id), msg.SenderID)
		}
	}

	alice.send(map[string]any{"type": "chat-message", "roomId": "r1", "message": "three"})
	alice.expectError(domain.ErrRateLimited)

	bob.send(map[string]any{"type": "media-state", "roomId": "r1", "isCameraOn": false, "isMicOn": true})
	var media protocol.UserMediaState
	alice.expect(protocol.TypeUserMediaState, &media)
	req.Equal(domain.SessionID(bob.id), media.UserID)
	req.False(media.IsCameraOn)
	req.True(media.IsMicOn)

	bob.send(map[string]any{"type": "chat-message", "roomId": "other", "message": "hi"})
	bob.expectError(domain.ErrNotInRoom)
}

func TestSignal_ControlAndBadFrames(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, signal.Options{})
	c := s.dial(t)

	c.send(map[string]any{"type": "ping"})
	c.expect(protocol.TypePong, nil)

	var who protocol.WhoAmI
	c.send(map[string]any{"type": "whoami"})
	c.expect(protocol.TypeWhoAmI, &who)
	req.Equal(domain.SessionID(c.id), who.ID)
	req.Empty(who.RoomID)

	c.sendRaw("not json")
	c.expectError(domain.ErrBadPayload)
	c.send(map[string]any{"type": "shout"})
	c.expectError(domain.ErrBadPayload)
	c.send(map[string]any{"type": "join-room", "roomId": "", "userName": "x"})
	c.expectError(domain.ErrInvalidJoin)

	c.join("r1", "carol")
	c.send(map[string]any{"type": "join-room", "roomId": "r2", "userName": "carol"})
	c.expectError(domain.ErrAlreadyJoined)

	c.send(map[string]any{"type": "whoami"})
	c.expect(protocol.TypeWhoAmI, &who)
	req.Equal("carol", who.Name)
	req.Equal(domain.RoomID("r1"), who.RoomID)
}

func TestSignal_ShutdownRunsDisconnect(t *testing.T) {
	req := require.New(t)
	s := newTestServer(t, signal.Options{})

	c := s.dial(t)
	c.join("r1", "dave")
	req.Len(s.orch.Rooms(), 1)

	s.cancel()
	req.Eventually(func() bool { return len(s.orch.Rooms()) == 0 }, 2*time.Second, 10*time.Millisecond)

	req.NoError(c.ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := c.ws.ReadMessage()
	req.Error(err)
}
