package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/mocks"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestJoinLeave_Scenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}

	// A joins R1 and sees only itself.
	req.NoError(o.Join(ctx, "A", a, joinReq("R1", "alice")))
	snaps := ofType[protocol.RoomUsers](t, a, protocol.TypeRoomUsers)
	req.Len(snaps, 1)
	req.Equal([]domain.SessionID{"A"}, sessionIDs(snaps[0].Users))

	// B joins and sees A then B; A is told about B.
	req.NoError(o.Join(ctx, "B", b, joinReq("R1", "bob")))
	snaps = ofType[protocol.RoomUsers](t, b, protocol.TypeRoomUsers)
	req.Len(snaps, 1)
	req.Equal([]domain.SessionID{"A", "B"}, sessionIDs(snaps[0].Users))
	joined := ofType[protocol.UserJoined](t, a, protocol.TypeUserJoined)
	req.Len(joined, 1)
	req.Equal(domain.SessionID("B"), joined[0].ID)
	req.Equal("bob", joined[0].Name)
	req.Empty(ofType[protocol.UserJoined](t, b, protocol.TypeUserJoined))

	// A offers to B.
	req.NoError(o.Relay("A", protocol.TypeOffer, "B", []byte(`{"sdp":"x"}`)))
	offers := ofType[struct {
		Offer map[string]string `json:"offer"`
		From  string            `json:"from"`
	}](t, b, protocol.TypeOffer)
	req.Len(offers, 1)
	req.Equal(map[string]string{"sdp": "x"}, offers[0].Offer)
	req.Equal("A", offers[0].From)

	// B leaves, A is told.
	o.Leave("B")
	left := ofType[protocol.UserLeft](t, a, protocol.TypeUserLeft)
	req.Len(left, 1)
	req.Equal(domain.SessionID("B"), left[0].UserID)

	// A leaves, the room is gone.
	o.Leave("A")
	_, ok := o.Snapshot("R1")
	req.False(ok)
	req.Empty(o.Rooms())
}

func TestJoin_PresenceCoversAllMembers(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			req := require.New(t)
			o := newTestOrchestrator()
			conns := make([]*fakeConn, n)
			for i := range conns {
				conns[i] = &fakeConn{}
				req.NoError(o.Join(context.Background(), domain.SessionID(fmt.Sprintf("s%d", i)), conns[i], joinReq("R", fmt.Sprintf("u%d", i))))
			}

			// Each earlier member learns about every later joiner.
			for i, c := range conns {
				joined := ofType[protocol.UserJoined](t, c, protocol.TypeUserJoined)
				req.Len(joined, n-1-i)
			}

			seen := map[domain.SessionID]bool{}
			for _, j := range ofType[protocol.UserJoined](t, conns[0], protocol.TypeUserJoined) {
				seen[j.ID] = true
			}
			last := ofType[protocol.RoomUsers](t, conns[n-1], protocol.TypeRoomUsers)
			req.Len(last, 1)
			for _, u := range last[0].Users {
				seen[u.ID] = true
			}
			req.Len(seen, n)
			rooms := o.Rooms()
			req.Len(rooms, 1)
			req.Equal(n, rooms[0].MemberCount)
		})
	}
}

func TestJoin_Validation(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	c := &fakeConn{}

	req.ErrorIs(o.Join(context.Background(), "A", c, joinReq("", "alice")), domain.ErrInvalidJoin)
	req.ErrorIs(o.Join(context.Background(), "A", c, joinReq("R1", "")), domain.ErrInvalidJoin)
	req.Empty(o.Rooms())
	req.Zero(c.count())
	_, ok := o.Whoami("A")
	req.False(ok)
}

func TestJoin_AlreadyJoinedIsRejected(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	c := &fakeConn{}

	req.NoError(o.Join(context.Background(), "A", c, joinReq("R1", "alice")))
	req.ErrorIs(o.Join(context.Background(), "A", c, joinReq("R2", "alice")), domain.ErrAlreadyJoined)
	req.ErrorIs(o.Join(context.Background(), "A", c, joinReq("R1", "alice")), domain.ErrAlreadyJoined)

	rooms := o.Rooms()
	req.Len(rooms, 1)
	req.Equal(domain.RoomID("R1"), rooms[0].ID)
	req.Equal(1, rooms[0].MemberCount)
}

func TestJoin_IdentityVerification(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	verifier := mocks.NewMockIdentityVerifier(ctrl)
	o := New(nil, verifier, nil, Options{})

	verifier.EXPECT().Verify(gomock.Any(), "u-bad", "tok").Return(errors.New("no such user")).Times(1)
	err := o.Join(context.Background(), "A", &fakeConn{}, domain.JoinRequest{RoomID: "R1", UserName: "alice", UserID: "u-bad", Token: "tok"})
	req.ErrorIs(err, domain.ErrUnauthenticated)
	req.Empty(o.Rooms())

	verifier.EXPECT().Verify(gomock.Any(), "u-good", "tok").Return(nil).Times(1)
	c := &fakeConn{}
	req.NoError(o.Join(context.Background(), "B", c, domain.JoinRequest{RoomID: "R1", UserName: "bob", UserID: "u-good", Token: "tok"}))
	snaps := ofType[protocol.RoomUsers](t, c, protocol.TypeRoomUsers)
	req.Len(snaps, 1)
	req.NotNil(snaps[0].Users[0].UserID)
	req.Equal("u-good", *snaps[0].Users[0].UserID)

	// Anonymous joins skip the verifier entirely.
	req.NoError(o.Join(context.Background(), "C", &fakeConn{}, joinReq("R1", "carol")))
}

func TestLeave_RecreatedRoomIsFresh(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()

	req.NoError(o.Join(context.Background(), "A", &fakeConn{}, joinReq("R1", "alice")))
	req.NoError(o.Join(context.Background(), "B", &fakeConn{}, joinReq("R1", "bob")))
	o.Leave("A")
	o.Leave("B")
	_, ok := o.Snapshot("R1")
	req.False(ok)

	c := &fakeConn{}
	req.NoError(o.Join(context.Background(), "C", c, joinReq("R1", "carol")))
	users, ok := o.Snapshot("R1")
	req.True(ok)
	req.Equal([]domain.SessionID{"C"}, sessionIDs(users))
	snaps := ofType[protocol.RoomUsers](t, c, protocol.TypeRoomUsers)
	req.Equal([]domain.SessionID{"C"}, sessionIDs(snaps[0].Users))
}

func TestLeave_Idempotent(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	a := &fakeConn{}

	req.NoError(o.Join(context.Background(), "A", a, joinReq("R1", "alice")))
	req.NoError(o.Join(context.Background(), "B", &fakeConn{}, joinReq("R1", "bob")))

	o.Leave("B")
	o.Leave("B")
	o.Leave("never-joined")

	req.Len(ofType[protocol.UserLeft](t, a, protocol.TypeUserLeft), 1)
	users, ok := o.Snapshot("R1")
	req.True(ok)
	req.Equal([]domain.SessionID{"A"}, sessionIDs(users))
}

func TestSink_WritesFollowCommits(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	o := New(sink, nil, nil, Options{})

	gomock.InOrder(
		sink.EXPECT().Set("rooms/R1/participants/A", gomock.Any()).Do(func(_ string, v any) {
			rec, ok := v.(protocol.ParticipantRecord)
			req.True(ok)
			req.Equal("alice", rec.Name)
		}),
		sink.EXPECT().Set("rooms/R1/participants/B", gomock.Any()),
		sink.EXPECT().Push("rooms/R1/messages", gomock.Any()).Do(func(_ string, v any) {
			msg, ok := v.(domain.ChatMessage)
			req.True(ok)
			req.Equal("hi", msg.Message)
		}),
		sink.EXPECT().Remove("rooms/R1/participants/B"),
		sink.EXPECT().Remove("rooms/R1/participants/A"),
		sink.EXPECT().Remove("rooms/R1"),
	)

	req.NoError(o.Join(context.Background(), "A", &fakeConn{}, joinReq("R1", "alice")))
	req.NoError(o.Join(context.Background(), "B", &fakeConn{}, joinReq("R1", "bob")))
	req.NoError(o.BroadcastChat("A", "R1", "hi"))
	o.Leave("B")
	o.Leave("A")
}

func TestSink_NotCalledOnRejectedJoin(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	o := New(sink, nil, nil, Options{})

	// No EXPECT: any sink call fails the test.
	require.Error(t, o.Join(context.Background(), "A", &fakeConn{}, joinReq("", "alice")))
	o.Leave("A")
}

func TestBackpressure_KickClosesSlowMember(t *testing.T) {
	req := require.New(t)
	o := New(nil, nil, app.KickPolicy{}, Options{})
	a, b := &fakeConn{}, &fakeConn{}

	req.NoError(o.Join(context.Background(), "A", a, joinReq("R1", "alice")))
	a.mu.Lock()
	a.full = true
	a.mu.Unlock()
	req.NoError(o.Join(context.Background(), "B", b, joinReq("R1", "bob")))

	a.mu.Lock()
	defer a.mu.Unlock()
	req.True(a.closed)
	req.False(b.closed)
}

func TestJoinLeave_ConcurrentKeepsDirectoryConsistent(t *testing.T) {
	req := require.New(t)
	o := newTestOrchestrator()
	const workers = 16
	const rounds = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				sid := domain.SessionID(fmt.Sprintf("w%d-%d", w, r))
				room := fmt.Sprintf("R%d", r%3)
				if err := o.Join(context.Background(), sid, &fakeConn{}, joinReq(room, "x")); err != nil {
					t.Error(err)
					return
				}
				if r%2 == 0 {
					o.Leave(sid)
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, info := range o.Rooms() {
		req.Positive(info.MemberCount)
		users, ok := o.Snapshot(info.ID)
		req.True(ok)
		req.Len(users, info.MemberCount)
		for _, u := range users {
			req.Equal(info.ID, u.RoomID)
		}
		total += info.MemberCount
	}
	req.Equal(workers*rounds/2, total)
}
