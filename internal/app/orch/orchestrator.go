package orch

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/dkeye/Huddle/internal/protocol"
	"github.com/rs/zerolog/log"
)

const defaultVerifyTimeout = 5 * time.Second

type Options struct {
	// NotifyUnknownTarget answers a relay to an absent peer with an error
	// instead of dropping it silently.
	NotifyUnknownTarget bool
	// MaxChatLength caps chat text in runes; 0 disables the cap.
	MaxChatLength int
	VerifyTimeout time.Duration
}

// Orchestrator owns the registry and the room directory. Every event holds mu
// from the first lookup to the last dispatched frame, so presence, chat and
// relay traffic for shared state is handled one event at a time.
type Orchestrator struct {
	mu       sync.Mutex
	registry *app.Registry
	rooms    *app.RoomManager

	policy   app.Policy
	sink     core.Sink
	verifier core.IdentityVerifier
	opts     Options
	now      func() time.Time
}

// New wires an orchestrator. Nil collaborators are replaced by their no-op
// variants here so the event handlers never branch on them.
func New(sink core.Sink, verifier core.IdentityVerifier, policy app.Policy, opts Options) *Orchestrator {
	if sink == nil {
		sink = core.NopSink{}
	}
	if verifier == nil {
		verifier = core.AllowAll{}
	}
	if policy == nil {
		policy = app.DropPolicy{}
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = defaultVerifyTimeout
	}
	return &Orchestrator{
		registry: app.NewRegistry(),
		rooms:    app.NewRoomManager(),
		policy:   policy,
		sink:     sink,
		verifier: verifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Rooms lists live rooms.
func (o *Orchestrator) Rooms() []app.RoomInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := o.rooms.List()
	slices.SortFunc(list, func(a, b app.RoomInfo) int { return cmp.Compare(a.ID, b.ID) })
	return list
}

// Snapshot returns the sessions of a room; ok is false if the room does not exist.
func (o *Orchestrator) Snapshot(id domain.RoomID) ([]domain.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.rooms.Has(id) {
		return nil, false
	}
	return o.snapshot(id), true
}

// Whoami returns the session bound to sid, if it joined.
func (o *Orchestrator) Whoami(sid domain.SessionID) (domain.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.registry.Lookup(sid)
	if !ok {
		return domain.Session{}, false
	}
	return m.Session, true
}

// snapshot orders members by join time, then id. Caller holds mu.
func (o *Orchestrator) snapshot(id domain.RoomID) []domain.Session {
	ids := o.rooms.Members(id)
	out := make([]domain.Session, 0, len(ids))
	for _, sid := range ids {
		if m, ok := o.registry.Lookup(sid); ok {
			out = append(out, m.Session)
		}
	}
	slices.SortFunc(out, func(a, b domain.Session) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// broadcast encodes v once and hands it to every listed member except skip.
// Caller holds mu.
func (o *Orchestrator) broadcast(ids []domain.SessionID, skip domain.SessionID, v any) int {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("broadcast encode")
		return 0
	}
	sent := 0
	for _, sid := range ids {
		if sid == skip {
			continue
		}
		m, ok := o.registry.Lookup(sid)
		if !ok {
			continue
		}
		if o.deliver(sid, m, frame) {
			sent++
		}
	}
	return sent
}

// deliver queues frame on the member's connection and applies the
// backpressure policy if the queue is full. Caller holds mu.
func (o *Orchestrator) deliver(sid domain.SessionID, m *app.Member, frame core.Frame) bool {
	err := m.Conn.TrySend(frame)
	if err == nil {
		return true
	}
	action := o.policy.OnBackPressure(sid)
	log.Warn().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Int("action", int(action)).Msg("delivery failed")
	if action == app.KickMember {
		// Closing makes the read pump exit, which runs Leave on its own goroutine.
		m.Conn.Close()
	}
	return false
}

func (o *Orchestrator) send(sid domain.SessionID, m *app.Member, v any) {
	frame, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("send encode")
		return
	}
	o.deliver(sid, m, frame)
}
