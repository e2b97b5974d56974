package sink

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

type opKind int

const (
	opSet opKind = iota
	opPush
	opRemove
)

func (k opKind) String() string {
	switch k {
	case opSet:
		return "set"
	case opPush:
		return "push"
	default:
		return "remove"
	}
}

type op struct {
	kind opKind
	path string
	data []byte
}

// Async implements core.Sink on top of a Store. Writes are queued and applied
// in order by Run; a full queue, a closed sink or a failing store only costs
// a log line.
type Async struct {
	store Store
	queue chan op

	mu     sync.RWMutex
	closed bool
}

func NewAsync(store Store, size int) *Async {
	if size <= 0 {
		size = 1024
	}
	return &Async{store: store, queue: make(chan op, size)}
}

func (a *Async) Set(path string, value any)  { a.enqueue(opSet, path, value) }
func (a *Async) Push(path string, value any) { a.enqueue(opPush, path, value) }
func (a *Async) Remove(path string)          { a.enqueue(opRemove, path, nil) }

func (a *Async) enqueue(kind opKind, path string, value any) {
	o := op{kind: kind, path: path}
	if kind != opRemove {
		data, err := json.Marshal(value)
		if err != nil {
			log.Error().Err(err).Str("module", "sink").Str("path", path).Msg("encode")
			return
		}
		o.data = data
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		log.Warn().Str("module", "sink").Str("op", kind.String()).Str("path", path).Msg("sink closed, write dropped")
		return
	}
	select {
	case a.queue <- o:
	default:
		log.Warn().Str("module", "sink").Str("op", kind.String()).Str("path", path).Msg("queue full, write dropped")
	}
}

// Run applies queued writes until Close, then drains what is left.
// Cancelling ctx does not abort the drain.
func (a *Async) Run(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	for o := range a.queue {
		a.apply(ctx, o)
	}
	log.Info().Str("module", "sink").Msg("sink drained")
	return nil
}

func (a *Async) apply(ctx context.Context, o op) {
	var err error
	switch o.kind {
	case opSet:
		err = a.store.Set(ctx, o.path, o.data)
	case opPush:
		err = a.store.Push(ctx, o.path, o.data)
	case opRemove:
		err = a.store.Remove(ctx, o.path)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "sink").Str("op", o.kind.String()).Str("path", o.path).Msg("write failed")
	}
}

// Close stops accepting writes. Safe to call more than once.
func (a *Async) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.queue)
}
