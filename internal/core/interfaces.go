//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_core.go -package=mocks
package core

import "context"

// Frame is one encoded message on the signal transport.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend must not block.
	TrySend(Frame) error
	Close()
}

// Sink is the write-behind durability capability.
// Calls return immediately; failures are the implementation's problem.
type Sink interface {
	Set(path string, value any)
	Push(path string, value any)
	Remove(path string)
}

// IdentityVerifier checks an external identity claimed on join.
type IdentityVerifier interface {
	Verify(ctx context.Context, userID, token string) error
}

// NopSink is selected when no durability store is configured.
type NopSink struct{}

func (NopSink) Set(string, any)  {}
func (NopSink) Push(string, any) {}
func (NopSink) Remove(string)    {}

// AllowAll accepts every identity.
type AllowAll struct{}

func (AllowAll) Verify(context.Context, string, string) error { return nil }
