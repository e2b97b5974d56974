package app

import "github.com/dkeye/Huddle/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound queue is full.
type Policy interface {
	OnBackPressure(sid domain.SessionID) BackpressureAction
}

// DropPolicy loses the frame for the slow member and keeps it connected.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.SessionID) BackpressureAction {
	return DropFrame
}

// KickPolicy closes the slow member's connection; the transport then runs
// the normal disconnect path.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(domain.SessionID) BackpressureAction {
	return KickMember
}

// PolicyFromString maps the slow_consumer config value.
func PolicyFromString(name string) Policy {
	if name == "kick" {
		return KickPolicy{}
	}
	return DropPolicy{}
}
