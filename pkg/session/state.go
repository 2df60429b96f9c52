package session

import (
	"strconv"
	"sync/atomic"
)

// ConnState is the lifecycle position of a Session.
//
// A session starts disconnected, moves to connecting inside Connect and to
// connected once the upgrade completes. A remote disconnect drops it back to
// disconnected. Close moves it to closed from any state, and closed is final.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// State holds a ConnState for lock-free transitions.
type State struct {
	v atomic.Int32
}

func (s *State) Load() ConnState { return ConnState(s.v.Load()) }

func (s *State) Store(state ConnState) { s.v.Store(int32(state)) }

// Swap returns the state that was replaced.
func (s *State) Swap(state ConnState) ConnState {
	return ConnState(s.v.Swap(int32(state)))
}

// CompareAndSwap moves from old to next only if the current state is old.
func (s *State) CompareAndSwap(old, next ConnState) bool {
	return s.v.CompareAndSwap(int32(old), int32(next))
}
