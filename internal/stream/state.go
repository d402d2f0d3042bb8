package stream

import "fmt"

// ConnState is the lifecycle state of one subscription.
type ConnState int

const (
	StateIdle       ConnState = iota // never subscribed, or closed and reset
	StateConnecting                  // running the precondition or opening the stream
	StateStreaming                   // stream open, messages flowing
	StateClosed                      // Close in progress
	StateFailed                      // retry ceiling reached, supervision stopped
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s ConnState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ConnState) UnmarshalText(b []byte) error {
	for c := StateIdle; c <= StateFailed; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown connection state %q", b)
}

// SubscriptionState is a point-in-time view of a subscription.
type SubscriptionState struct {
	Name        string    `json:"name"`
	Filter      string    `json:"filter"`
	State       ConnState `json:"state"`
	Connected   bool      `json:"connected"`
	Initialized bool      `json:"initialized"`
	Reconnects  uint64    `json:"reconnects"`
}
