package dispatch

import (
	"github.com/c360/topiclens/message"
	"github.com/c360/topiclens/resilience"
)

// Event is an inbound occurrence from the transport. The concrete
// types below are the only implementations.
type Event interface {
	eventType() string
}

// MessageEvent carries one received message.
type MessageEvent struct {
	Message message.Message
}

func (MessageEvent) eventType() string { return "message" }

// StateEvent reports a connection state transition.
type StateEvent struct {
	State    resilience.State
	Failures uint
	Err      error
}

func (StateEvent) eventType() string { return "state" }

// ErrorEvent reports a non-fatal runtime error from a subsystem.
type ErrorEvent struct {
	Component string
	Err       error
}

func (ErrorEvent) eventType() string { return "error" }
