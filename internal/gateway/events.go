package gateway

import "github.com/jmbish04/lightbulb-aquarium/internal/fault"

// Envelope is one inbound tool invocation. It lives for the duration of
// a single request and is never persisted.
type Envelope struct {
	Specialist string         `json:"specialist"`
	Tool       string         `json:"tool"`
	Params     map[string]any `json:"params"`
}

// Event types emitted back over the connection.
const (
	EventStatus = "status"
	EventResult = "result"
	EventError  = "error"
)

// Event is one outbound message. Per envelope the gateway emits zero or
// more status events followed by exactly one result or error event.
type Event struct {
	Type       string `json:"type"`
	Specialist string `json:"specialist,omitempty"`
	Tool       string `json:"tool,omitempty"`
	Result     any    `json:"result,omitempty"`
	Message    string `json:"message,omitempty"`
	// Code carries the stable fault kind on error events.
	Code string `json:"code,omitempty"`
}

func statusEvent(env Envelope, message string) Event {
	return Event{Type: EventStatus, Specialist: env.Specialist, Tool: env.Tool, Message: message}
}

func resultEvent(env Envelope, result any) Event {
	return Event{Type: EventResult, Specialist: env.Specialist, Tool: env.Tool, Result: result}
}

func errorEvent(env Envelope, err error) Event {
	return Event{
		Type:       EventError,
		Specialist: env.Specialist,
		Tool:       env.Tool,
		Message:    err.Error(),
		Code:       string(fault.KindOf(err)),
	}
}
