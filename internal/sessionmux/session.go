package sessionmux

import (
	"context"
	"sync"

	"github.com/jmbish04/lightbulb-aquarium/internal/fault"
	"github.com/jmbish04/lightbulb-aquarium/internal/gateway"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
)

// session binds one client-chosen identifier to one pinned specialist
// instance. The downstream channel carries actor-to-client events; the
// client-to-actor direction is the submit surface. A session dies with
// the connection that opened it.
type session struct {
	id       string
	instance specialist.Specialist

	downstream chan gateway.Event
	done       chan struct{}
	closeOnce  sync.Once

	// invokeMu serializes submissions so downstream events preserve
	// submission order within the session.
	invokeMu sync.Mutex
}

func newSession(id string, instance specialist.Specialist) *session {
	return &session{
		id:         id,
		instance:   instance,
		downstream: make(chan gateway.Event, 64),
		done:       make(chan struct{}),
	}
}

// push delivers an event downstream unless the session is closed or the
// buffer is full; a slow reader loses events rather than blocking the
// actor.
func (s *session) push(ev gateway.Event) {
	select {
	case <-s.done:
	case s.downstream <- ev:
	default:
	}
}

// invoke runs one submitted envelope against the pinned instance,
// mirroring status and terminal events downstream.
func (s *session) invoke(ctx context.Context, env gateway.Envelope) (any, error) {
	s.invokeMu.Lock()
	defer s.invokeMu.Unlock()

	emit := func(message string) {
		s.push(gateway.Event{
			Type:       gateway.EventStatus,
			Specialist: s.instance.Name(),
			Tool:       env.Tool,
			Message:    message,
		})
	}

	result, err := s.instance.Invoke(ctx, env.Tool, specialist.Params(env.Params), emit)
	if err != nil {
		s.push(gateway.Event{
			Type:       gateway.EventError,
			Specialist: s.instance.Name(),
			Tool:       env.Tool,
			Message:    err.Error(),
			Code:       string(fault.KindOf(err)),
		})
		return nil, err
	}

	s.push(gateway.Event{
		Type:       gateway.EventResult,
		Specialist: s.instance.Name(),
		Tool:       env.Tool,
		Result:     result,
	})
	return result, nil
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
