//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_sink.go -package=mocks
package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sink is the outbound side of a session's transport. Send is called from
// other sessions' goroutines and must not block.
type Sink interface {
	Send(msg []byte) error
}

// Handle identifies a registry slot. The generation makes a handle go stale
// once its slot has been released and reused.
type Handle struct {
	index int
	gen   uint32
}

func (h Handle) String() string {
	return fmt.Sprintf("slot-%d.%d", h.index, h.gen)
}

// Session is one connected client as seen by its driver. It is not safe
// for concurrent Handle calls; each session has a single reader.
type Session struct {
	ID     uuid.UUID
	handle Handle
	core   *Core
	once   sync.Once
}

// Handle dispatches one input line (trailing newline already stripped).
// It reports true when the session asked to exit.
func (s *Session) Handle(line string) bool {
	return s.core.dispatcher.Dispatch(s.handle, line)
}

// Name returns the session's current identity.
func (s *Session) Name() string {
	name, _, _ := s.core.registry.Lookup(s.handle)
	return name
}

// Room returns the room the session currently occupies.
func (s *Session) Room() string {
	_, room, _ := s.core.registry.Lookup(s.handle)
	return room
}

// Close runs the disconnect sequence: a leave announcement to the current
// room, then the slot is released. It runs at most once however many times
// it is called.
func (s *Session) Close() {
	s.once.Do(func() {
		s.core.disconnect(s)
	})
}
