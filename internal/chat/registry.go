package chat

import (
	"strconv"
	"sync"

	"github.com/corvino/roomtalk/internal/protocol"
	"github.com/google/uuid"
)

// slot is one entry of the fixed session table.
type slot struct {
	id     uuid.UUID
	gen    uint32
	active bool
	name   string
	room   string
	sink   Sink
}

// Relocated describes a session moved by Registry.Relocate.
type Relocated struct {
	Name string
	Sink Sink
}

// Registry is the fixed-capacity session table. Every read or write of a
// slot happens under mu, scans included.
//
// Lock order: mu may be held while the Directory lock is taken (see Move and
// Relocate), never the other way round.
type Registry struct {
	mu    sync.Mutex
	slots []slot
}

// NewRegistry creates a registry with room for capacity sessions.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 30
	}
	return &Registry{slots: make([]slot, capacity)}
}

// Capacity returns the table size.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Acquire claims a free slot for sink, names it Anon<N> and places it in
// the lobby. It returns ErrServerFull when every slot is taken.
func (r *Registry) Acquire(sink Sink) (Handle, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		s := &r.slots[i]
		if s.active {
			continue
		}
		s.name = r.anonNameLocked()
		s.id = uuid.New()
		s.active = true
		s.room = protocol.LobbyName
		s.sink = sink
		return Handle{index: i, gen: s.gen}, s.name, nil
	}
	return Handle{}, "", ErrServerFull
}

// anonNameLocked probes Anon1, Anon2, ... from 1 on every call and returns
// the first name no active session holds.
func (r *Registry) anonNameLocked() string {
	for n := 1; ; n++ {
		candidate := protocol.AnonPrefix + strconv.Itoa(n)
		if !r.isTakenLocked(candidate) {
			return candidate
		}
	}
}

// Release frees the slot behind h. A stale handle is ignored.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slotLocked(h)
	if !ok {
		return
	}
	s.active = false
	s.name = ""
	s.room = ""
	s.sink = nil
	s.gen++
}

// ID returns the correlation id of the session behind h.
func (r *Registry) ID(h Handle) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slotLocked(h)
	if !ok {
		return uuid.Nil, false
	}
	return s.id, true
}

// Lookup returns the identity and room of the session behind h.
func (r *Registry) Lookup(h Handle) (name, room string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slotLocked(h)
	if !ok {
		return "", "", false
	}
	return s.name, s.room, true
}

// Rename changes the identity of the session behind h and returns the old
// name. The uniqueness check and the update happen under one lock hold.
func (r *Registry) Rename(h Handle, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slotLocked(h)
	if !ok {
		return "", ErrUnknownSession
	}
	if r.isTakenLocked(name) {
		return "", ErrNameTaken
	}
	if name == protocol.SystemName {
		return "", ErrNameReserved
	}
	old := s.name
	s.name = name
	return old, nil
}

// IsTaken reports whether an active session holds name.
func (r *Registry) IsTaken(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isTakenLocked(name)
}

func (r *Registry) isTakenLocked(name string) bool {
	for i := range r.slots {
		if r.slots[i].active && r.slots[i].name == name {
			return true
		}
	}
	return false
}

// Move puts the session behind h into room and returns the room it left.
// exists is consulted while the table lock is held: a concurrent room
// deletion either precedes the move, which then fails, or is followed by a
// relocation that picks this session up.
func (r *Registry) Move(h Handle, room string, exists func(string) bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slotLocked(h)
	if !ok {
		return "", ErrUnknownSession
	}
	if exists != nil && !exists(room) {
		return "", ErrRoomNotFound
	}
	old := s.room
	s.room = room
	return old, nil
}

// Relocate moves every active session in from into to. exists is consulted
// under the table lock like in Move: when from has been created again since
// it was deleted, nobody is moved.
func (r *Registry) Relocate(from, to string, exists func(string) bool) []Relocated {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exists != nil && exists(from) {
		return nil
	}
	var moved []Relocated
	for i := range r.slots {
		s := &r.slots[i]
		if !s.active || s.room != from {
			continue
		}
		s.room = to
		moved = append(moved, Relocated{Name: s.name, Sink: s.sink})
	}
	return moved
}

// Occupants returns the names of the sessions currently in room, in table
// order.
func (r *Registry) Occupants(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for i := range r.slots {
		if r.slots[i].active && r.slots[i].room == room {
			names = append(names, r.slots[i].name)
		}
	}
	return names
}

// Sinks returns the outbound sinks of the sessions currently in room.
func (r *Registry) Sinks(room string) []Sink {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sinks []Sink
	for i := range r.slots {
		if r.slots[i].active && r.slots[i].room == room {
			sinks = append(sinks, r.slots[i].sink)
		}
	}
	return sinks
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.slots {
		if r.slots[i].active {
			n++
		}
	}
	return n
}

// Send delivers msg to the session behind h. It reports false when h is
// stale or the sink refused the message.
func (r *Registry) Send(h Handle, msg string) bool {
	r.mu.Lock()
	s, ok := r.slotLocked(h)
	var sink Sink
	if ok {
		sink = s.sink
	}
	r.mu.Unlock()

	if sink == nil {
		return false
	}
	return sink.Send([]byte(msg)) == nil
}

func (r *Registry) slotLocked(h Handle) (*slot, bool) {
	if h.index < 0 || h.index >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[h.index]
	if !s.active || s.gen != h.gen {
		return nil, false
	}
	return s, true
}
