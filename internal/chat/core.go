// Package chat is the in-memory core of the room chat server: the session
// registry, the room directory, the broadcaster and the line dispatcher.
// Transports live in package server and talk to the core through Sink and
// Session.
package chat

import (
	"fmt"
	"log/slog"

	"github.com/corvino/roomtalk/internal/protocol"
)

// Core owns the process-wide registry and directory and hands them to the
// other components by reference.
type Core struct {
	registry    *Registry
	directory   *Directory
	broadcaster *Broadcaster
	dispatcher  *Dispatcher
	log         *slog.Logger
}

// Stats is a point-in-time summary of the core.
type Stats struct {
	Sessions int
	Capacity int
	Rooms    int
}

// New creates a core with room for maxSessions concurrent sessions. The
// lobby exists from this point on.
func New(maxSessions int, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	registry := NewRegistry(maxSessions)
	directory := NewDirectory(registry)
	broadcaster := NewBroadcaster(registry, log)
	return &Core{
		registry:    registry,
		directory:   directory,
		broadcaster: broadcaster,
		dispatcher:  NewDispatcher(registry, directory, broadcaster, log),
		log:         log,
	}
}

// Connect registers a new session writing to sink. The session is greeted
// and announced to the lobby. When the server is full it returns
// ErrServerFull and no slot is used.
func (c *Core) Connect(sink Sink) (*Session, error) {
	h, name, err := c.registry.Acquire(sink)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	id, _ := c.registry.ID(h)
	s := &Session{ID: id, handle: h, core: c}

	c.registry.Send(h, protocol.MsgWelcome)
	c.broadcaster.Broadcast(protocol.LobbyName, protocol.Joined(name, protocol.LobbyName))

	c.log.Info("session connected", "session_id", id, "name", name, "room", protocol.LobbyName)
	return s, nil
}

func (c *Core) disconnect(s *Session) {
	name, room, ok := c.registry.Lookup(s.handle)
	if !ok {
		return
	}
	c.broadcaster.Broadcast(room, protocol.Left(name, room))
	c.registry.Release(s.handle)
	c.log.Info("session disconnected", "session_id", s.ID, "name", name, "room", room)
}

// Rooms lists the visible rooms with live occupant counts.
func (c *Core) Rooms() []RoomSummary {
	return c.directory.ListVisible()
}

// Occupants returns the names of the sessions in room. Hidden rooms are
// reachable by name here just as with /join.
func (c *Core) Occupants(room string) ([]string, error) {
	if !c.directory.Exists(room) {
		return nil, ErrRoomNotFound
	}
	return c.registry.Occupants(room), nil
}

// Stats reports session and room counts.
func (c *Core) Stats() Stats {
	return Stats{
		Sessions: c.registry.Count(),
		Capacity: c.registry.Capacity(),
		Rooms:    c.directory.Len(),
	}
}
