package chat

import (
	"slices"
	"sync"

	"github.com/corvino/roomtalk/internal/protocol"
	"github.com/samber/lo"
)

// Room is a named broadcast scope.
type Room struct {
	Name    string
	Hidden  bool
	Creator string
}

// RoomSummary is one row of a room listing.
type RoomSummary struct {
	Name      string
	Occupants int
}

// Directory holds every room. It never touches the Registry while its own
// lock is held; occupant counts are gathered after the lock is released.
type Directory struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	order    []string
	registry *Registry
}

// NewDirectory creates a directory containing only the lobby, owned by the
// reserved system identity.
func NewDirectory(registry *Registry) *Directory {
	d := &Directory{
		rooms:    make(map[string]*Room),
		registry: registry,
	}
	d.insertLocked(&Room{Name: protocol.LobbyName, Creator: protocol.SystemName})
	return d
}

// Create adds a room. It fails with ErrRoomExists if the name is in use.
func (d *Directory) Create(name string, hidden bool, creator string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[name]; ok {
		return ErrRoomExists
	}
	d.insertLocked(&Room{Name: name, Hidden: hidden, Creator: creator})
	return nil
}

func (d *Directory) insertLocked(r *Room) {
	d.rooms[r.Name] = r
	d.order = append(d.order, r.Name)
}

// Exists reports whether a room called name exists.
func (d *Directory) Exists(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rooms[name]
	return ok
}

// Get returns a copy of the named room.
func (d *Directory) Get(name string) (Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[name]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Delete removes a room on behalf of requester. Only the creator may delete
// a room and the lobby is never deleted. Relocating the occupants is the
// caller's job.
func (d *Directory) Delete(name, requester string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.rooms[name]
	if !ok {
		return ErrRoomNotFound
	}
	if name == protocol.LobbyName || r.Creator != requester {
		return ErrNotCreator
	}
	delete(d.rooms, name)
	d.order = slices.DeleteFunc(d.order, func(n string) bool { return n == name })
	return nil
}

// ListVisible returns every non-hidden room in creation order with its
// current occupant count.
func (d *Directory) ListVisible() []RoomSummary {
	d.mu.Lock()
	visible := lo.Filter(d.order, func(name string, _ int) bool {
		return !d.rooms[name].Hidden
	})
	d.mu.Unlock()

	return lo.Map(visible, func(name string, _ int) RoomSummary {
		return RoomSummary{Name: name, Occupants: len(d.registry.Occupants(name))}
	})
}

// Len returns the number of rooms, hidden ones included.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}
