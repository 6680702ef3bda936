package chat

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/corvino/roomtalk/internal/protocol"
	"github.com/samber/lo"
)

// Command keywords.
const (
	CmdNick         = "/nick"
	CmdJoin         = "/join"
	CmdLeave        = "/leave"
	CmdExit         = "/exit"
	CmdWho          = "/who"
	CmdList         = "/list"
	CmdCreate       = "/create"
	CmdCreateSecret = "/create_secret"
	CmdDelete       = "/delete"
)

// Dispatcher turns one line of client input into registry and directory
// mutations and broadcasts.
type Dispatcher struct {
	registry    *Registry
	directory   *Directory
	broadcaster *Broadcaster
	log         *slog.Logger
}

// NewDispatcher wires a dispatcher to the shared components.
func NewDispatcher(registry *Registry, directory *Directory, broadcaster *Broadcaster, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		directory:   directory,
		broadcaster: broadcaster,
		log:         log,
	}
}

// Dispatch handles one line from the session behind h. It returns true when
// the session's read loop should end.
func (d *Dispatcher) Dispatch(h Handle, line string) bool {
	if !strings.HasPrefix(line, "/") {
		d.chat(h, line)
		return false
	}

	// Keyword plus at most one argument; anything after that is ignored.
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case CmdNick:
		if arg != "" {
			d.nick(h, arg)
		}
	case CmdJoin:
		if arg != "" {
			d.join(h, arg)
		}
	case CmdLeave:
		d.join(h, protocol.LobbyName)
	case CmdExit:
		return true
	case CmdWho:
		d.who(h)
	case CmdList:
		d.list(h)
	case CmdCreate, CmdCreateSecret:
		if arg != "" {
			d.create(h, arg, cmd == CmdCreateSecret)
		}
	case CmdDelete:
		if arg != "" {
			d.delete(h, arg)
		}
	default:
		d.log.Debug("ignoring unknown command", "command", cmd, "handle", h)
	}
	return false
}

func (d *Dispatcher) chat(h Handle, text string) {
	name, room, ok := d.registry.Lookup(h)
	if !ok {
		return
	}
	d.broadcaster.Broadcast(room, protocol.Chat(name, text))
	d.log.Debug("chat message", "name", name, "room", room, "text", text)
}

func (d *Dispatcher) nick(h Handle, name string) {
	old, err := d.registry.Rename(h, name)
	switch {
	case errors.Is(err, ErrNameTaken):
		d.registry.Send(h, protocol.MsgNickTaken)
		return
	case errors.Is(err, ErrNameReserved):
		d.registry.Send(h, protocol.NickReserved(name))
		return
	case err != nil:
		return
	}

	d.registry.Send(h, protocol.NickChanged(name))
	if _, room, ok := d.registry.Lookup(h); ok {
		d.broadcaster.Broadcast(room, protocol.NickAnnounced(old, name))
	}
	d.log.Info("nick changed", "old", old, "new", name)
}

// join moves the session into room. The old room hears about the departure
// while the session is still in it; the new room hears about the arrival
// after the switch.
func (d *Dispatcher) join(h Handle, room string) bool {
	if !d.directory.Exists(room) {
		d.registry.Send(h, protocol.MsgNoSuchRoom)
		return false
	}
	name, current, ok := d.registry.Lookup(h)
	if !ok {
		return false
	}

	d.broadcaster.Broadcast(current, protocol.Left(name, current))
	if _, err := d.registry.Move(h, room, d.directory.Exists); err != nil {
		// The room was deleted between the check and the move.
		d.registry.Send(h, protocol.MsgNoSuchRoom)
		return false
	}
	d.broadcaster.Broadcast(room, protocol.Joined(name, room))

	d.log.Info("joined room", "name", name, "from", current, "room", room)
	return true
}

func (d *Dispatcher) who(h Handle) {
	_, room, ok := d.registry.Lookup(h)
	if !ok {
		return
	}
	d.registry.Send(h, protocol.UserList(d.registry.Occupants(room)))
}

func (d *Dispatcher) list(h Handle) {
	rooms := d.directory.ListVisible()
	var b strings.Builder
	b.WriteString(protocol.MsgRoomListHead)
	lo.ForEach(rooms, func(r RoomSummary, _ int) {
		b.WriteString(protocol.RoomListEntry(r.Name, r.Occupants))
	})
	d.registry.Send(h, b.String())
}

func (d *Dispatcher) create(h Handle, room string, hidden bool) {
	name, _, ok := d.registry.Lookup(h)
	if !ok {
		return
	}
	if err := d.directory.Create(room, hidden, name); err != nil {
		d.registry.Send(h, protocol.MsgRoomExists)
		return
	}
	d.log.Info("room created", "room", room, "creator", name, "hidden", hidden)

	if d.join(h, room) {
		d.registry.Send(h, protocol.RoomCreated(room))
	}
}

// delete removes room and relocates its occupants to the lobby. The
// directory lock is released before the registry is touched.
func (d *Dispatcher) delete(h Handle, room string) {
	name, _, ok := d.registry.Lookup(h)
	if !ok {
		return
	}

	err := d.directory.Delete(room, name)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		d.registry.Send(h, protocol.MsgNoSuchRoom)
		return
	case errors.Is(err, ErrNotCreator):
		d.registry.Send(h, protocol.MsgNoPermission)
		return
	case err != nil:
		return
	}

	moved := d.registry.Relocate(room, protocol.LobbyName, d.directory.Exists)
	for _, m := range moved {
		if err := m.Sink.Send([]byte(protocol.MsgRelocated)); err != nil {
			d.log.Debug("relocation notice failed", "name", m.Name, "error", err)
		}
	}
	for _, m := range moved {
		d.broadcaster.Broadcast(protocol.LobbyName, protocol.MovedToLobby(m.Name))
	}
	d.registry.Send(h, protocol.RoomDeleted(room))

	d.log.Info("room deleted", "room", room, "by", name, "relocated", len(moved))
}
