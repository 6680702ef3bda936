package protocol

import (
	"fmt"
	"strings"
)

// Line protocol constants.
const (
	// SystemName is the identity used for server-originated announcements.
	// No session may claim it.
	SystemName = "System"

	// LobbyName is the permanent default room.
	LobbyName = "Lobby"

	// UserListPrefix frames a /who response.
	UserListPrefix = "USERLIST/"

	// AnonPrefix is the stem of auto-assigned identities (Anon1, Anon2, ...).
	AnonPrefix = "Anon"
)

// Fixed server messages. Each is a complete newline-terminated line.
const (
	MsgWelcome      = "Welcome to the chat server!\n"
	MsgServerFull   = "Server is full. Try again later.\n"
	MsgNickTaken    = "Nick is already taken.\n"
	MsgNoSuchRoom   = "Room does not exist.\n"
	MsgRoomExists   = "A room with that name already exists.\n"
	MsgNoPermission = "You do not have permission to delete this room.\n"
	MsgRelocated    = "You have been moved to room " + LobbyName + ".\n"
	MsgRoomListHead = "Available rooms:\n"
)

// Chat formats a plain chat line from sender.
func Chat(sender, text string) string {
	return fmt.Sprintf("%s: %s\n", sender, text)
}

// Joined announces that name entered room.
func Joined(name, room string) string {
	return fmt.Sprintf("%s joined room %s.\n", name, room)
}

// Left announces that name left room.
func Left(name, room string) string {
	return fmt.Sprintf("%s left room %s.\n", name, room)
}

// NickChanged is sent to the session that renamed itself.
func NickChanged(name string) string {
	return fmt.Sprintf("Your nick has been changed to %s.\n", name)
}

// NickAnnounced is broadcast to the renamed session's room.
func NickAnnounced(oldName, newName string) string {
	return fmt.Sprintf("%s changed nick to %s.\n", oldName, newName)
}

// NickReserved rejects a rename to the system identity.
func NickReserved(name string) string {
	return fmt.Sprintf("Nick %s is reserved.\n", name)
}

// RoomCreated confirms a /create or /create_secret.
func RoomCreated(room string) string {
	return fmt.Sprintf("Room '%s' created.\n", room)
}

// RoomDeleted confirms a /delete to its requester.
func RoomDeleted(room string) string {
	return fmt.Sprintf("Room '%s' deleted.\n", room)
}

// MovedToLobby is broadcast to Lobby for every session relocated by a deletion.
func MovedToLobby(name string) string {
	return fmt.Sprintf("%s has been moved to %s.\n", name, LobbyName)
}

// RoomListEntry is one row of a /list response.
func RoomListEntry(room string, occupants int) string {
	return fmt.Sprintf("%s (%d users)\n", room, occupants)
}

// UserList frames the occupant names of a room: USERLIST/a/b/.
func UserList(names []string) string {
	var b strings.Builder
	b.WriteString(UserListPrefix)
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('/')
	}
	b.WriteByte('\n')
	return b.String()
}

// ParseUserList is the inverse of UserList. ok is false when line is not a
// USERLIST frame.
func ParseUserList(line string) (names []string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimRight(line, "\r\n"), UserListPrefix)
	if !found {
		return nil, false
	}
	for _, n := range strings.Split(rest, "/") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names, true
}
