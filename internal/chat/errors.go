package chat

import "errors"

var (
	ErrServerFull   = errors.New("server full")
	ErrNameTaken    = errors.New("name already taken")
	ErrNameReserved = errors.New("name reserved")
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
	ErrNotCreator   = errors.New("not the room creator")

	ErrUnknownSession = errors.New("unknown session")
)
