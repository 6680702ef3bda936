package protocol

// RoomInfo describes a visible room.
type RoomInfo struct {
	Name      string `json:"name"`
	Occupants int    `json:"occupants"`
}

// RoomList is the response for GET /api/rooms.
type RoomList struct {
	Rooms []RoomInfo `json:"rooms"`
}

// OccupantList is the response for GET /api/rooms/{room}/occupants.
type OccupantList struct {
	Room      string   `json:"room"`
	Occupants []string `json:"occupants"`
	Count     int      `json:"count"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status    string  `json:"status"`
	Uptime    string  `json:"uptime"`
	UptimeSec float64 `json:"uptime_seconds"`
	Rooms     int     `json:"rooms"`
	Sessions  int     `json:"sessions"`
	Capacity  int     `json:"capacity"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
