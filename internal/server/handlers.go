package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/config"
	"github.com/corvino/roomtalk/internal/protocol"
)

// Handlers holds references needed by HTTP handlers.
type Handlers struct {
	Core      *chat.Core
	Config    config.Config
	StartTime time.Time
	Log       *slog.Logger

	sessions *tracker
}

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.StartTime)
	stats := h.Core.Stats()
	resp := protocol.HealthResponse{
		Status:    "ok",
		Uptime:    uptime.Round(time.Second).String(),
		UptimeSec: uptime.Seconds(),
		Rooms:     stats.Rooms,
		Sessions:  stats.Sessions,
		Capacity:  stats.Capacity,
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRooms handles GET /api/rooms. Hidden rooms are left out.
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := lo.Map(h.Core.Rooms(), func(s chat.RoomSummary, _ int) protocol.RoomInfo {
		return protocol.RoomInfo{Name: s.Name, Occupants: s.Occupants}
	})
	writeJSON(w, http.StatusOK, protocol.RoomList{Rooms: rooms})
}

// ListOccupants handles GET /api/rooms/{room}/occupants.
func (h *Handlers) ListOccupants(w http.ResponseWriter, r *http.Request) {
	roomName := r.PathValue("room")
	if roomName == "" {
		writeError(w, http.StatusBadRequest, "room name required")
		return
	}

	names, err := h.Core.Occupants(roomName)
	if errors.Is(err, chat.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, protocol.OccupantList{Room: roomName, Occupants: names, Count: len(names)})
}

// HandleWS handles GET /ws.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	serveWS(h.Core, h.Config, h.sessions, h.Log, w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, protocol.ErrorResponse{Error: msg})
}
