package chat

import "log/slog"

// Broadcaster fans a message out to every session in a room. It depends on
// the Registry only.
type Broadcaster struct {
	registry *Registry
	log      *slog.Logger
}

// NewBroadcaster creates a broadcaster over registry.
func NewBroadcaster(registry *Registry, log *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, log: log}
}

// Broadcast delivers msg to the current occupants of room. Delivery is best
// effort: a failing recipient is skipped and reaped by its own read loop.
func (b *Broadcaster) Broadcast(room, msg string) {
	sinks := b.registry.Sinks(room)
	payload := []byte(msg)
	for _, s := range sinks {
		if err := s.Send(payload); err != nil {
			b.log.Debug("broadcast delivery failed", "room", room, "error", err)
		}
	}
}
