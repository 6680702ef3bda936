package chat

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvino/roomtalk/internal/protocol"
)

var errSinkClosed = errors.New("sink closed")

// recorder is a Sink that keeps every message it receives.
type recorder struct {
	mu     sync.Mutex
	msgs   []string
	failed bool
}

func (r *recorder) Send(msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return errSinkClosed
	}
	r.msgs = append(r.msgs, string(msg))
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCore(capacity int) *Core {
	return New(capacity, discardLogger())
}

func connect(t *testing.T, core *Core) (*Session, *recorder) {
	t.Helper()
	sink := &recorder{}
	s, err := core.Connect(sink)
	require.NoError(t, err)
	return s, sink
}

func TestCore_Connect_Greets_And_Announces(t *testing.T) {
	req := require.New(t)
	core := newTestCore(4)

	// Given a session already in the lobby
	_, a := connect(t, core)
	a.reset()

	// When another client connects
	b, bSink := connect(t, core)

	// Then it is Anon2 in the lobby, welcomed, and everyone in the lobby hears it
	req.Equal("Anon2", b.Name())
	req.Equal(protocol.LobbyName, b.Room())
	req.Equal([]string{protocol.MsgWelcome, "Anon2 joined room Lobby.\n"}, bSink.all())
	req.Equal([]string{"Anon2 joined room Lobby.\n"}, a.all())
	req.NotZero(b.ID)
}

func TestCore_Connect_Full(t *testing.T) {
	req := require.New(t)
	core := newTestCore(1)
	connect(t, core)

	// When the table is full
	s, err := core.Connect(&recorder{})

	// Then the new client gets no session and no slot is consumed
	req.ErrorIs(err, ErrServerFull)
	req.Nil(s)
	req.Equal(1, core.Stats().Sessions)
}

func TestSession_Close_Runs_Once(t *testing.T) {
	req := require.New(t)
	core := newTestCore(4)
	a, _ := connect(t, core)
	_, bSink := connect(t, core)
	bSink.reset()

	// When the session is closed twice
	a.Close()
	a.Close()

	// Then the leave announcement fires once and the slot is free
	req.Equal([]string{"Anon1 left room Lobby.\n"}, bSink.all())
	req.Equal(1, core.Stats().Sessions)
	req.Equal("", a.Name())

	// And the freed name is handed out again
	c, _ := connect(t, core)
	req.Equal("Anon1", c.Name())
}

func TestSession_Close_Leaves_Current_Room(t *testing.T) {
	req := require.New(t)
	core := newTestCore(4)
	a, _ := connect(t, core)
	b, bSink := connect(t, core)
	a.Handle("/create den")
	b.Handle("/join den")
	bSink.reset()

	// When A disconnects from den
	a.Close()

	// Then den hears it
	req.Equal([]string{"Anon1 left room den.\n"}, bSink.all())
}

func TestCore_Occupants(t *testing.T) {
	req := require.New(t)
	core := newTestCore(4)
	connect(t, core)
	connect(t, core)

	names, err := core.Occupants(protocol.LobbyName)
	req.NoError(err)
	req.Equal([]string{"Anon1", "Anon2"}, names)

	_, err = core.Occupants("nowhere")
	req.ErrorIs(err, ErrRoomNotFound)
}

func TestCore_Rooms_And_Stats(t *testing.T) {
	req := require.New(t)
	core := newTestCore(8)
	a, _ := connect(t, core)
	a.Handle("/create_secret vault")
	b, _ := connect(t, core)
	b.Handle("/create den")

	// Then the hidden room is counted but not listed
	req.Equal([]RoomSummary{{Name: "Lobby", Occupants: 0}, {Name: "den", Occupants: 1}}, core.Rooms())
	req.Equal(Stats{Sessions: 2, Capacity: 8, Rooms: 3}, core.Stats())
}

func TestCore_Concurrent_Connect_Unique_Names(t *testing.T) {
	req := require.New(t)
	core := newTestCore(50)

	var wg sync.WaitGroup
	sessions := make(chan *Session, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := core.Connect(&recorder{})
			if err == nil {
				sessions <- s
			}
		}()
	}
	wg.Wait()
	close(sessions)

	seen := map[string]bool{}
	for s := range sessions {
		name := s.Name()
		req.True(strings.HasPrefix(name, protocol.AnonPrefix))
		req.False(seen[name], "duplicate name %s", name)
		seen[name] = true
		req.Equal(protocol.LobbyName, s.Room())
	}
	req.Len(seen, 50)
}
