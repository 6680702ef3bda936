package server

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/config"
	"github.com/corvino/roomtalk/internal/protocol"
)

func testConfig(maxSessions int) config.Config {
	return config.Config{
		Host:            "127.0.0.1",
		Port:            0,
		MaxSessions:     maxSessions,
		MaxLineLength:   512,
		SendBuffer:      16,
		WriteTimeout:    time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startTCP runs a server on a loopback port until the test ends.
func startTCP(t *testing.T, maxSessions int) (*TCPServer, *chat.Core, context.CancelFunc, <-chan error) {
	t.Helper()
	cfg := testConfig(maxSessions)
	core := chat.New(cfg.MaxSessions, discardLogger())
	srv := NewTCPServer(core, cfg, discardLogger())
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	t.Cleanup(cancel)
	return srv, core, cancel, errCh
}

type lineConn struct {
	net.Conn
	r *bufio.Reader
}

func dial(t *testing.T, addr net.Addr) *lineConn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &lineConn{Conn: conn, r: bufio.NewReader(conn)}
}

func (c *lineConn) readLine(t *testing.T) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	return line
}

func (c *lineConn) send(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(c, line+"\n")
	require.NoError(t, err)
}

// readUntil reads lines until want shows up.
func (c *lineConn) readUntil(t *testing.T, want string) {
	t.Helper()
	for {
		if c.readLine(t) == want {
			return
		}
	}
}

func TestTCPServer_Session_Lifecycle(t *testing.T) {
	req := require.New(t)
	srv, core, _, _ := startTCP(t, 4)

	// Given a first client
	a := dial(t, srv.Addr())
	req.Equal(protocol.MsgWelcome, a.readLine(t))
	req.Equal("Anon1 joined room Lobby.\n", a.readLine(t))

	// When a second client connects, the first hears about it
	b := dial(t, srv.Addr())
	req.Equal(protocol.MsgWelcome, b.readLine(t))
	req.Equal("Anon2 joined room Lobby.\n", a.readLine(t))
	b.readUntil(t, "Anon2 joined room Lobby.\n")

	// When B renames and talks, CRLF input included
	b.send(t, "/nick bob\r")
	req.Equal("Your nick has been changed to bob.\n", b.readLine(t))
	req.Equal("Anon2 changed nick to bob.\n", a.readLine(t))
	b.send(t, "hi all")
	req.Equal("bob: hi all\n", a.readLine(t))

	// When A asks who is here
	a.send(t, "/who")
	req.Equal("USERLIST/Anon1/bob/\n", a.readLine(t))

	// When B exits, A hears it and the slot is freed
	b.send(t, "/exit")
	req.Equal("bob left room Lobby.\n", a.readLine(t))
	req.Eventually(func() bool { return core.Stats().Sessions == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestTCPServer_Peer_Hangup_Disconnects(t *testing.T) {
	req := require.New(t)
	srv, core, _, _ := startTCP(t, 4)

	a := dial(t, srv.Addr())
	a.readUntil(t, "Anon1 joined room Lobby.\n")
	b := dial(t, srv.Addr())
	a.readUntil(t, "Anon2 joined room Lobby.\n")

	// When B drops the connection without /exit
	b.Close()

	// Then A sees the leave announcement
	req.Equal("Anon2 left room Lobby.\n", a.readLine(t))
	req.Eventually(func() bool { return core.Stats().Sessions == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestTCPServer_Full(t *testing.T) {
	req := require.New(t)
	srv, core, _, _ := startTCP(t, 1)

	a := dial(t, srv.Addr())
	a.readUntil(t, "Anon1 joined room Lobby.\n")

	// When a second client arrives at capacity
	b := dial(t, srv.Addr())

	// Then it is told and hung up on
	req.Equal(protocol.MsgServerFull, b.readLine(t))
	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := b.r.ReadString('\n')
	req.ErrorIs(err, io.EOF)
	req.Equal(1, core.Stats().Sessions)
}

func TestTCPServer_Shutdown_Closes_Sessions(t *testing.T) {
	req := require.New(t)
	srv, core, cancel, errCh := startTCP(t, 4)

	a := dial(t, srv.Addr())
	a.readUntil(t, "Anon1 joined room Lobby.\n")

	// When the server context is cancelled
	cancel()

	// Then Serve returns cleanly and the client is disconnected
	select {
	case err := <-errCh:
		req.NoError(err)
	case <-time.After(3 * time.Second):
		req.Fail("Serve did not return")
	}
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := io.ReadAll(a.r)
	req.NoError(err)
	req.Equal(0, core.Stats().Sessions)
}

func TestTCPTransport_Line_Too_Long_Ends_Session(t *testing.T) {
	req := require.New(t)
	srv, core, _, _ := startTCP(t, 4)

	a := dial(t, srv.Addr())
	a.readUntil(t, "Anon1 joined room Lobby.\n")

	a.send(t, strings.Repeat("x", 2048))

	req.Eventually(func() bool { return core.Stats().Sessions == 0 }, 2*time.Second, 10*time.Millisecond)
}
