package server

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/config"
)

const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsTransport carries chat lines in text frames. A frame holding several
// newline-separated lines yields them one at a time.
type wsTransport struct {
	conn    *websocket.Conn
	pending []string
}

func newWSTransport(conn *websocket.Conn, maxLine int) *wsTransport {
	conn.SetReadLimit(int64(maxLine))
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadLine() (string, error) {
	if len(t.pending) > 0 {
		line := t.pending[0]
		t.pending = t.pending[1:]
		return line, nil
	}
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return "", io.EOF
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		lines := splitFrame(string(data))
		t.pending = lines[1:]
		return lines[0], nil
	}
}

// splitFrame breaks a frame into lines. A single trailing newline ends the
// last line rather than starting an empty one.
func splitFrame(frame string) []string {
	lines := strings.Split(strings.TrimSuffix(frame, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (t *wsTransport) WriteMessage(msg []byte, deadline time.Time) error {
	t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.TextMessage, msg)
}

func (t *wsTransport) Ping(deadline time.Time) error {
	t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}

func (t *wsTransport) Close() error { return t.conn.Close() }

func (t *wsTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }

// serveWS upgrades an HTTP connection to WebSocket and runs a chat session
// over it. The session is tracked outside the http.Server, which does not
// close hijacked connections on Shutdown.
func serveWS(core *chat.Core, cfg config.Config, sessions *tracker, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", "error", err)
		return
	}
	c := newClient(newWSTransport(conn, cfg.MaxLineLength), cfg.SendBuffer, cfg.WriteTimeout, log)
	sessions.run(c, core)
}
