package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/corvino/roomtalk/internal/protocol"
)

func newWatchCmd() *cobra.Command {
	var (
		room      string
		reconnect bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a room for live messages via WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := newWatcher(buildWSURL(flagAPI), startupLines(flagNick, room), os.Stdout, !flagNoColor)

			if room == "" {
				room = protocol.LobbyName
			}
			fmt.Fprintf(os.Stderr, "watching room %q\n", room)

			// Handle Ctrl+C.
			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)
			go func() {
				<-interrupt
				fmt.Fprintln(os.Stderr, "\ndisconnecting...")
				w.Close()
			}()

			if reconnect {
				w.Run()
				return nil
			}
			return w.connect()
		},
	}

	cmd.Flags().StringVarP(&room, "room", "r", "", "room to join (default Lobby)")
	cmd.Flags().BoolVar(&reconnect, "reconnect", false, "reconnect with backoff when the connection drops")

	return cmd
}

// startupLines are the commands replayed on every (re)connect.
func startupLines(nick, room string) []string {
	var lines []string
	if nick != "" {
		lines = append(lines, "/nick "+nick)
	}
	if room != "" {
		lines = append(lines, "/join "+room)
	}
	return lines
}

// watcher is a WebSocket session that prints every line it receives.
type watcher struct {
	url     string
	startup []string
	out     io.Writer
	colored bool

	done chan struct{}
	once sync.Once
}

func newWatcher(url string, startup []string, out io.Writer, colored bool) *watcher {
	return &watcher{
		url:     url,
		startup: startup,
		out:     out,
		colored: colored,
		done:    make(chan struct{}),
	}
}

// Close stops the watcher.
func (w *watcher) Close() {
	w.once.Do(func() {
		close(w.done)
	})
}

// Run connects and reconnects on failure with exponential backoff.
// This blocks until Close() is called.
func (w *watcher) Run() {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		start := time.Now()
		if err := w.connect(); err != nil {
			log.Printf("websocket connection error: %v", err)
		}

		select {
		case <-w.done:
			return
		default:
		}

		// A session that stayed up for a while starts over from the minimum.
		if time.Since(start) > maxBackoff {
			backoff = time.Second
		}
		log.Printf("reconnecting in %s...", backoff)
		select {
		case <-time.After(backoff):
		case <-w.done:
			return
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (w *watcher) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(w.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", w.url, err)
	}
	defer conn.Close()

	for _, line := range w.startup {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return fmt.Errorf("send %q: %w", line, err)
		}
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					err = nil
				}
				readErr <- err
				return
			}
			for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
				fmt.Fprintln(w.out, formatLine(line, w.colored))
			}
		}
	}()

	select {
	case err := <-readErr:
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		return nil
	case <-w.done:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	}
}

func buildWSURL(api string) string {
	// Convert http(s) to ws(s).
	u := strings.TrimRight(api, "/")
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + "/ws"
}
