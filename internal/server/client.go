package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/protocol"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrClientSlow   = errors.New("client send queue full")
)

// transport is one connection's byte stream as seen by a Client.
type transport interface {
	// ReadLine blocks for the next line, without its terminator.
	ReadLine() (string, error)
	// WriteMessage writes msg before the deadline.
	WriteMessage(msg []byte, deadline time.Time) error
	Close() error
	RemoteAddr() string
}

// pinger is implemented by transports that need keepalives.
type pinger interface {
	Ping(deadline time.Time) error
}

const pingPeriod = 54 * time.Second

// Client drives one session: the read pump feeds lines to the core, the
// write pump drains the outbound queue onto the transport.
type Client struct {
	conn         transport
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	session      *chat.Session
	log          *slog.Logger
}

func newClient(conn transport, sendBuffer int, writeTimeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		conn:         conn,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Send queues msg for delivery. It never blocks: a full queue drops the
// message and reports ErrClientSlow.
func (c *Client) Send(msg []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrClientSlow
	}
}

// serve registers the client with core and runs both pumps until the
// session ends. It returns once the connection is closed.
func (c *Client) serve(core *chat.Core) {
	session, err := core.Connect(c)
	if errors.Is(err, chat.ErrServerFull) {
		c.rejectFull()
		return
	}
	if err != nil {
		c.log.Error("connect failed", "remote", c.conn.RemoteAddr(), "error", err)
		c.close()
		return
	}
	c.session = session
	c.log = c.log.With("session_id", session.ID, "remote", c.conn.RemoteAddr())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump()
	session.Close()
	c.shutdown()
	<-writerDone
	c.close()
}

// rejectFull tells the peer the server is full and hangs up without ever
// holding a session slot.
func (c *Client) rejectFull() {
	c.log.Warn("rejecting connection, server full", "remote", c.conn.RemoteAddr())
	if err := c.conn.WriteMessage([]byte(protocol.MsgServerFull), time.Now().Add(c.writeTimeout)); err != nil {
		c.log.Debug("write full notice failed", "remote", c.conn.RemoteAddr(), "error", err)
	}
	c.close()
}

// readPump reads lines until /exit, EOF or a read error.
func (c *Client) readPump() {
	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			if !isExpectedCloseError(err) {
				c.log.Info("read error", "error", err)
			}
			return
		}
		if c.session.Handle(strings.TrimRight(line, "\r")) {
			return
		}
	}
}

// writePump writes queued messages until the client shuts down. Messages
// already queued at shutdown are flushed first.
func (c *Client) writePump() {
	var tick <-chan time.Time
	p, canPing := c.conn.(pinger)
	if canPing {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(msg, time.Now().Add(c.writeTimeout)); err != nil {
				c.log.Debug("write failed", "error", err)
				c.shutdown()
				c.close()
				return
			}
		case <-tick:
			if err := p.Ping(time.Now().Add(c.writeTimeout)); err != nil {
				c.log.Debug("ping failed", "error", err)
				c.shutdown()
				c.close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(msg, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
		default:
			return
		}
	}
}

// shutdown stops the write pump and makes further Sends fail.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// close closes the transport. When called from outside, e.g. on server
// shutdown, the read pump sees the closed transport and runs the normal
// disconnect sequence.
func (c *Client) close() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Debug("close failed", "error", err)
	}
}

// tracker keeps the set of live clients so that shutdown can close them and
// wait for their disconnect sequences.
type tracker struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func newTracker() *tracker {
	return &tracker{clients: make(map[*Client]struct{})}
}

// run serves c on its own goroutine. After drain has started, c is closed
// without being served.
func (t *tracker) run(c *Client, core *chat.Core) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		c.close()
		return
	}
	t.clients[c] = struct{}{}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer func() {
			t.mu.Lock()
			delete(t.clients, c)
			t.mu.Unlock()
		}()
		c.serve(core)
	}()
}

// Len is the number of clients still being served.
func (t *tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// drain closes every live client and waits up to timeout for them to finish.
func (t *tracker) drain(timeout time.Duration) error {
	t.mu.Lock()
	t.closed = true
	open := make([]*Client, 0, len(t.clients))
	for c := range t.clients {
		open = append(open, c)
	}
	t.mu.Unlock()

	for _, c := range open {
		c.close()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%d sessions still open after %s", t.Len(), timeout)
	}
}
