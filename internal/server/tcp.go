package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/config"
)

// TCPServer accepts line-oriented chat sessions on a TCP listener.
type TCPServer struct {
	core *chat.Core
	cfg  config.Config
	log  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	sessions *tracker
}

// NewTCPServer creates a TCP server feeding sessions into core.
func NewTCPServer(core *chat.Core, cfg config.Config, log *slog.Logger) *TCPServer {
	return &TCPServer{
		core:     core,
		cfg:      cfg,
		log:      log.With("component", "tcp"),
		sessions: newTracker(),
	}
}

// Listen binds the chat address. Serve calls it when it has not been called.
func (s *TCPServer) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.ChatAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ChatAddr(), err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr is the bound address, or nil before Listen.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes every open
// session and waits up to ShutdownTimeout for them to finish.
func (s *TCPServer) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.log.Info("chat listener started", "addr", ln.Addr().String(), "max_sessions", s.cfg.MaxSessions)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.log.Info("closing sessions", "count", s.sessions.Len())
				if err := s.sessions.drain(s.cfg.ShutdownTimeout); err != nil {
					return fmt.Errorf("tcp shutdown: %w", err)
				}
				return nil
			}
			s.log.Warn("accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		s.handle(conn)
	}
}

func (s *TCPServer) handle(conn net.Conn) {
	c := newClient(newTCPTransport(conn, s.cfg.MaxLineLength), s.cfg.SendBuffer, s.cfg.WriteTimeout, s.log)
	s.sessions.run(c, s.core)
}

// tcpTransport reads newline-delimited lines from a raw TCP connection.
type tcpTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newTCPTransport(conn net.Conn, maxLine int) *tcpTransport {
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, min(maxLine, 4096)), maxLine)
	return &tcpTransport{conn: conn, scanner: sc}
}

func (t *tcpTransport) ReadLine() (string, error) {
	if t.scanner.Scan() {
		return t.scanner.Text(), nil
	}
	if err := t.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (t *tcpTransport) WriteMessage(msg []byte, deadline time.Time) error {
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := t.conn.Write(msg)
	return err
}

func (t *tcpTransport) Close() error { return t.conn.Close() }

func (t *tcpTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }

// isExpectedCloseError reports errors that mean the peer or the server hung
// up normally.
func isExpectedCloseError(err error) bool {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe")
}
