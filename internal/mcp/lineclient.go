package mcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/corvino/roomtalk/internal/chat"
	"github.com/corvino/roomtalk/internal/protocol"
)

const (
	// settle is how long Post waits for the server's replies after writing
	// the text.
	settle = 300 * time.Millisecond

	// stepTimeout bounds each setup step when ctx has no deadline.
	stepTimeout = 5 * time.Second
)

// RejectedError carries the server line that refused a setup step. Nothing
// has been posted when Post returns it.
type RejectedError struct {
	Line string
}

func (e *RejectedError) Error() string { return e.Line }

// LineClient posts messages through a short-lived chat session.
type LineClient struct {
	Addr string
	Name string
}

// NewLineClient creates a client that connects to the chat server at addr and
// claims name, when set, before posting.
func NewLineClient(addr, name string) *LineClient {
	return &LineClient{Addr: addr, Name: name}
}

type lineSession struct {
	conn    net.Conn
	r       *bufio.Reader
	ctx     context.Context
	replies []string
}

// Post claims the nick, joins room, and only once both are confirmed sends
// text. It returns every line the server sent back during the session. A
// refused step ends the session before text is written and is reported as a
// *RejectedError.
func (c *LineClient) Post(ctx context.Context, room, text string) ([]string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	s := &lineSession{conn: conn, r: bufio.NewReader(conn), ctx: ctx}

	welcome := trimLine(protocol.MsgWelcome)
	full := trimLine(protocol.MsgServerFull)
	line, err := s.await(func(l string) bool { return l == welcome || l == full })
	if err != nil {
		return s.replies, fmt.Errorf("greeting: %w", err)
	}
	if line == full {
		return s.replies, &RejectedError{Line: line}
	}

	if c.Name != "" {
		if err := s.nick(c.Name); err != nil {
			return s.replies, err
		}
	}
	if room != "" {
		if err := s.join(room); err != nil {
			return s.replies, err
		}
	}

	if err := s.write(text); err != nil {
		return s.replies, err
	}
	conn.SetReadDeadline(time.Now().Add(settle))
	for {
		l, err := s.r.ReadString('\n')
		if err != nil {
			break
		}
		s.replies = append(s.replies, trimLine(l))
	}

	s.write(chat.CmdExit)
	return s.replies, nil
}

func (s *lineSession) nick(name string) error {
	if err := s.write("/nick " + name); err != nil {
		return err
	}
	changed := trimLine(protocol.NickChanged(name))
	taken := trimLine(protocol.MsgNickTaken)
	reserved := trimLine(protocol.NickReserved(name))
	line, err := s.await(func(l string) bool { return l == changed || l == taken || l == reserved })
	if err != nil {
		return fmt.Errorf("nick: %w", err)
	}
	if line != changed {
		return s.reject(line)
	}
	return nil
}

// join moves into room. /who follows the /join so its reply marks the point
// where any refusal of the join has already arrived.
func (s *lineSession) join(room string) error {
	if err := s.write("/join " + room + "\n/who"); err != nil {
		return err
	}
	missing := trimLine(protocol.MsgNoSuchRoom)
	line, err := s.await(func(l string) bool {
		return l == missing || strings.HasPrefix(l, protocol.UserListPrefix)
	})
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	if line == missing {
		return s.reject(line)
	}
	return nil
}

// await reads lines until match accepts one and returns it.
func (s *lineSession) await(match func(string) bool) (string, error) {
	deadline, ok := s.ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(stepTimeout)
	}
	s.conn.SetReadDeadline(deadline)
	for {
		l, err := s.r.ReadString('\n')
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", err
		}
		l = trimLine(l)
		s.replies = append(s.replies, l)
		if match(l) {
			return l, nil
		}
	}
}

func (s *lineSession) reject(line string) error {
	s.write(chat.CmdExit)
	return &RejectedError{Line: line}
}

func (s *lineSession) write(lines string) error {
	if _, err := fmt.Fprint(s.conn, lines+"\n"); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func trimLine(l string) string {
	return strings.TrimRight(l, "\r\n")
}
