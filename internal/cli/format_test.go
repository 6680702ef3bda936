package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvino/roomtalk/internal/protocol"
)

func TestFormatLine_Plain(t *testing.T) {
	req := require.New(t)

	req.Equal("alice: hello: world", formatLine("alice: hello: world\n", false))
	req.Equal("Users in room: Anon1, alice", formatLine("USERLIST/Anon1/alice/\n", false))
	req.Equal("Users in room: (none)", formatLine("USERLIST/", false))
	req.Equal("Anon1 joined room Lobby.", formatLine("Anon1 joined room Lobby.\r\n", false))
	req.Equal("Available rooms:", formatLine("Available rooms:\n", false))
}

func TestFormatLine_Colored(t *testing.T) {
	req := require.New(t)

	out := formatLine("alice: hi", true)
	req.True(strings.HasSuffix(out, ": hi"))
	req.Contains(out, "alice")

	// The same sender always gets the same color
	req.Equal(senderColor("alice"), senderColor("alice"))
}

func TestRenderRooms(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer

	renderRooms(&buf, []protocol.RoomInfo{{Name: "Lobby", Occupants: 2}, {Name: "den", Occupants: 0}})

	out := buf.String()
	req.Contains(out, "ROOM")
	req.Contains(out, "USERS")
	req.Contains(out, "Lobby")
	req.Contains(out, "den")

	buf.Reset()
	renderRooms(&buf, nil)
	req.Equal("no visible rooms\n", buf.String())
}

func TestStartupLines(t *testing.T) {
	req := require.New(t)

	req.Empty(startupLines("", ""))
	req.Equal([]string{"/nick bob", "/join den"}, startupLines("bob", "den"))
	req.Equal([]string{"/join den"}, startupLines("", "den"))
}

func TestFindConfig_Walks_Up(t *testing.T) {
	req := require.New(t)
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	req.NoError(os.MkdirAll(nested, 0o755))
	req.NoError(os.WriteFile(filepath.Join(root, configFileName), []byte(`{"addr":"chat:6000","api":"http://chat:9000","nick":"bob"}`), 0o644))

	cfg := findConfig(nested)

	req.NotNil(cfg)
	req.Equal(Config{Addr: "chat:6000", API: "http://chat:9000", Nick: "bob"}, *cfg)
}

func TestBuildWSURL(t *testing.T) {
	req := require.New(t)

	req.Equal("ws://localhost:8080/ws", buildWSURL("http://localhost:8080/"))
	req.Equal("wss://chat.example.com/ws", buildWSURL("https://chat.example.com"))
}
