package cli

import (
	"hash/fnv"
	"strings"

	"github.com/gookit/color"

	"github.com/corvino/roomtalk/internal/protocol"
)

// senderColors are picked per sender name so a name keeps its color.
var senderColors = []color.Color{
	color.FgCyan,
	color.FgGreen,
	color.FgYellow,
	color.FgMagenta,
	color.FgBlue,
	color.FgRed,
	color.FgLightCyan,
	color.FgLightGreen,
}

func senderColor(name string) color.Color {
	h := fnv.New32a()
	h.Write([]byte(name))
	return senderColors[h.Sum32()%uint32(len(senderColors))]
}

// formatLine renders one server line for the terminal. USERLIST frames
// become a readable list, chat lines get a colored sender and everything
// else is shown as a dimmed notice.
func formatLine(line string, colored bool) string {
	line = strings.TrimRight(line, "\r\n")

	if names, ok := protocol.ParseUserList(line); ok {
		list := "(none)"
		if len(names) > 0 {
			list = strings.Join(names, ", ")
		}
		return paint(colored, color.FgLightWhite, "Users in room:") + " " + list
	}

	if sender, text, found := strings.Cut(line, ": "); found && sender != "" && !strings.ContainsAny(sender, " \t") {
		return paint(colored, senderColor(sender), sender) + ": " + text
	}

	return paint(colored, color.FgGray, line)
}

func paint(colored bool, c color.Color, s string) string {
	if !colored {
		return s
	}
	return c.Render(s)
}
