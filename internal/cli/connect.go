package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	var room string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Open an interactive chat session over TCP",
		Long: `Connects to the chat server, prints every line it sends and forwards
stdin line by line. Commands: /nick, /join, /leave, /who, /list, /create,
/create_secret, /delete, /exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.DialTimeout("tcp", flagAddr, 10*time.Second)
			if err != nil {
				return fmt.Errorf("connect %s: %w", flagAddr, err)
			}
			defer conn.Close()
			fmt.Fprintf(os.Stderr, "connected to %s\n", flagAddr)

			for _, line := range startupLines(flagNick, room) {
				if _, err := fmt.Fprintln(conn, line); err != nil {
					return fmt.Errorf("send %q: %w", line, err)
				}
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			done := make(chan error, 1)
			go func() {
				done <- printLines(conn, os.Stdout, !flagNoColor)
			}()
			go forwardLines(os.Stdin, conn)

			select {
			case err := <-done:
				if err != nil {
					return fmt.Errorf("read: %w", err)
				}
				fmt.Fprintln(os.Stderr, "connection closed")
				return nil
			case <-interrupt:
				fmt.Fprintln(os.Stderr, "\ndisconnecting...")
				fmt.Fprintln(conn, "/exit")
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&room, "room", "r", "", "room to join after connecting")

	return cmd
}

// printLines copies server lines to out until the connection ends.
func printLines(r io.Reader, out io.Writer, colored bool) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fmt.Fprintln(out, formatLine(sc.Text(), colored))
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func forwardLines(r io.Reader, w io.Writer) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if _, err := fmt.Fprintln(w, sc.Text()); err != nil {
			return
		}
	}
}
