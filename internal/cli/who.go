package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corvino/roomtalk/internal/protocol"
)

func newWhoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "who [room]",
		Short: "List the users in a room (default Lobby)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room := protocol.LobbyName
			if len(args) == 1 {
				room = args[0]
			}
			list, err := getOccupants(flagAPI, room)
			if err != nil {
				return err
			}
			if list.Count == 0 {
				fmt.Printf("%s is empty\n", list.Room)
				return nil
			}
			fmt.Printf("%s (%d): %s\n", list.Room, list.Count, strings.Join(list.Occupants, ", "))
			return nil
		},
	}
}
