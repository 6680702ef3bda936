package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/corvino/roomtalk/internal/protocol"
)

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List visible rooms on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := getRooms(flagAPI)
			if err != nil {
				return err
			}
			renderRooms(os.Stdout, list.Rooms)
			return nil
		},
	}
}

func renderRooms(w io.Writer, rooms []protocol.RoomInfo) {
	if len(rooms) == 0 {
		fmt.Fprintln(w, "no visible rooms")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Users"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, r := range rooms {
		table.Append([]string{r.Name, strconv.Itoa(r.Occupants)})
	}
	table.Render()
}
