package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvino/roomtalk/internal/mcp"
)

func newMCPServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start the MCP stdio server",
		Long:   `Runs a Model Context Protocol (MCP) server over stdio exposing the chat server as tools (list_rooms, list_occupants, server_status, send_message).`,
		Hidden: true, // Not typically called by users directly
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagAPI == "" {
				return fmt.Errorf("API URL is required (use --api or .roomtalk config)")
			}
			if flagAddr == "" {
				return fmt.Errorf("chat address is required (use --addr or .roomtalk config)")
			}

			return mcp.Serve(mcp.Config{
				APIURL:   flagAPI,
				ChatAddr: flagAddr,
				Name:     flagNick,
			})
		},
	}

	return cmd
}
