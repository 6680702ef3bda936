package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"

	"github.com/corvino/roomtalk/internal/protocol"
)

// prop is a shorthand for building a JSON Schema property.
func prop(typ, desc string) any {
	return map[string]any{
		"type":        typ,
		"description": desc,
	}
}

// RegisterTools adds all roomtalk tools to the MCP server.
func RegisterTools(srv *mcpserver.MCPServer, client *HTTPClient, lines *LineClient) {
	// 1. list_rooms
	srv.AddTool(mcplib.Tool{
		Name:        "list_rooms",
		Description: "List the visible chat rooms with how many users are in each. Secret rooms are not listed.",
		InputSchema: mcplib.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, makeListRoomsHandler(client))

	// 2. list_occupants
	srv.AddTool(mcplib.Tool{
		Name:        "list_occupants",
		Description: "List the users currently in a room. Works for secret rooms when the name is known.",
		InputSchema: mcplib.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"room": prop("string", "Room name (default: Lobby)"),
			},
		},
	}, makeListOccupantsHandler(client))

	// 3. server_status
	srv.AddTool(mcplib.Tool{
		Name:        "server_status",
		Description: "Report server uptime, room count and session usage.",
		InputSchema: mcplib.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, makeServerStatusHandler(client))

	// 4. send_message
	srv.AddTool(mcplib.Tool{
		Name:        "send_message",
		Description: "Post one chat line to a room through a short-lived session. Lines starting with / are sent as commands.",
		InputSchema: mcplib.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"room": prop("string", "Room to post in (default: Lobby)"),
				"text": prop("string", "The message text to send"),
			},
			Required: []string{"text"},
		},
	}, makeSendMessageHandler(lines))
}

func makeListRoomsHandler(client *HTTPClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		list, err := client.ListRooms(ctx)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to list rooms: %v", err)), nil
		}
		if len(list.Rooms) == 0 {
			return mcplib.NewToolResultText("No visible rooms."), nil
		}

		rows := lo.Map(list.Rooms, func(r protocol.RoomInfo, _ int) string {
			return strings.TrimSuffix(protocol.RoomListEntry(r.Name, r.Occupants), "\n")
		})
		return mcplib.NewToolResultText(strings.Join(rows, "\n")), nil
	}
}

func makeListOccupantsHandler(client *HTTPClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		room := request.GetString("room", protocol.LobbyName)

		list, err := client.ListOccupants(ctx, room)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to list occupants: %v", err)), nil
		}
		if list.Count == 0 {
			return mcplib.NewToolResultText(fmt.Sprintf("No users in %s.", list.Room)), nil
		}
		return mcplib.NewToolResultText(fmt.Sprintf("%s (%d): %s", list.Room, list.Count, strings.Join(list.Occupants, ", "))), nil
	}
}

func makeServerStatusHandler(client *HTTPClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		h, err := client.Health(ctx)
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("server unreachable: %v", err)), nil
		}
		return mcplib.NewToolResultText(fmt.Sprintf(
			"status: %s\nuptime: %s\nrooms: %d\nsessions: %d/%d",
			h.Status, h.Uptime, h.Rooms, h.Sessions, h.Capacity,
		)), nil
	}
}

func makeSendMessageHandler(lines *LineClient) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		text := request.GetString("text", "")
		room := request.GetString("room", "")
		if text == "" {
			return mcplib.NewToolResultError("text is required"), nil
		}

		_, err := lines.Post(ctx, room, text)
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return mcplib.NewToolResultError(rejected.Line), nil
		}
		if err != nil {
			return mcplib.NewToolResultError(fmt.Sprintf("failed to send: %v", err)), nil
		}
		if room == "" {
			room = protocol.LobbyName
		}
		return mcplib.NewToolResultText(fmt.Sprintf("Message sent to %s.", room)), nil
	}
}
