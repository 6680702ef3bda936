package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corvino/roomtalk/internal/protocol"
)

// HTTPClient talks to the roomtalk HTTP API.
type HTTPClient struct {
	BaseURL string
	client  *http.Client
}

// NewHTTPClient creates a new HTTP client for the MCP tools.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e protocol.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// ListRooms fetches the visible rooms.
func (c *HTTPClient) ListRooms(ctx context.Context) (*protocol.RoomList, error) {
	var list protocol.RoomList
	if err := c.get(ctx, "/api/rooms", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListOccupants fetches the names of the sessions in room.
func (c *HTTPClient) ListOccupants(ctx context.Context, room string) (*protocol.OccupantList, error) {
	var list protocol.OccupantList
	if err := c.get(ctx, "/api/rooms/"+url.PathEscape(room)+"/occupants", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Health fetches the server status.
func (c *HTTPClient) Health(ctx context.Context) (*protocol.HealthResponse, error) {
	var health protocol.HealthResponse
	if err := c.get(ctx, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}
