package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corvino/roomtalk/internal/protocol"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

func apiURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// getJSON fetches path and decodes the body into v. Non-2xx responses are
// turned into errors carrying the server's error message.
func getJSON(base, path string, v any) error {
	u := apiURL(base, path)
	resp, err := httpClient.Get(u)
	if err != nil {
		return fmt.Errorf("GET %s: %w", u, err)
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
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func getRooms(base string) (*protocol.RoomList, error) {
	var list protocol.RoomList
	if err := getJSON(base, "/api/rooms", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func getOccupants(base, room string) (*protocol.OccupantList, error) {
	var list protocol.OccupantList
	if err := getJSON(base, "/api/rooms/"+url.PathEscape(room)+"/occupants", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func getHealth(base string) (*protocol.HealthResponse, error) {
	var health protocol.HealthResponse
	if err := getJSON(base, "/api/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}
