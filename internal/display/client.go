package display

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andresserrato2004/carrusel-photo-isis/internal/logger"
	"github.com/andresserrato2004/carrusel-photo-isis/internal/types"
)

const imagesPath = "/api/images"

// Client fetches the gallery from a running server's JSON endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a Client for the server at baseURL.
func NewClient(baseURL string) *Client {
	normalized := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Client{
		endpoint: normalized + imagesPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint returns the URL polled by Fetch.
func (c *Client) Endpoint() string { return c.endpoint }

// Fetch requests the current gallery, bypassing any intermediate cache.
func (c *Client) Fetch(ctx context.Context) ([]types.DisplayImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create images request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call images endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			return nil, fmt.Errorf("images endpoint returned status %d: %s", resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("images endpoint returned status %d", resp.StatusCode)
	}

	var images []types.DisplayImage
	if err := json.NewDecoder(resp.Body).Decode(&images); err != nil {
		return nil, fmt.Errorf("failed to decode images response: %w", err)
	}
	if images == nil {
		images = []types.DisplayImage{}
	}
	return images, nil
}
