package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// Client fetches GTFS-RT protobuf data.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client whose requests give up after timeout. A zero
// timeout means no limit beyond the caller's context.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch reads a feed from an http(s) URL or a file path and returns the raw
// protobuf bytes. Returns nil if source is empty.
func (c *Client) Fetch(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, nil
	}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		b, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, source)
	}

	return io.ReadAll(resp.Body)
}

// FetchFeed fetches and decodes a feed. An empty source yields an empty
// feed message.
func (c *Client) FetchFeed(ctx context.Context, source string) (*gtfsrtpb.FeedMessage, error) {
	b, err := c.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &gtfsrtpb.FeedMessage{}, nil
	}
	fm, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return fm, nil
}
