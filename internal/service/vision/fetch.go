package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher downloads photo variants the transport hands over by URL.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a download client with a bounded timeout.
func NewFetcher(timeoutSeconds int) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

// Fetch retrieves the raw bytes behind url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}

	// Photos come from the transport's file storage; cap the size to keep
	// misbehaving inputs from exhausting memory.
	const maxImageBytes = 20 << 20
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("download read failed: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("download returned empty body")
	}

	return data, nil
}
