package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SyncClient reads change feeds from the profile service.
type SyncClient struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func NewSyncClient(baseURL, serviceToken string) *SyncClient {
	return &SyncClient{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// getChanges GETs endpointPath?since=... and decodes the JSON body into out.
func (c *SyncClient) getChanges(ctx context.Context, endpointPath string, since time.Time, out any) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL %q: %w", c.baseURL, err)
	}

	endpointURL := base.JoinPath(endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.serviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return nil
}

// runEvery calls sync immediately and then on every tick until ctx ends.
func runEvery(ctx context.Context, interval time.Duration, sync func(context.Context) error) {
	if interval <= 0 {
		interval = time.Minute
	}
	_ = sync(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = sync(ctx)
		case <-ctx.Done():
			return
		}
	}
}
