package launch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// WaitReady polls GET <baseURL>/models until the server answers 200 or ctx
// ends. baseURL is the API root, e.g. http://127.0.0.1:8000/v1.
func WaitReady(ctx context.Context, baseURL string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	url := baseURL + "/models"
	client := &http.Client{Timeout: 5 * time.Second}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("inference server not ready: %w", ctx.Err())
		case <-t.C:
		}
	}
}
