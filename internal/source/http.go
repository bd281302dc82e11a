package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const discardLimit int64 = 128 * 1024

// HTTP polls a heartbeat endpoint with GET. A 2xx response body is the
// liveness token; any other status yields no token and a descriptive error.
type HTTP struct {
	URL    string
	Client *http.Client // nil uses http.DefaultClient; deadlines come from ctx
}

func (h HTTP) Heartbeat(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return "", err
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer cleanupBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("heartbeat endpoint returned %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxTokenBytes))
	if err != nil {
		return "", fmt.Errorf("read heartbeat body: %w", err)
	}
	return normalizeToken(string(b)), nil
}

func (h HTTP) Describe() string { return "http:" + h.URL }

// cleanupBody drains a bounded amount of the body so keep-alive connections
// can be reused, then closes it.
func cleanupBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, &io.LimitedReader{R: body, N: discardLimit})
	_ = body.Close()
}
