package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable marks any collaborator answer that carries no real data:
// transport failures, non-2xx responses and the fallback payloads the
// upstream services return when their circuit breakers are open.
var ErrUnavailable = errors.New("collaborator unavailable")

const fallbackMarker = "fallback"

func isFallback(s string) bool {
	return strings.EqualFold(strings.Trim(strings.TrimSpace(s), `"`), fallbackMarker)
}

func unavailable(service, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", service, fmt.Sprintf(format, args...), ErrUnavailable)
}

type restClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
}

func newRestClient(service, baseURL string, timeout time.Duration) restClient {
	return restClient{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do sends in as JSON (when non-nil) and returns the raw response body.
// When out is non-nil the body is also decoded into it.
func (c restClient) do(ctx context.Context, method, path string, in, out any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", c.service, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(c.service, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(c.service, "read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unavailable(c.service, "%s %s returned status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, unavailable(c.service, "decode response: %v", err)
		}
	}
	return raw, nil
}
