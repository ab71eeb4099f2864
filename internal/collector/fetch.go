package collector

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

	"github.com/RMahshie/kiwisnr/pkg/models"
)

// ErrBadStatus is returned when the receiver answers with a non-2xx status
var ErrBadStatus = errors.New("unexpected status from receiver")

// maxBodySize caps the /snr response
const maxBodySize = 8 * 1024 * 1024

// Fetcher retrieves the snapshot array from a receiver
type Fetcher interface {
	Fetch(ctx context.Context) (*Response, error)
	Endpoint() string
}

// Response is a decoded /snr body plus its raw bytes for the durable log
type Response struct {
	Snapshots []models.Snapshot
	Raw       json.RawMessage
}

// HTTPFetcher polls GET {base}/snr
type HTTPFetcher struct {
	client   *http.Client
	endpoint string
}

// NewHTTPFetcher creates a fetcher bound to baseURL with a per-request timeout
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		endpoint: SNREndpoint(baseURL),
	}
}

// SNREndpoint returns the /snr URL for a receiver base URL
func SNREndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/snr"
}

// Endpoint returns the polled URL
func (f *HTTPFetcher) Endpoint() string {
	return f.endpoint
}

// Fetch performs one request. The body must be a JSON array of snapshots.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("malformed snapshot array: body is not a JSON array")
	}

	var snaps []models.Snapshot
	if err := json.Unmarshal(trimmed, &snaps); err != nil {
		return nil, fmt.Errorf("malformed snapshot array: %w", err)
	}

	return &Response{Snapshots: snaps, Raw: json.RawMessage(trimmed)}, nil
}
