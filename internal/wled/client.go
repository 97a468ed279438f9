// Package wled talks to WLED controllers over their JSON HTTP API.
package wled

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds each request to the device.
const DefaultTimeout = 2500 * time.Millisecond

// Client provides access to a single WLED device.
type Client struct {
	address    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new WLED client. address is a host, host:port or a full
// base URL. A zero timeout uses DefaultTimeout; a zero rps disables rate limiting.
func NewClient(address string, timeout time.Duration, rps float64) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}

	return &Client{
		address:    address,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// Address returns the device address
func (c *Client) Address() string {
	return c.address
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) url(path string) string {
	base := c.address
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/") + path
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// Info fetches LED count, segment slots and effect count from /json/info.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	resp, err := c.request(ctx, http.MethodGet, "/json/info", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch info from %s: %w", c.address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch info from %s: unexpected status code: %d", c.address, resp.StatusCode)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode info from %s: %w", c.address, err)
	}

	log.Debug().
		Str("address", c.address).
		Int("leds", info.Leds.Count).
		Int("maxseg", info.Leds.MaxSeg).
		Int("fxcount", info.FxCount).
		Msg("Device info fetched")

	return &info, nil
}

// SetState posts a state update to /json/state.
func (c *Client) SetState(ctx context.Context, state State) error {
	bodyBytes, err := json.Marshal(state)
	if err != nil {
		return err
	}

	resp, err := c.request(ctx, http.MethodPost, "/json/state", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to set state on %s: %w", c.address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to set state on %s: %d: %s", c.address, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	log.Debug().
		Str("address", c.address).
		Int("segments", len(state.Seg)).
		Msg("State sent")

	return nil
}
