package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"kittenboard/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the Kittenboard HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// StartSession registers the player identity and returns its durable record.
// Starting twice with the same identity returns the same record.
func (c *Client) StartSession(ctx context.Context, identity string) (core.PlayerRecord, error) {
	return c.postIdentity(ctx, "/sessions", identity)
}

// RecordWin reports a win for an identity with an active session and returns
// the updated record.
func (c *Client) RecordWin(ctx context.Context, identity string) (core.PlayerRecord, error) {
	return c.postIdentity(ctx, "/wins", identity)
}

func (c *Client) postIdentity(ctx context.Context, route, identity string) (core.PlayerRecord, error) {
	if strings.TrimSpace(identity) == "" {
		return core.PlayerRecord{}, ErrEmptyIdentity
	}
	body, err := json.Marshal(map[string]string{"identity": identity})
	if err != nil {
		return core.PlayerRecord{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return core.PlayerRecord{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	defer resp.Body.Close()

	var rec core.PlayerRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return core.PlayerRecord{}, err
	}
	return rec, nil
}

// Leaderboard fetches the current top-n snapshot. Pass n <= 0 for the
// server's default width.
func (c *Client) Leaderboard(ctx context.Context, n int) (core.LeaderboardSnapshot, error) {
	u := c.baseURL + "/leaderboard"
	if n > 0 {
		u = fmt.Sprintf("%s?n=%d", u, n)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var snap core.LeaderboardSnapshot
	if err := decodeJSON(resp, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Player fetches a single player record without starting a session.
func (c *Client) Player(ctx context.Context, identity string) (core.PlayerRecord, error) {
	if strings.TrimSpace(identity) == "" {
		return core.PlayerRecord{}, ErrEmptyIdentity
	}
	u := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(identity))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.PlayerRecord{}, err
	}
	defer resp.Body.Close()

	var rec core.PlayerRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return core.PlayerRecord{}, err
	}
	return rec, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The first event is always a leaderboard snapshot; subsequent events arrive
// as wins are recorded. The returned channel closes when ctx is done or the
// connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
