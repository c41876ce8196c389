package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimited is returned when the gateway rejects an event with 429.
var ErrRateLimited = errors.New("rate limited by gateway")

// Event is an inbound chat event. GuildID is empty for direct messages.
type Event struct {
	Type        string `json:"type,omitempty"`
	GuildID     string `json:"guild_id,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	Content     string `json:"content"`
}

// Surface addresses a conversation the bot writes to.
type Surface struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// OutboxItem is one message or reaction emitted by the bot.
type OutboxItem struct {
	Seq       int64     `json:"seq"`
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Surface   Surface   `json:"surface"`
	ChannelID string    `json:"channel_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Marker    string    `json:"marker,omitempty"`
	Emoji     string    `json:"emoji,omitempty"`
}

// QueuedReport is a pending report as listed by GET /queue.
type QueuedReport struct {
	Ticket   string `json:"ticket"`
	Reporter string `json:"reporter"`
	Offender string `json:"offender"`
	Category string `json:"category"`
	Specific string `json:"specific"`
	Head     bool   `json:"head"`
}

// Karma is a user's report count.
type Karma struct {
	User             string `json:"user"`
	Count            int    `json:"count"`
	Threshold        int    `json:"threshold"`
	ThresholdReached bool   `json:"threshold_reached"`
}

// AuditStatus summarizes the audit log.
type AuditStatus struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

// Client talks to one gateway.
type Client struct {
	base       string
	httpClient *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient.Timeout = d
		return nil
	}
}

// New creates a Client for the gateway at base, e.g. "http://localhost:8090".
func New(base string, opts ...Option) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway URL %q", base)
	}
	c := &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// PostEvent submits ev and returns the outbound items it produced.
func (c *Client) PostEvent(ctx context.Context, ev Event) ([]OutboxItem, error) {
	var resp struct {
		Items []OutboxItem `json:"items"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/events", ev, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Outbox returns outbound items with a sequence number greater than after,
// and the newest sequence number.
func (c *Client) Outbox(ctx context.Context, after int64) ([]OutboxItem, int64, error) {
	var resp struct {
		Items   []OutboxItem `json:"items"`
		LastSeq int64        `json:"last_seq"`
	}
	path := "/api/v1/outbox?after=" + strconv.FormatInt(after, 10)
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Items, resp.LastSeq, nil
}

// Queue lists the pending reports, head first.
func (c *Client) Queue(ctx context.Context) ([]QueuedReport, error) {
	var resp struct {
		Reports []QueuedReport `json:"reports"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/queue", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}

// Karma returns the report count of user.
func (c *Client) Karma(ctx context.Context, user string) (*Karma, error) {
	var k Karma
	if err := c.call(ctx, http.MethodGet, "/api/v1/karma/"+url.PathEscape(user), nil, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// Audit returns the audit log length and root and verifies the chain.
func (c *Client) Audit(ctx context.Context) (*AuditStatus, error) {
	var st AuditStatus
	if err := c.call(ctx, http.MethodGet, "/api/v1/audit", nil, &st); err != nil {
		return nil, err
	}
	var v struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/audit/verify", nil, &v); err != nil {
		return nil, err
	}
	st.Valid, st.Error = v.Valid, v.Error
	return &st, nil
}

func (c *Client) call(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	data, err := c.do(req)
	if err != nil {
		return err
	}
	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(data, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("not found: %s", req.URL.Path)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
