package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/marketier-assistant/pkg/logging"
)

const (
	defaultBaseURL = "https://api.calendly.com"
	defaultTimeout = 15 * time.Second
)

// ErrMissingEventType is returned when no event type URI is configured.
var ErrMissingEventType = errors.New("calendly: event type uri is required")

// Client wraps the Calendly REST endpoints used for booking strategy calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
}

// NewClient constructs a Calendly client authenticated with a personal access
// token. A zero timeout uses the default.
func NewClient(baseURL, token string, timeout time.Duration, logger *logging.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		logger:     logger,
	}
}

// AvailableTimes lists open start times for an event type within [start, end).
// Calendly caps the range at seven days.
func (c *Client) AvailableTimes(ctx context.Context, eventType string, start, end time.Time) ([]AvailableTime, error) {
	if strings.TrimSpace(eventType) == "" {
		return nil, ErrMissingEventType
	}
	q := url.Values{}
	q.Set("event_type", eventType)
	q.Set("start_time", start.UTC().Format(time.RFC3339))
	q.Set("end_time", end.UTC().Format(time.RFC3339))

	var wrapped struct {
		Collection []AvailableTime `json:"collection"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/event_type_available_times?"+q.Encode(), nil, &wrapped); err != nil {
		return nil, fmt.Errorf("get available times: %w", err)
	}
	return wrapped.Collection, nil
}

// CreateInvitee books the invitee into the event type at the requested start.
func (c *Client) CreateInvitee(ctx context.Context, req InviteeRequest) (*InviteeResource, error) {
	if strings.TrimSpace(req.EventType) == "" {
		return nil, ErrMissingEventType
	}
	var wrapped struct {
		Resource InviteeResource `json:"resource"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/invitees", req, &wrapped); err != nil {
		return nil, fmt.Errorf("create invitee: %w", err)
	}
	return &wrapped.Resource, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		c.logger.Warn("calendly API non-2xx response", "status", resp.StatusCode, "path", strings.SplitN(path, "?", 2)[0], "body", msg)
		return fmt.Errorf("calendly API returned %d", resp.StatusCode)
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
