package calendar

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

	"github.com/hashicorp/go-retryablehttp"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/config"
	"github.com/samandr77/crm/pkg/transport"
)

const (
	defaultRetryWaitMin = time.Millisecond * 200
	defaultRetryWaitMax = time.Second * 2
)

var ErrEmptyLink = errors.New("calendar returned an empty event link")

type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(cfg config.Calendar) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryAttempts
	retryClient.RetryWaitMin = defaultRetryWaitMin
	retryClient.RetryWaitMax = defaultRetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.HTTPClient.Transport = transport.NewLoggingRoundTripper(retryClient.HTTPClient.Transport, cfg.Token)

	retryClient.Logger = nil

	return &Client{
		client:  retryClient.StandardClient(),
		baseURL: strings.TrimRight(cfg.URL, "/"),
	}
}

type EventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees"`
}

type EventResponse struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// CreateEvent creates the event and returns its link. Server errors are retried.
func (c *Client) CreateEvent(ctx context.Context, e entity.CalendarEvent) (string, error) {
	b, err := json.Marshal(EventRequest{
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Attendees:   e.Attendees,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status code: %d\n%s", resp.StatusCode, body)
	}

	var res EventResponse

	err = json.Unmarshal(body, &res)
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if res.Link == "" {
		return "", ErrEmptyLink
	}

	return res.Link, nil
}
