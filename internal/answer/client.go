package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the remote answering service
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates a new answering service client. A zero timeout leaves
// requests unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL: baseURL,
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "ragchat/1.0"),
	}
}

// Ask submits question and returns the decoded reply. Exactly one attempt
// is made.
func (c *Client) Ask(ctx context.Context, question string) (*Response, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(Request{Question: question}).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{
			Code: resp.StatusCode(),
			Body: BodyText(resp.Body(), resp.Header().Get("Content-Type")),
		}
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &out, nil
}

// HealthCheck verifies that the service is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result struct {
		Status string `json:"status"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/health")
	if err != nil {
		return fmt.Errorf("answering service is unreachable at %s: %w", c.baseURL, err)
	}
	if !resp.IsSuccess() {
		return &StatusError{Code: resp.StatusCode(), Body: BodyText(resp.Body(), resp.Header().Get("Content-Type"))}
	}
	if result.Status != "ok" {
		return fmt.Errorf("answering service reports status %q", result.Status)
	}

	return nil
}

// Version returns the service's self-reported version
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var info VersionInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/api/version")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{Code: resp.StatusCode(), Body: BodyText(resp.Body(), resp.Header().Get("Content-Type"))}
	}

	return &info, nil
}
