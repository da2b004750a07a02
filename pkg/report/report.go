package report

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
)

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Receipt is the central system's verdict on a submitted answer.
// Code zero means accepted.
type Receipt struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (r Receipt) Accepted() bool {
	return r.Code == 0
}

type submission struct {
	Task   string `json:"task"`
	Answer any    `json:"answer"`
	APIKey string `json:"apikey"`
}

// ClientOption customizes Client.
type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client submits final answers to the central report endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if endpoint == "" {
		return nil, errors.New("report url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid report url: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("report api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

func MustNew(cfg Config, opts ...ClientOption) *Client {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Submit posts an answer for the named task. A transport failure is a Go
// error; a rejected answer comes back as a non-zero Receipt code.
func (c *Client) Submit(ctx context.Context, task string, answer any) (Receipt, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return Receipt{}, errors.New("task name is required")
	}

	body, err := json.Marshal(submission{
		Task:   task,
		Answer: answer,
		APIKey: c.apiKey,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("execute report request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("read report response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Receipt{}, fmt.Errorf("report status=%d body=%s", resp.StatusCode, string(raw))
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode report response: %w", err)
	}
	return receipt, nil
}
