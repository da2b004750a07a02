package dbgate

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

const (
	defaultTaskName      = "database"
	maxResponseSizeBytes = 2 << 20
)

type Config struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Task    string        `envconfig:"TASK" split_words:"true" default:"database"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
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

// Client talks to the HQ database API: every capability is a SQL-ish query
// posted to a single endpoint, answered with a {reply, error} envelope.
type Client struct {
	endpoint   string
	apiKey     string
	task       string
	httpClient *http.Client
}

type apiRequest struct {
	Task   string `json:"task"`
	APIKey string `json:"apikey"`
	Query  string `json:"query"`
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if endpoint == "" {
		return nil, errors.New("database api url is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid database api url: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("database api key is required")
	}

	task := strings.TrimSpace(cfg.Task)
	if task == "" {
		task = defaultTaskName
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		task:     task,
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

func (c *Client) Query(ctx context.Context, query string) (Envelope, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Envelope{}, errors.New("query is empty")
	}

	body, err := json.Marshal(apiRequest{
		Task:   c.task,
		APIKey: c.apiKey,
		Query:  query,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal database request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Envelope{}, fmt.Errorf("build database request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope{}, fmt.Errorf("execute database request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return Envelope{}, fmt.Errorf("read database response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Envelope{}, fmt.Errorf("database api status=%d body=%s", resp.StatusCode, string(raw))
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode database response: %w", err)
	}
	return env, nil
}
