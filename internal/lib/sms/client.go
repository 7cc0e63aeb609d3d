package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"artisan_dispo/internal/config"
	"log/slog"
)

// Client sends SMS through the gateway's HTTP API.
type Client interface {
	SendSMS(ctx context.Context, req SendRequest) (*SendResult, error)
	IsEnabled() bool
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
	log        *slog.Logger
}

// NewClient builds an SMS gateway client.
func NewClient(cfg config.SMSConfig, log *slog.Logger) Client {
	if !cfg.Enabled {
		return &noopClient{log: log}
	}

	return &client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.FromNumber,
		log:     log,
	}
}

// SendRequest is one outgoing SMS.
type SendRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

// SendResult is the typed gateway answer.
type SendResult struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

func (c *client) SendSMS(ctx context.Context, req SendRequest) (*SendResult, error) {
	const op = "sms.Client.SendSMS"

	if req.From == "" {
		req.From = c.from
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	url := fmt.Sprintf("%s/messages", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to send request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status code %d: %s", op, resp.StatusCode, string(body))
	}

	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return &result, nil
}

func (c *client) IsEnabled() bool {
	return true
}

// noopClient reports success without sending when the gateway is disabled.
type noopClient struct {
	log *slog.Logger
}

func (c *noopClient) SendSMS(ctx context.Context, req SendRequest) (*SendResult, error) {
	c.log.Debug("SMS service is disabled", slog.String("to", req.To))
	return &SendResult{Status: "skipped"}, nil
}

func (c *noopClient) IsEnabled() bool {
	return false
}
