package payment

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

// Client creates payment intents for contract deposits. The provider's state
// machine stays on the provider side; we only hold the intent reference.
type Client interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	IsEnabled() bool
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *slog.Logger
}

// NewClient builds a payment provider client.
func NewClient(cfg config.PaymentConfig, log *slog.Logger) Client {
	if !cfg.Enabled {
		return &noopClient{log: log}
	}

	return &client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		log:     log,
	}
}

// IntentRequest asks the provider for a deposit intent on a contract.
type IntentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	ContractRef string `json:"contract_ref"`
}

// Intent is the typed provider answer.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

func (c *client) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	const op = "payment.Client.CreateIntent"

	if req.Currency == "" {
		req.Currency = "eur"
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	url := fmt.Sprintf("%s/payment_intents", c.baseURL)

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

	var result Intent
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return &result, nil
}

func (c *client) IsEnabled() bool {
	return true
}

// noopClient hands out a fake intent when payments are disabled.
type noopClient struct {
	log *slog.Logger
}

func (c *noopClient) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	c.log.Debug("payment service is disabled", slog.String("contract_ref", req.ContractRef))
	return &Intent{
		ID:     "intent_disabled",
		Status: "skipped",
	}, nil
}

func (c *noopClient) IsEnabled() bool {
	return false
}
