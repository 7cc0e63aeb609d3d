package sirene

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"artisan_dispo/internal/config"
	"encoding/json"
	"log/slog"
)

// Client queries the public SIRENE business registry to check a SIRET number.
type Client interface {
	// VerifySiret looks up a SIRET. The outcome is a pre-check only: the
	// authoritative verification stays with manual admin review, so lookups
	// are pre-accepted even when the registry is unreachable.
	VerifySiret(ctx context.Context, siret string) (*VerificationResult, error)
	// IsEnabled reports whether the registry is actually called.
	IsEnabled() bool
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *slog.Logger
}

// NewClient builds a SIRENE client.
func NewClient(cfg config.SireneConfig, log *slog.Logger) Client {
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

// VerificationResult is the typed outcome of a SIRET lookup.
type VerificationResult struct {
	Siret string `json:"siret"`
	// Accepted is currently always true for well-formed numbers: the
	// registry answer is advisory until an admin reviews the file.
	Accepted bool `json:"accepted"`
	// RegistryFound reports whether the registry actually knew the number.
	RegistryFound bool   `json:"registry_found"`
	CompanyName   string `json:"company_name,omitempty"`
	ActivityCode  string `json:"activity_code,omitempty"`
	Message       string `json:"message,omitempty"`
}

var siretPattern = regexp.MustCompile(`^\d{14}$`)

// ValidFormat reports whether the value is a well-formed 14-digit SIRET.
func ValidFormat(siret string) bool {
	return siretPattern.MatchString(siret)
}

// establishmentResponse mirrors the subset of the registry payload we read.
type establishmentResponse struct {
	Etablissement struct {
		Siret       string `json:"siret"`
		UniteLegale struct {
			DenominationUniteLegale       string `json:"denominationUniteLegale"`
			ActivitePrincipaleUniteLegale string `json:"activitePrincipaleUniteLegale"`
		} `json:"uniteLegale"`
	} `json:"etablissement"`
}

func (c *client) VerifySiret(ctx context.Context, siret string) (*VerificationResult, error) {
	const op = "sirene.Client.VerifySiret"

	if !ValidFormat(siret) {
		return &VerificationResult{
			Siret:    siret,
			Accepted: false,
			Message:  "malformed SIRET, expected 14 digits",
		}, nil
	}

	url := fmt.Sprintf("%s/siret/%s", c.baseURL, siret)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-INSEE-Api-Key-Integration", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Registry unreachable: pre-accept and leave the decision to admin
		// review
		c.log.Warn("SIRENE registry unreachable, pre-accepting", slog.String("siret", siret), slog.String("error", err.Error()))
		return &VerificationResult{
			Siret:    siret,
			Accepted: true,
			Message:  "registry unreachable, pending manual review",
		}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &VerificationResult{
			Siret:    siret,
			Accepted: true,
			Message:  "not found in registry, pending manual review",
		}, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: unexpected status code %d: %s", op, resp.StatusCode, string(body))
	}

	var result establishmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	return &VerificationResult{
		Siret:         siret,
		Accepted:      true,
		RegistryFound: true,
		CompanyName:   result.Etablissement.UniteLegale.DenominationUniteLegale,
		ActivityCode:  result.Etablissement.UniteLegale.ActivitePrincipaleUniteLegale,
	}, nil
}

func (c *client) IsEnabled() bool {
	return true
}

// noopClient pre-accepts everything when the registry integration is off.
type noopClient struct {
	log *slog.Logger
}

func (c *noopClient) VerifySiret(ctx context.Context, siret string) (*VerificationResult, error) {
	c.log.Debug("SIRENE service is disabled, pre-accepting")
	return &VerificationResult{
		Siret:    siret,
		Accepted: ValidFormat(siret),
		Message:  "registry disabled, pending manual review",
	}, nil
}

func (c *noopClient) IsEnabled() bool {
	return false
}
