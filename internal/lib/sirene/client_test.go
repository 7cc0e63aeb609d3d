package sirene

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"artisan_dispo/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		siret string
		want  bool
	}{
		{"73282932000074", true},
		{"00000000000000", true},
		{"7328293200007", false},
		{"732829320000741", false},
		{"7328293200007A", false},
		{"", false},
		{"73282932 00074", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidFormat(tt.siret), "siret %q", tt.siret)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestClient_VerifySiret_RegistryFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "73282932000074")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"etablissement": map[string]any{
				"siret": "73282932000074",
				"uniteLegale": map[string]any{
					"denominationUniteLegale": "LEFEVRE PLOMBERIE",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(config.SireneConfig{Enabled: true, BaseURL: srv.URL}, testLogger())

	res, err := c.VerifySiret(context.Background(), "73282932000074")

	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.RegistryFound)
	assert.Equal(t, "LEFEVRE PLOMBERIE", res.CompanyName)
}

func TestClient_VerifySiret_UnknownNumberStillAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(config.SireneConfig{Enabled: true, BaseURL: srv.URL}, testLogger())

	res, err := c.VerifySiret(context.Background(), "73282932000074")

	require.NoError(t, err)
	assert.True(t, res.Accepted, "registry miss is advisory, admin review decides")
	assert.False(t, res.RegistryFound)
}

func TestClient_Disabled(t *testing.T) {
	c := NewClient(config.SireneConfig{Enabled: false}, testLogger())

	assert.False(t, c.IsEnabled())

	res, err := c.VerifySiret(context.Background(), "73282932000074")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}
