package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	paris := GPSCoordinates{Latitude: 48.8566, Longitude: 2.3522}
	lyon := GPSCoordinates{Latitude: 45.7640, Longitude: 4.8357}
	marseille := GPSCoordinates{Latitude: 43.2965, Longitude: 5.3698}

	tests := []struct {
		name    string
		from    GPSCoordinates
		to      GPSCoordinates
		wantKm  float64
		deltaKm float64
	}{
		{"same point", paris, paris, 0, 0.001},
		{"paris to lyon", paris, lyon, 392, 5},
		{"lyon to marseille", lyon, marseille, 277, 5},
		{"paris to marseille", paris, marseille, 661, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.from, tt.to)
			assert.InDelta(t, tt.wantKm, got, tt.deltaKm)
		})
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := GPSCoordinates{Latitude: 48.8566, Longitude: 2.3522}
	b := GPSCoordinates{Latitude: 43.2965, Longitude: 5.3698}

	assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 0.0001)
}
