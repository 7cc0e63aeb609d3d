package matching

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"artisan_dispo/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lyon     = domain.GPSCoordinates{Latitude: 45.7640, Longitude: 4.8357}
	paris    = domain.GPSCoordinates{Latitude: 48.8566, Longitude: 2.3522}
	lyonEast = domain.GPSCoordinates{Latitude: 45.7640, Longitude: 4.9357} // ~8 km from lyon
)

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func day(key string) time.Time {
	d, err := domain.ParseDay(key)
	if err != nil {
		panic(err)
	}
	return d
}

func days(keys ...string) []time.Time {
	out := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		out = append(out, day(k))
	}
	return out
}

// alwaysFree marks every weekday available.
func alwaysFree() domain.Calendar {
	weekly := domain.WeeklyPattern{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		weekly[wd] = true
	}
	return domain.Calendar{Weekly: weekly}
}

func testArtisan(opts ...func(*domain.ArtisanProfile)) domain.ArtisanProfile {
	a := domain.ArtisanProfile{
		ID:         uuid.New(),
		Categories: []domain.TradeCategory{domain.TradePlomberie},
		Zones:      []domain.ServiceZone{{City: "Lyon", GPS: &lyon}},
		Status:     domain.ArtisanStatusActive,
		Calendar:   alwaysFree(),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func baseCriteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Category:     domain.TradePlomberie,
		City:         "Lyon",
		GPS:          &lyon,
		DesiredDates: days("2026-09-07"), // a Monday
	}
}

var testNow = day("2026-09-01")

func TestEngine_CategoryIsHardFilter(t *testing.T) {
	e := testEngine()

	plumber := testArtisan()
	painter := testArtisan(func(a *domain.ArtisanProfile) {
		a.Categories = []domain.TradeCategory{domain.TradePeinture}
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{plumber, painter}, testNow)

	require.Len(t, results, 1)
	assert.Equal(t, plumber.ID, results[0].Artisan.ID)
}

func TestEngine_RadiusIsHardCutoff(t *testing.T) {
	e := testEngine()

	near := testArtisan()
	far := testArtisan(func(a *domain.ArtisanProfile) {
		a.Zones = []domain.ServiceZone{{City: "Paris", GPS: &paris}}
	})

	criteria := baseCriteria()
	radius := 30.0
	criteria.MaxRadiusKm = &radius

	results := e.Match(criteria, []domain.ArtisanProfile{near, far}, testNow)

	require.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].Artisan.ID)
}

func TestEngine_MissingGPSGetsNeutralScoreNotExclusion(t *testing.T) {
	e := testEngine()

	noGPS := testArtisan(func(a *domain.ArtisanProfile) {
		a.Zones = []domain.ServiceZone{{City: "Lyon"}}
	})

	criteria := baseCriteria()
	radius := 10.0
	criteria.MaxRadiusKm = &radius

	results := e.Match(criteria, []domain.ArtisanProfile{noGPS}, testNow)

	require.Len(t, results, 1)
	assert.Equal(t, domain.NeutralDistanceScore, results[0].Details.DistanceScore)
	assert.Nil(t, results[0].Details.DistanceKm)
}

func TestEngine_NoGPSCityMismatchScoresZeroDistance(t *testing.T) {
	e := testEngine()

	elsewhere := testArtisan(func(a *domain.ArtisanProfile) {
		a.Zones = []domain.ServiceZone{{City: "Paris"}}
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{elsewhere}, testNow)

	require.Len(t, results, 1, "a city mismatch is not an exclusion")
	assert.Zero(t, results[0].Details.DistanceScore)
}

func TestEngine_NoGPSCityMatchHandlesAliasesAndAddresses(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name     string
		ville    string
		zoneCity string
	}{
		{"normalized alias", "st etienne", "Saint-Étienne"},
		{"free-text zone address", "Lyon", "12 rue Pasteur, 69003 Lyon"},
		{"case difference", "LYON", "lyon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artisan := testArtisan(func(a *domain.ArtisanProfile) {
				a.Zones = []domain.ServiceZone{{City: tt.zoneCity}}
			})

			criteria := baseCriteria()
			criteria.GPS = nil
			criteria.City = tt.ville

			results := e.Match(criteria, []domain.ArtisanProfile{artisan}, testNow)

			require.Len(t, results, 1)
			assert.Equal(t, domain.NeutralDistanceScore, results[0].Details.DistanceScore)
		})
	}
}

func TestEngine_NoGPSPostalCodeBacksUpCityMatch(t *testing.T) {
	e := testEngine()

	artisan := testArtisan(func(a *domain.ArtisanProfile) {
		a.Zones = []domain.ServiceZone{{City: "Lyon"}}
	})

	// The typed city is unrecognized but the postal code resolves to Lyon
	criteria := baseCriteria()
	criteria.GPS = nil
	criteria.City = "Lyonn"
	criteria.PostalCode = "69003"

	results := e.Match(criteria, []domain.ArtisanProfile{artisan}, testNow)

	require.Len(t, results, 1)
	assert.Equal(t, domain.NeutralDistanceScore, results[0].Details.DistanceScore)
}

func TestEngine_CloserArtisanScoresHigherOnDistance(t *testing.T) {
	e := testEngine()

	near := testArtisan()
	farther := testArtisan(func(a *domain.ArtisanProfile) {
		a.Zones = []domain.ServiceZone{{City: "Lyon Est", GPS: &lyonEast}}
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{farther, near}, testNow)

	require.Len(t, results, 2)
	assert.Equal(t, near.ID, results[0].Artisan.ID)
	assert.Greater(t, results[0].Details.DistanceScore, results[1].Details.DistanceScore)
}

func TestEngine_NoAvailabilityInWindowExcludes(t *testing.T) {
	e := testEngine()

	busy := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{} // empty pattern, nothing available
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{busy}, testNow)

	assert.Empty(t, results)
}

func TestEngine_ExactDateBeatsFlexOnly(t *testing.T) {
	e := testEngine()

	// Free on the exact desired Monday
	exact := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{Slots: map[string]bool{"2026-09-07": true}}
	})
	// Free only on the flex days around it
	flexOnly := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{Slots: map[string]bool{
			"2026-09-05": true,
			"2026-09-06": true,
			"2026-09-08": true,
			"2026-09-09": true,
		}}
	})

	criteria := baseCriteria()
	criteria.Flexible = true
	criteria.FlexibilityDays = 2

	results := e.Match(criteria, []domain.ArtisanProfile{flexOnly, exact}, testNow)

	require.Len(t, results, 2)
	assert.Equal(t, exact.ID, results[0].Artisan.ID)
	assert.Greater(t, results[0].Details.DisponibiliteScore, results[1].Details.DisponibiliteScore)
	// The floors and caps that guarantee the ordering
	assert.GreaterOrEqual(t, results[0].Details.DisponibiliteScore, 30.0)
	assert.LessOrEqual(t, results[1].Details.DisponibiliteScore, 25.0)
}

func TestEngine_ContractOccupiedDaysOverrideManualMarks(t *testing.T) {
	e := testEngine()

	// Marked available by hand but occupied by a signed contract
	occupied := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{
			Slots:    map[string]bool{"2026-09-07": true},
			Occupied: map[string]bool{"2026-09-07": true},
		}
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{occupied}, testNow)

	assert.Empty(t, results)
}

func TestEngine_NotationOnlyCountsWithReviews(t *testing.T) {
	e := testEngine()

	rated := testArtisan(func(a *domain.ArtisanProfile) {
		a.Notation = 4.0
		a.NombreAvis = 10
	})
	unrated := testArtisan(func(a *domain.ArtisanProfile) {
		a.Notation = 5.0 // meaningless without reviews
		a.NombreAvis = 0
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{unrated, rated}, testNow)

	require.Len(t, results, 2)
	assert.Equal(t, rated.ID, results[0].Artisan.ID)
	assert.InDelta(t, 40.0, results[0].Details.NotationScore, 0.001)
	assert.Zero(t, results[1].Details.NotationScore)
}

func TestEngine_UrgencyBonusRequiresNearestDayFree(t *testing.T) {
	e := testEngine()

	criteria := baseCriteria()
	criteria.Flexible = true
	criteria.FlexibilityDays = 1
	criteria.Urgency = domain.UrgencyUrgent
	// Window: 2026-09-06 .. 2026-09-08

	freeFirstDay := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{Slots: map[string]bool{"2026-09-06": true}}
	})
	freeLaterOnly := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{Slots: map[string]bool{"2026-09-08": true}}
	})

	results := e.Match(criteria, []domain.ArtisanProfile{freeLaterOnly, freeFirstDay}, testNow)

	require.Len(t, results, 2)

	byID := map[uuid.UUID]domain.MatchingResult{}
	for _, r := range results {
		byID[r.Artisan.ID] = r
	}
	assert.Equal(t, domain.UrgenceBonus, byID[freeFirstDay.ID].Details.UrgenceMatch)
	assert.Zero(t, byID[freeLaterOnly.ID].Details.UrgenceMatch)
}

func TestEngine_UrgencyBonusLocalZoneNearMidnight(t *testing.T) {
	e := testEngine()

	criteria := baseCriteria()
	criteria.Flexible = true
	criteria.FlexibilityDays = 1
	criteria.Urgency = domain.UrgencyUrgent
	// Window: 2026-09-06 .. 2026-09-08

	// Occupied yesterday, free today: yesterday must not count as the
	// nearest reachable day
	artisan := testArtisan(func(a *domain.ArtisanProfile) {
		a.Calendar = domain.Calendar{
			Slots:    map[string]bool{"2026-09-07": true},
			Occupied: map[string]bool{"2026-09-06": true},
		}
	})

	// Just past midnight on Sep 7 in a UTC+2 zone; in UTC it is still Sep 6
	now := time.Date(2026, 9, 7, 0, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))

	results := e.Match(criteria, []domain.ArtisanProfile{artisan}, now)

	require.Len(t, results, 1)
	assert.Equal(t, domain.UrgenceBonus, results[0].Details.UrgenceMatch)
}

func TestEngine_NoUrgencyBonusWithoutUrgentFlag(t *testing.T) {
	e := testEngine()

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{testArtisan()}, testNow)

	require.Len(t, results, 1)
	assert.Zero(t, results[0].Details.UrgenceMatch)
}

func TestEngine_TieBreaksByArtisanID(t *testing.T) {
	e := testEngine()

	a := testArtisan()
	b := testArtisan()

	// Identical profiles apart from the id, run twice in both input orders
	for _, pool := range [][]domain.ArtisanProfile{{a, b}, {b, a}} {
		results := e.Match(baseCriteria(), pool, testNow)
		require.Len(t, results, 2)
		assert.Equal(t, results[0].Score, results[1].Score)
		assert.Less(t, results[0].Artisan.ID.String(), results[1].Artisan.ID.String())
	}
}

func TestEngine_EmptyPoolYieldsEmptyResults(t *testing.T) {
	e := testEngine()

	results := e.Match(baseCriteria(), nil, testNow)

	assert.Empty(t, results)
}

func TestEngine_ScoreIsSumOfComponents(t *testing.T) {
	e := testEngine()

	rated := testArtisan(func(a *domain.ArtisanProfile) {
		a.Notation = 4.5
		a.NombreAvis = 3
	})

	results := e.Match(baseCriteria(), []domain.ArtisanProfile{rated}, testNow)

	require.Len(t, results, 1)
	d := results[0].Details
	assert.InDelta(t, d.DistanceScore+d.DisponibiliteScore+d.NotationScore+d.UrgenceMatch, results[0].Score, 0.0001)
}

func TestDisponibiliteScore(t *testing.T) {
	tests := []struct {
		name         string
		exactDays    int
		desiredCount int
		windowDays   int
		windowSize   int
		want         float64
	}{
		{"fully available on exact dates", 2, 2, 2, 2, 50},
		{"no availability at all", 0, 2, 0, 6, 0},
		{"full flex coverage only", 0, 2, 6, 6, 25},
		{"half flex coverage only", 0, 2, 3, 6, 17.5},
		{"half exact, full window", 1, 2, 6, 6, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := disponibiliteScore(tt.exactDays, tt.desiredCount, tt.windowDays, tt.windowSize)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestDistanceScore(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }

	tests := []struct {
		name      string
		distance  *float64
		radius    *float64
		cityMatch bool
		want      float64
	}{
		{"missing coordinates, city served", nil, nil, true, domain.NeutralDistanceScore},
		{"missing coordinates, city not served", nil, nil, false, 0},
		{"at zero distance", ptr(0), nil, false, 50},
		{"halfway to default radius", ptr(25), nil, false, 25},
		{"at default radius", ptr(50), nil, false, 0},
		{"beyond radius clamps at zero", ptr(80), nil, false, 0},
		{"custom radius rescales", ptr(50), ptr(100), false, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := distanceScore(tt.distance, tt.radius, tt.cityMatch)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}
