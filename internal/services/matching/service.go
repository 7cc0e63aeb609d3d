package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"artisan_dispo/internal/config"
	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/lib/metrics"

	"github.com/samber/lo"
)

// ArtisanProvider supplies the candidate pool for a search. The category and
// status filters are pushed down to the store; everything else is scored in
// memory by the engine.
type ArtisanProvider interface {
	ListCandidates(ctx context.Context, category domain.TradeCategory, status domain.ArtisanStatus, limit int) ([]domain.ArtisanProfile, error)
}

var (
	ErrMissingCriteria = errors.New("missing search criteria")
)

type Service struct {
	log      *slog.Logger
	engine   *Engine
	artisans ArtisanProvider
	metrics  *metrics.Metrics
	cfg      config.MatchingConfig
}

func New(log *slog.Logger, artisans ArtisanProvider, m *metrics.Metrics, cfg config.MatchingConfig) *Service {
	return &Service{
		log:      log,
		engine:   NewEngine(log),
		artisans: artisans,
		metrics:  m,
		cfg:      cfg,
	}
}

// MatchArtisans runs one search: validates the criteria, fetches the
// candidate pool, scores it and returns the ranked results. An empty list is
// not an error; the caller decides whether to offer the public-demande
// fallback.
func (s *Service) MatchArtisans(ctx context.Context, criteria domain.SearchCriteria) ([]domain.MatchingResult, error) {
	const op = "matching.Service.MatchArtisans"
	log := s.log.With(
		slog.String("op", op),
		slog.String("category", criteria.Category.String()),
		slog.String("city", criteria.City),
	)

	if criteria.Category == domain.TradeUnspecified || criteria.City == "" || len(criteria.DesiredDates) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCriteria)
	}

	started := time.Now()

	candidates, err := s.artisans.ListCandidates(ctx, criteria.Category, domain.ArtisanStatusActive, s.cfg.CandidateLimit)
	if err != nil {
		// Upstream fetch failures propagate as hard errors; the engine never
		// retries partial failures
		log.Error("failed to fetch candidate pool", sl.Err(err))
		s.metrics.RecordSearch(time.Since(started), 0, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := s.engine.Match(criteria, candidates, time.Now())

	if len(results) > s.cfg.MaxResults && s.cfg.MaxResults > 0 {
		results = results[:s.cfg.MaxResults]
	}

	s.metrics.RecordSearch(time.Since(started), len(results), nil)

	log.Info("search completed",
		slog.Int("candidates", len(candidates)),
		slog.Int("results", len(results)),
		slog.Float64("top_score", topScore(results)),
	)

	return results, nil
}

func topScore(results []domain.MatchingResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Score
}

// ScoredArtisanIDs is a convenience for callers that only need the ranking.
func ScoredArtisanIDs(results []domain.MatchingResult) []string {
	return lo.Map(results, func(r domain.MatchingResult, _ int) string {
		return r.Artisan.ID.String()
	})
}
