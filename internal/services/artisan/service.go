package artisan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/doccheck"
	"artisan_dispo/internal/lib/docstore"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/lib/sirene"
	"artisan_dispo/internal/repository"

	"github.com/google/uuid"
)

type ArtisanRepository interface {
	CreateArtisan(ctx context.Context, artisan domain.ArtisanProfile) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.ArtisanProfile, error)
	UpdateArtisan(ctx context.Context, artisanID uuid.UUID, update domain.ArtisanFilter) error
	UpdateVerification(ctx context.Context, artisanID uuid.UUID, flags domain.VerificationFlags) error
	UpdateRating(ctx context.Context, artisanID uuid.UUID, notation float64, nombreAvis int32) error
	UpsertAvailabilitySlot(ctx context.Context, slot domain.AvailabilitySlot) error
	SetWeeklyPattern(ctx context.Context, artisanID uuid.UUID, pattern domain.WeeklyPattern) error
	ListArtisans(ctx context.Context, filter domain.ArtisanFilter) (*domain.PaginatedResult[domain.ArtisanProfile], error)
}

var (
	ErrArtisanNotFound = errors.New("artisan not found")
	ErrInvalidSiret    = errors.New("invalid SIRET")
)

type Service struct {
	log     *slog.Logger
	repo    ArtisanRepository
	sirene  sirene.Client
	docs    docstore.Client
	metrics *metrics.Metrics
}

func New(log *slog.Logger, repo ArtisanRepository, sireneClient sirene.Client, docs docstore.Client, m *metrics.Metrics) *Service {
	return &Service{
		log:     log,
		repo:    repo,
		sirene:  sireneClient,
		docs:    docs,
		metrics: m,
	}
}

// RegisterArtisan creates a profile in pending state and runs the SIRET
// pre-check. The pre-check never activates the profile by itself: activation
// stays with manual admin review.
func (s *Service) RegisterArtisan(ctx context.Context, artisan domain.ArtisanProfile) (uuid.UUID, error) {
	const op = "artisan.Service.RegisterArtisan"
	log := s.log.With(slog.String("op", op), slog.String("company", artisan.CompanyName))

	if !sirene.ValidFormat(artisan.Siret) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidSiret)
	}

	artisan.Status = domain.ArtisanStatusPending

	timer := s.metrics.StartTimer(metrics.ServiceSirene)
	check, err := s.sirene.VerifySiret(ctx, artisan.Siret)
	timer.Stop(err)
	if err != nil {
		log.Warn("SIRET pre-check failed, continuing registration", sl.Err(err))
	} else {
		artisan.Verification.SiretVerified = check.Accepted
		if check.CompanyName != "" && artisan.CompanyName == "" {
			artisan.CompanyName = check.CompanyName
		}
	}

	id, err := s.repo.CreateArtisan(ctx, artisan)
	if err != nil {
		log.Error("failed to create artisan", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("artisan registered", slog.String("artisan_id", id.String()))
	return id, nil
}

// GetArtisan loads one profile.
func (s *Service) GetArtisan(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error) {
	const op = "artisan.Service.GetArtisan"

	artisan, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrArtisanNotFound) {
			return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, ErrArtisanNotFound)
		}
		s.log.Error("failed to get artisan", sl.Err(err))
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	return artisan, nil
}

// GetArtisanByUser loads the profile owned by an account.
func (s *Service) GetArtisanByUser(ctx context.Context, userID uuid.UUID) (domain.ArtisanProfile, error) {
	const op = "artisan.Service.GetArtisanByUser"

	artisan, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrArtisanNotFound) {
			return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, ErrArtisanNotFound)
		}
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	return artisan, nil
}

// UpdateProfile applies a partial update.
func (s *Service) UpdateProfile(ctx context.Context, artisanID uuid.UUID, update domain.ArtisanFilter) (domain.ArtisanProfile, error) {
	const op = "artisan.Service.UpdateProfile"

	if err := s.repo.UpdateArtisan(ctx, artisanID, update); err != nil {
		if errors.Is(err, repository.ErrArtisanNotFound) {
			return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, ErrArtisanNotFound)
		}
		return domain.ArtisanProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.GetByID(ctx, artisanID)
	if err != nil {
		return domain.ArtisanProfile{}, fmt.Errorf("%s: failed to fetch updated artisan: %w", op, err)
	}

	return updated, nil
}

// SetAvailability writes one explicit calendar day.
func (s *Service) SetAvailability(ctx context.Context, artisanID uuid.UUID, day time.Time, available bool) error {
	const op = "artisan.Service.SetAvailability"

	slot := domain.AvailabilitySlot{
		ArtisanID: artisanID,
		Day:       day,
		Available: available,
	}

	if err := s.repo.UpsertAvailabilitySlot(ctx, slot); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SetWeeklyPattern replaces the recurring availability pattern.
func (s *Service) SetWeeklyPattern(ctx context.Context, artisanID uuid.UUID, pattern domain.WeeklyPattern) error {
	const op = "artisan.Service.SetWeeklyPattern"

	if err := s.repo.SetWeeklyPattern(ctx, artisanID, pattern); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DocumentUploadResult pairs the stored object with its heuristic pre-check.
type DocumentUploadResult struct {
	ObjectName string
	PreCheck   doccheck.PreCheck
}

// UploadDocument stores a verification document and attaches the heuristic
// pre-check score. The score orders the admin review queue; it proves
// nothing by itself.
func (s *Service) UploadDocument(ctx context.Context, artisanID uuid.UUID, kind doccheck.DocumentKind, filename string, size int64, contentType string, reader io.Reader) (DocumentUploadResult, error) {
	const op = "artisan.Service.UploadDocument"
	log := s.log.With(slog.String("op", op), slog.String("artisan_id", artisanID.String()))

	check := doccheck.Score(kind, filename, size)

	objectName := fmt.Sprintf("%s/%s/%s", artisanID.String(), string(kind), filename)
	if err := s.docs.Upload(ctx, objectName, reader, size, contentType); err != nil {
		log.Error("failed to store document", sl.Err(err))
		return DocumentUploadResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("document stored",
		slog.String("kind", string(kind)),
		slog.Int("precheck_score", check.Score),
		slog.Bool("plausible", check.Plausible),
	)

	return DocumentUploadResult{ObjectName: objectName, PreCheck: check}, nil
}

// SetVerification overwrites the verification flags; admin-only operation.
// An artisan with a verified SIRET and KBIS becomes active.
func (s *Service) SetVerification(ctx context.Context, artisanID uuid.UUID, flags domain.VerificationFlags) error {
	const op = "artisan.Service.SetVerification"

	if err := s.repo.UpdateVerification(ctx, artisanID, flags); err != nil {
		if errors.Is(err, repository.ErrArtisanNotFound) {
			return fmt.Errorf("%s: %w", op, ErrArtisanNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if flags.SiretVerified && flags.KbisVerified {
		status := domain.ArtisanStatusActive
		if err := s.repo.UpdateArtisan(ctx, artisanID, domain.ArtisanFilter{Status: &status}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// AddReview folds a new rating into the aggregate.
func (s *Service) AddReview(ctx context.Context, artisanID uuid.UUID, rating float64) error {
	const op = "artisan.Service.AddReview"

	if rating < 0 || rating > 5 {
		return fmt.Errorf("%s: rating out of range", op)
	}

	artisan, err := s.repo.GetByID(ctx, artisanID)
	if err != nil {
		if errors.Is(err, repository.ErrArtisanNotFound) {
			return fmt.Errorf("%s: %w", op, ErrArtisanNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	n := artisan.NombreAvis
	newAvg := (artisan.Notation*float64(n) + rating) / float64(n+1)

	if err := s.repo.UpdateRating(ctx, artisanID, newAvg, n+1); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListArtisans returns profiles by filter.
func (s *Service) ListArtisans(ctx context.Context, filter domain.ArtisanFilter) (*domain.PaginatedResult[domain.ArtisanProfile], error) {
	const op = "artisan.Service.ListArtisans"

	page, err := s.repo.ListArtisans(ctx, filter)
	if err != nil {
		s.log.Error("failed to list artisans", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}
