package demande

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/lib/payment"
	"artisan_dispo/internal/repository"
	"artisan_dispo/internal/services/matching"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type DemandeRepository interface {
	CreateDemande(ctx context.Context, demande domain.Demande) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Demande, error)
	UpdateStatus(ctx context.Context, demandeID uuid.UUID, status domain.DemandeStatus) error
	Publish(ctx context.Context, demandeID uuid.UUID) error
	ListDemandes(ctx context.Context, filter domain.DemandeFilter) ([]domain.Demande, error)
	CreateDevis(ctx context.Context, devis domain.Devis) (uuid.UUID, error)
	GetDevisByID(ctx context.Context, id uuid.UUID) (domain.Devis, error)
	ListDevisByDemande(ctx context.Context, demandeID uuid.UUID) ([]domain.Devis, error)
	AcceptDevis(ctx context.Context, devis domain.Devis, clientID uuid.UUID) (domain.Contract, error)
}

// ArtisanReader resolves artisan profiles for notification fan-out and
// devis authorization checks.
type ArtisanReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error)
}

// Matcher ranks candidates for a published demande so only qualified
// artisans get notified.
type Matcher interface {
	MatchArtisans(ctx context.Context, criteria domain.SearchCriteria) ([]domain.MatchingResult, error)
}

// Notifier enqueues outbound messages; delivery is asynchronous.
type Notifier interface {
	EnqueueEmail(ctx context.Context, userID uuid.UUID, recipient, subject, body string) (uuid.UUID, error)
}

var (
	ErrDemandeNotFound   = errors.New("demande not found")
	ErrDevisNotFound     = errors.New("devis not found")
	ErrNotDemandeOwner   = errors.New("not the demande owner")
	ErrDemandeClosed     = errors.New("demande is not open for quotes")
	ErrArtisanNotServing = errors.New("artisan does not serve this category")
)

type Service struct {
	log      *slog.Logger
	repo     DemandeRepository
	artisans ArtisanReader
	matcher  Matcher
	notifier Notifier
	payments payment.Client
	metrics  *metrics.Metrics
}

func New(
	log *slog.Logger,
	repo DemandeRepository,
	artisans ArtisanReader,
	matcher Matcher,
	notifier Notifier,
	payments payment.Client,
	m *metrics.Metrics,
) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		artisans: artisans,
		matcher:  matcher,
		notifier: notifier,
		payments: payments,
		metrics:  m,
	}
}

// CreateDemande stores a new request. A directed demande targets one artisan;
// a public one is visible to every qualified artisan.
func (s *Service) CreateDemande(ctx context.Context, demande domain.Demande) (uuid.UUID, error) {
	const op = "demande.Service.CreateDemande"
	log := s.log.With(slog.String("op", op), slog.String("client_id", demande.ClientID.String()))

	if !demande.Category.Valid() {
		return uuid.Nil, fmt.Errorf("%s: unknown category %q", op, demande.Category)
	}

	demande.Status = domain.DemandeStatusOpen
	demande.Public = demande.ArtisanID == nil

	id, err := s.repo.CreateDemande(ctx, demande)
	if err != nil {
		log.Error("failed to create demande", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("demande created",
		slog.String("demande_id", id.String()),
		slog.Bool("public", demande.Public),
	)

	if demande.Public {
		s.notifyQualified(ctx, id, demande)
	}

	return id, nil
}

// PublishDemande converts a directed demande into a public one. This is the
// fallback offered when a search found nobody.
func (s *Service) PublishDemande(ctx context.Context, demandeID, clientID uuid.UUID) error {
	const op = "demande.Service.PublishDemande"
	log := s.log.With(slog.String("op", op), slog.String("demande_id", demandeID.String()))

	demande, err := s.getOwned(ctx, demandeID, clientID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if demande.Status != domain.DemandeStatusOpen && demande.Status != domain.DemandeStatusQuoted {
		return fmt.Errorf("%s: %w", op, ErrDemandeClosed)
	}

	if err := s.repo.Publish(ctx, demandeID); err != nil {
		log.Error("failed to publish demande", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("demande published")
	s.notifyQualified(ctx, demandeID, demande)

	return nil
}

// notifyQualified fans notifications out to the top-ranked artisans for a
// public demande. Matching failures only cost the notification, never the
// demande itself.
func (s *Service) notifyQualified(ctx context.Context, demandeID uuid.UUID, demande domain.Demande) {
	const op = "demande.Service.notifyQualified"
	log := s.log.With(slog.String("op", op), slog.String("demande_id", demandeID.String()))

	results, err := s.matcher.MatchArtisans(ctx, domain.SearchCriteria{
		Category:        demande.Category,
		City:            demande.City,
		PostalCode:      demande.PostalCode,
		GPS:             demande.GPS,
		DesiredDates:    demande.DesiredDates,
		Flexible:        demande.Flexible,
		FlexibilityDays: demande.FlexibilityDays,
		Urgency:         demande.Urgency,
	})
	if err != nil {
		log.Warn("matching for notification failed", sl.Err(err))
		return
	}

	log.Info("notifying qualified artisans",
		slog.Int("count", len(results)),
		slog.Any("artisan_ids", matching.ScoredArtisanIDs(results)),
	)

	subject := fmt.Sprintf("Nouvelle demande: %s", demande.Title)
	body := fmt.Sprintf("Une nouvelle demande %q (%s, %s) correspond à votre profil.",
		demande.Title, demande.Category, demande.City)

	for _, res := range results {
		if _, err := s.notifier.EnqueueEmail(ctx, res.Artisan.UserID, "", subject, body); err != nil {
			log.Warn("failed to enqueue notification",
				slog.String("artisan_id", res.Artisan.ID.String()),
				sl.Err(err),
			)
		}
	}
}

// GetDemande loads one demande.
func (s *Service) GetDemande(ctx context.Context, id uuid.UUID) (domain.Demande, error) {
	const op = "demande.Service.GetDemande"

	demande, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDemandeNotFound) {
			return domain.Demande{}, fmt.Errorf("%s: %w", op, ErrDemandeNotFound)
		}
		return domain.Demande{}, fmt.Errorf("%s: %w", op, err)
	}

	return demande, nil
}

// ListDemandes returns demandes by filter.
func (s *Service) ListDemandes(ctx context.Context, filter domain.DemandeFilter) ([]domain.Demande, error) {
	const op = "demande.Service.ListDemandes"

	demandes, err := s.repo.ListDemandes(ctx, filter)
	if err != nil {
		s.log.Error("failed to list demandes", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return demandes, nil
}

// ListOpenForArtisan returns the public demandes an artisan is qualified to
// answer, newest first.
func (s *Service) ListOpenForArtisan(ctx context.Context, artisanID uuid.UUID) ([]domain.Demande, error) {
	const op = "demande.Service.ListOpenForArtisan"

	artisan, err := s.artisans.GetByID(ctx, artisanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	public := true
	status := domain.DemandeStatusOpen
	demandes, err := s.repo.ListDemandes(ctx, domain.DemandeFilter{Public: &public, Status: &status})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	qualified := lo.Filter(demandes, func(d domain.Demande, _ int) bool {
		return artisan.ServesCategory(d.Category)
	})

	return qualified, nil
}

// CancelDemande closes a demande; only the owner may cancel.
func (s *Service) CancelDemande(ctx context.Context, demandeID, clientID uuid.UUID) error {
	const op = "demande.Service.CancelDemande"

	if _, err := s.getOwned(ctx, demandeID, clientID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpdateStatus(ctx, demandeID, domain.DemandeStatusCancelled); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SubmitDevis records an artisan's quote for an open demande and moves it to
// the quoted state.
func (s *Service) SubmitDevis(ctx context.Context, devis domain.Devis) (uuid.UUID, error) {
	const op = "demande.Service.SubmitDevis"
	log := s.log.With(slog.String("op", op), slog.String("demande_id", devis.DemandeID.String()))

	demande, err := s.repo.GetByID(ctx, devis.DemandeID)
	if err != nil {
		if errors.Is(err, repository.ErrDemandeNotFound) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrDemandeNotFound)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if demande.Status != domain.DemandeStatusOpen && demande.Status != domain.DemandeStatusQuoted {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrDemandeClosed)
	}

	artisan, err := s.artisans.GetByID(ctx, devis.ArtisanID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	if !artisan.ServesCategory(demande.Category) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrArtisanNotServing)
	}

	devis.Status = domain.DevisStatusPending

	id, err := s.repo.CreateDevis(ctx, devis)
	if err != nil {
		log.Error("failed to create devis", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if demande.Status == domain.DemandeStatusOpen {
		if err := s.repo.UpdateStatus(ctx, demande.ID, domain.DemandeStatusQuoted); err != nil {
			log.Warn("failed to mark demande quoted", sl.Err(err))
		}
	}

	s.notifyClientOfDevis(ctx, demande, artisan)

	log.Info("devis submitted", slog.String("devis_id", id.String()))
	return id, nil
}

func (s *Service) notifyClientOfDevis(ctx context.Context, demande domain.Demande, artisan domain.ArtisanProfile) {
	subject := fmt.Sprintf("Nouveau devis pour %q", demande.Title)
	body := fmt.Sprintf("%s a soumis un devis pour votre demande %q.", artisan.CompanyName, demande.Title)
	if _, err := s.notifier.EnqueueEmail(ctx, demande.ClientID, "", subject, body); err != nil {
		s.log.Warn("failed to enqueue devis notification", sl.Err(err))
	}
}

// AcceptDevis signs the quote: one transaction accepts it, rejects the
// competing quotes and opens the contract; then a deposit intent is created
// with the payment provider. A payment failure is reported but does not undo
// the contract.
func (s *Service) AcceptDevis(ctx context.Context, devisID, clientID uuid.UUID) (domain.Contract, *payment.Intent, error) {
	const op = "demande.Service.AcceptDevis"
	log := s.log.With(slog.String("op", op), slog.String("devis_id", devisID.String()))

	devis, err := s.repo.GetDevisByID(ctx, devisID)
	if err != nil {
		if errors.Is(err, repository.ErrDevisNotFound) {
			return domain.Contract{}, nil, fmt.Errorf("%s: %w", op, ErrDevisNotFound)
		}
		return domain.Contract{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.getOwned(ctx, devis.DemandeID, clientID); err != nil {
		return domain.Contract{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	contract, err := s.repo.AcceptDevis(ctx, devis, clientID)
	if err != nil {
		log.Error("failed to accept devis", sl.Err(err))
		return domain.Contract{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("contract signed", slog.String("contract_id", contract.ID.String()))

	timer := s.metrics.StartTimer(metrics.ServicePayment)
	intent, payErr := s.payments.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: contract.AmountCents,
		ContractRef: contract.ID.String(),
	})
	timer.Stop(payErr)
	if payErr != nil {
		log.Warn("deposit intent failed, contract stands", sl.Err(payErr))
	}

	s.notifyArtisanOfAcceptance(ctx, devis)

	return contract, intent, nil
}

func (s *Service) notifyArtisanOfAcceptance(ctx context.Context, devis domain.Devis) {
	artisan, err := s.artisans.GetByID(ctx, devis.ArtisanID)
	if err != nil {
		s.log.Warn("failed to load artisan for acceptance notification", sl.Err(err))
		return
	}

	subject := "Devis accepté"
	body := fmt.Sprintf("Votre devis du %s au %s a été accepté.",
		devis.StartDate.Format("2006-01-02"), devis.EndDate.Format("2006-01-02"))
	if _, err := s.notifier.EnqueueEmail(ctx, artisan.UserID, "", subject, body); err != nil {
		s.log.Warn("failed to enqueue acceptance notification", sl.Err(err))
	}
}

// ListDevis returns all quotes for a demande; only the owner may list them.
func (s *Service) ListDevis(ctx context.Context, demandeID, clientID uuid.UUID) ([]domain.Devis, error) {
	const op = "demande.Service.ListDevis"

	if _, err := s.getOwned(ctx, demandeID, clientID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	devis, err := s.repo.ListDevisByDemande(ctx, demandeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return devis, nil
}

func (s *Service) getOwned(ctx context.Context, demandeID, clientID uuid.UUID) (domain.Demande, error) {
	demande, err := s.repo.GetByID(ctx, demandeID)
	if err != nil {
		if errors.Is(err, repository.ErrDemandeNotFound) {
			return domain.Demande{}, ErrDemandeNotFound
		}
		return domain.Demande{}, err
	}
	if demande.ClientID != clientID {
		return domain.Demande{}, ErrNotDemandeOwner
	}
	return demande, nil
}
