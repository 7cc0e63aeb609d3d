package artisan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/doccheck"
	"artisan_dispo/internal/lib/metrics"
	"artisan_dispo/internal/lib/sirene"
	"artisan_dispo/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockArtisanRepository
type MockArtisanRepository struct {
	CreateArtisanFunc          func(ctx context.Context, artisan domain.ArtisanProfile) (uuid.UUID, error)
	GetByIDFunc                func(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error)
	GetByUserIDFunc            func(ctx context.Context, userID uuid.UUID) (domain.ArtisanProfile, error)
	UpdateArtisanFunc          func(ctx context.Context, artisanID uuid.UUID, update domain.ArtisanFilter) error
	UpdateVerificationFunc     func(ctx context.Context, artisanID uuid.UUID, flags domain.VerificationFlags) error
	UpdateRatingFunc           func(ctx context.Context, artisanID uuid.UUID, notation float64, nombreAvis int32) error
	UpsertAvailabilitySlotFunc func(ctx context.Context, slot domain.AvailabilitySlot) error
	SetWeeklyPatternFunc       func(ctx context.Context, artisanID uuid.UUID, pattern domain.WeeklyPattern) error
	ListArtisansFunc           func(ctx context.Context, filter domain.ArtisanFilter) (*domain.PaginatedResult[domain.ArtisanProfile], error)
}

func (m *MockArtisanRepository) CreateArtisan(ctx context.Context, artisan domain.ArtisanProfile) (uuid.UUID, error) {
	return m.CreateArtisanFunc(ctx, artisan)
}

func (m *MockArtisanRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockArtisanRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.ArtisanProfile, error) {
	return m.GetByUserIDFunc(ctx, userID)
}

func (m *MockArtisanRepository) UpdateArtisan(ctx context.Context, artisanID uuid.UUID, update domain.ArtisanFilter) error {
	if m.UpdateArtisanFunc != nil {
		return m.UpdateArtisanFunc(ctx, artisanID, update)
	}
	return nil
}

func (m *MockArtisanRepository) UpdateVerification(ctx context.Context, artisanID uuid.UUID, flags domain.VerificationFlags) error {
	if m.UpdateVerificationFunc != nil {
		return m.UpdateVerificationFunc(ctx, artisanID, flags)
	}
	return nil
}

func (m *MockArtisanRepository) UpdateRating(ctx context.Context, artisanID uuid.UUID, notation float64, nombreAvis int32) error {
	return m.UpdateRatingFunc(ctx, artisanID, notation, nombreAvis)
}

func (m *MockArtisanRepository) UpsertAvailabilitySlot(ctx context.Context, slot domain.AvailabilitySlot) error {
	return m.UpsertAvailabilitySlotFunc(ctx, slot)
}

func (m *MockArtisanRepository) SetWeeklyPattern(ctx context.Context, artisanID uuid.UUID, pattern domain.WeeklyPattern) error {
	return m.SetWeeklyPatternFunc(ctx, artisanID, pattern)
}

func (m *MockArtisanRepository) ListArtisans(ctx context.Context, filter domain.ArtisanFilter) (*domain.PaginatedResult[domain.ArtisanProfile], error) {
	return m.ListArtisansFunc(ctx, filter)
}

// MockSireneClient
type MockSireneClient struct {
	VerifySiretFunc func(ctx context.Context, siret string) (*sirene.VerificationResult, error)
}

func (m *MockSireneClient) VerifySiret(ctx context.Context, siret string) (*sirene.VerificationResult, error) {
	if m.VerifySiretFunc != nil {
		return m.VerifySiretFunc(ctx, siret)
	}
	return &sirene.VerificationResult{Siret: siret, Accepted: true}, nil
}

func (m *MockSireneClient) IsEnabled() bool { return true }

// MockDocstore
type MockDocstore struct {
	UploadFunc func(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	uploaded   []string
}

func (m *MockDocstore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	m.uploaded = append(m.uploaded, objectName)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, objectName, reader, size, contentType)
	}
	return nil
}

func (m *MockDocstore) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return "https://docs.local/" + objectName, nil
}

func (m *MockDocstore) Remove(ctx context.Context, objectName string) error { return nil }

func (m *MockDocstore) IsEnabled() bool { return true }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newTestService(repo *MockArtisanRepository, sireneClient *MockSireneClient, docs *MockDocstore) *Service {
	if sireneClient == nil {
		sireneClient = &MockSireneClient{}
	}
	if docs == nil {
		docs = &MockDocstore{}
	}
	return New(testLogger(), repo, sireneClient, docs, metrics.New(testLogger()))
}

const validSiret = "73282932000074"

func TestService_RegisterArtisan_RejectsMalformedSiret(t *testing.T) {
	svc := newTestService(&MockArtisanRepository{}, nil, nil)

	for _, siret := range []string{"", "123", "7328293200007X", "732829320000741"} {
		_, err := svc.RegisterArtisan(context.Background(), domain.ArtisanProfile{Siret: siret})
		require.ErrorIs(t, err, ErrInvalidSiret, "siret %q", siret)
	}
}

func TestService_RegisterArtisan_StartsPendingWithPreCheck(t *testing.T) {
	var created domain.ArtisanProfile
	repo := &MockArtisanRepository{
		CreateArtisanFunc: func(ctx context.Context, a domain.ArtisanProfile) (uuid.UUID, error) {
			created = a
			return uuid.New(), nil
		},
	}
	sireneClient := &MockSireneClient{
		VerifySiretFunc: func(ctx context.Context, siret string) (*sirene.VerificationResult, error) {
			return &sirene.VerificationResult{Siret: siret, Accepted: true, RegistryFound: true}, nil
		},
	}
	svc := newTestService(repo, sireneClient, nil)

	_, err := svc.RegisterArtisan(context.Background(), domain.ArtisanProfile{
		Siret:       validSiret,
		CompanyName: "Lefevre Plomberie",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ArtisanStatusPending, created.Status, "pre-check never activates a profile")
	assert.True(t, created.Verification.SiretVerified)
}

func TestService_RegisterArtisan_RegistryOutageIsTolerated(t *testing.T) {
	var created domain.ArtisanProfile
	repo := &MockArtisanRepository{
		CreateArtisanFunc: func(ctx context.Context, a domain.ArtisanProfile) (uuid.UUID, error) {
			created = a
			return uuid.New(), nil
		},
	}
	sireneClient := &MockSireneClient{
		VerifySiretFunc: func(ctx context.Context, siret string) (*sirene.VerificationResult, error) {
			return nil, errors.New("registry unreachable")
		},
	}
	svc := newTestService(repo, sireneClient, nil)

	_, err := svc.RegisterArtisan(context.Background(), domain.ArtisanProfile{Siret: validSiret})

	require.NoError(t, err)
	assert.False(t, created.Verification.SiretVerified)
}

func TestService_AddReview_FoldsIntoAverage(t *testing.T) {
	artisanID := uuid.New()

	var gotNotation float64
	var gotCount int32
	repo := &MockArtisanRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error) {
			return domain.ArtisanProfile{ID: id, Notation: 4.0, NombreAvis: 3}, nil
		},
		UpdateRatingFunc: func(ctx context.Context, id uuid.UUID, notation float64, nombreAvis int32) error {
			gotNotation = notation
			gotCount = nombreAvis
			return nil
		},
	}
	svc := newTestService(repo, nil, nil)

	err := svc.AddReview(context.Background(), artisanID, 5.0)

	require.NoError(t, err)
	assert.InDelta(t, 4.25, gotNotation, 1e-9) // (4*3+5)/4
	assert.Equal(t, int32(4), gotCount)
}

func TestService_AddReview_FirstReview(t *testing.T) {
	var gotNotation float64
	repo := &MockArtisanRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error) {
			return domain.ArtisanProfile{ID: id}, nil
		},
		UpdateRatingFunc: func(ctx context.Context, id uuid.UUID, notation float64, nombreAvis int32) error {
			gotNotation = notation
			return nil
		},
	}
	svc := newTestService(repo, nil, nil)

	err := svc.AddReview(context.Background(), uuid.New(), 3.5)

	require.NoError(t, err)
	assert.InDelta(t, 3.5, gotNotation, 1e-9)
}

func TestService_AddReview_RejectsOutOfRange(t *testing.T) {
	svc := newTestService(&MockArtisanRepository{}, nil, nil)

	require.Error(t, svc.AddReview(context.Background(), uuid.New(), -0.1))
	require.Error(t, svc.AddReview(context.Background(), uuid.New(), 5.1))
}

func TestService_SetVerification_ActivatesOnSiretAndKbis(t *testing.T) {
	var statusUpdate *domain.ArtisanStatus
	repo := &MockArtisanRepository{
		UpdateArtisanFunc: func(ctx context.Context, id uuid.UUID, update domain.ArtisanFilter) error {
			statusUpdate = update.Status
			return nil
		},
	}
	svc := newTestService(repo, nil, nil)

	err := svc.SetVerification(context.Background(), uuid.New(), domain.VerificationFlags{
		SiretVerified: true,
		KbisVerified:  true,
	})

	require.NoError(t, err)
	require.NotNil(t, statusUpdate)
	assert.Equal(t, domain.ArtisanStatusActive, *statusUpdate)
}

func TestService_SetVerification_PartialFlagsStayPending(t *testing.T) {
	repo := &MockArtisanRepository{
		UpdateArtisanFunc: func(ctx context.Context, id uuid.UUID, update domain.ArtisanFilter) error {
			t.Fatal("status should not change without SIRET and KBIS both verified")
			return nil
		},
	}
	svc := newTestService(repo, nil, nil)

	err := svc.SetVerification(context.Background(), uuid.New(), domain.VerificationFlags{SiretVerified: true})

	require.NoError(t, err)
}

func TestService_UploadDocument_StoresUnderArtisanPrefix(t *testing.T) {
	artisanID := uuid.New()
	docs := &MockDocstore{}
	svc := newTestService(&MockArtisanRepository{}, nil, docs)

	content := strings.NewReader("pdf bytes")
	res, err := svc.UploadDocument(context.Background(), artisanID, doccheck.KindKbis, "extrait-kbis.pdf", 128<<10, "application/pdf", content)

	require.NoError(t, err)
	assert.Equal(t, artisanID.String()+"/kbis/extrait-kbis.pdf", res.ObjectName)
	assert.Equal(t, []string{res.ObjectName}, docs.uploaded)
	assert.True(t, res.PreCheck.Plausible)
}

func TestService_GetArtisan_NotFound(t *testing.T) {
	repo := &MockArtisanRepository{
		GetByIDFunc: func(ctx context.Context, id uuid.UUID) (domain.ArtisanProfile, error) {
			return domain.ArtisanProfile{}, repository.ErrArtisanNotFound
		},
	}
	svc := newTestService(repo, nil, nil)

	_, err := svc.GetArtisan(context.Background(), uuid.New())

	require.ErrorIs(t, err, ErrArtisanNotFound)
}

func TestService_SetAvailability_WritesSlot(t *testing.T) {
	artisanID := uuid.New()
	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	var slot domain.AvailabilitySlot
	repo := &MockArtisanRepository{
		UpsertAvailabilitySlotFunc: func(ctx context.Context, s domain.AvailabilitySlot) error {
			slot = s
			return nil
		},
	}
	svc := newTestService(repo, nil, nil)

	err := svc.SetAvailability(context.Background(), artisanID, day, false)

	require.NoError(t, err)
	assert.Equal(t, artisanID, slot.ArtisanID)
	assert.Equal(t, day, slot.Day)
	assert.False(t, slot.Available)
}
