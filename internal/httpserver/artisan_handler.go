package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/doccheck"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/services/artisan"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// artisanDTO is the public projection of a profile. Verification internals
// and the raw calendar stay server-side.
type artisanDTO struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	Categories  []string  `json:"categories"`
	Zones       []zoneDTO `json:"zones"`
	Verified    bool      `json:"verified"`
	Status      string    `json:"status"`
	Notation    float64   `json:"notation"`
	NombreAvis  int32     `json:"nombreAvis"`
}

type zoneDTO struct {
	City string                 `json:"city"`
	GPS  *domain.GPSCoordinates `json:"gps,omitempty"`
}

func toArtisanDTO(a domain.ArtisanProfile) artisanDTO {
	return artisanDTO{
		ID:          a.ID.String(),
		CompanyName: a.CompanyName,
		Categories: lo.Map(a.Categories, func(c domain.TradeCategory, _ int) string {
			return c.String()
		}),
		Zones: lo.Map(a.Zones, func(z domain.ServiceZone, _ int) zoneDTO {
			return zoneDTO{City: z.City, GPS: z.GPS}
		}),
		Verified:   a.Verification.SiretVerified && a.Verification.KbisVerified,
		Status:     a.Status.String(),
		Notation:   a.Notation,
		NombreAvis: a.NombreAvis,
	}
}

type registerArtisanRequest struct {
	CompanyName string    `json:"companyName" validate:"required"`
	Siren       string    `json:"siren" validate:"omitempty,len=9,numeric"`
	Siret       string    `json:"siret" validate:"required,len=14,numeric"`
	Categories  []string  `json:"categories" validate:"required,min=1"`
	Zones       []zoneDTO `json:"zones" validate:"required,min=1"`
}

func (s *Server) handleRegisterArtisan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	var req registerArtisanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		sendValidationError(w, "invalid artisan profile", err.Error())
		return
	}

	categories := make([]domain.TradeCategory, 0, len(req.Categories))
	for _, c := range req.Categories {
		cat := domain.TradeCategory(c)
		if !cat.Valid() {
			sendValidationError(w, "unknown category", c)
			return
		}
		categories = append(categories, cat)
	}

	profile := domain.ArtisanProfile{
		UserID:      userID,
		CompanyName: req.CompanyName,
		Siren:       req.Siren,
		Siret:       req.Siret,
		Categories:  categories,
		Zones: lo.Map(req.Zones, func(z zoneDTO, _ int) domain.ServiceZone {
			return domain.ServiceZone{City: z.City, GPS: z.GPS}
		}),
	}

	id, err := s.artisans.RegisterArtisan(r.Context(), profile)
	if err != nil {
		if errors.Is(err, artisan.ErrInvalidSiret) {
			sendValidationError(w, "invalid SIRET", req.Siret)
			return
		}
		s.log.Error("artisan registration failed", sl.Err(err))
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGetArtisan(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid artisan id")
		return
	}

	profile, err := s.artisans.GetArtisan(r.Context(), id)
	if err != nil {
		if errors.Is(err, artisan.ErrArtisanNotFound) {
			sendNotFound(w, "artisan")
			return
		}
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, toArtisanDTO(profile))
}

type updateArtisanRequest struct {
	CompanyName *string `json:"companyName"`
	City        *string `json:"city"`
}

func (s *Server) handleUpdateArtisan(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.ownProfile(w, r)
	if !ok {
		return
	}

	var req updateArtisanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	updated, err := s.artisans.UpdateProfile(r.Context(), profile.ID, domain.ArtisanFilter{
		CompanyName: req.CompanyName,
		City:        req.City,
	})
	if err != nil {
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, toArtisanDTO(updated))
}

type availabilityRequest struct {
	Day       string `json:"day" validate:"required"`
	Available bool   `json:"available"`
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.ownProfile(w, r)
	if !ok {
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	day, err := domain.ParseDay(req.Day)
	if err != nil {
		sendValidationError(w, "invalid day, expected YYYY-MM-DD", req.Day)
		return
	}

	if err := s.artisans.SetAvailability(r.Context(), profile.ID, day, req.Available); err != nil {
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, nil)
}

type weeklyPatternRequest struct {
	// Days maps weekday numbers (0=Sunday .. 6=Saturday) to availability.
	Days map[int]bool `json:"days" validate:"required"`
}

func (s *Server) handleSetWeeklyPattern(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.ownProfile(w, r)
	if !ok {
		return
	}

	var req weeklyPatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	pattern := make(domain.WeeklyPattern, len(req.Days))
	for d, avail := range req.Days {
		if d < 0 || d > 6 {
			sendValidationError(w, "weekday out of range", "")
			return
		}
		pattern[time.Weekday(d)] = avail
	}

	if err := s.artisans.SetWeeklyPattern(r.Context(), profile.ID, pattern); err != nil {
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, nil)
}

const maxDocumentSize = 25 << 20

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.ownProfile(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart body")
		return
	}

	kind := doccheck.DocumentKind(r.FormValue("kind"))
	if !kind.Valid() {
		sendValidationError(w, "unknown document kind", r.FormValue("kind"))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing document file")
		return
	}
	defer file.Close()

	result, err := s.artisans.UploadDocument(
		r.Context(), profile.ID, kind,
		header.Filename, header.Size, header.Header.Get("Content-Type"), file,
	)
	if err != nil {
		s.log.Error("document upload failed", sl.Err(err))
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusCreated, map[string]any{
		"objectName": result.ObjectName,
		"preCheck":   result.PreCheck,
	})
}

type reviewRequest struct {
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	artisanID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid artisan id")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		sendValidationError(w, "rating must be between 0 and 5", err.Error())
		return
	}

	if err := s.artisans.AddReview(r.Context(), artisanID, req.Rating); err != nil {
		if errors.Is(err, artisan.ErrArtisanNotFound) {
			sendNotFound(w, "artisan")
			return
		}
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusCreated, nil)
}

// ownProfile resolves the caller's artisan profile or writes the error.
func (s *Server) ownProfile(w http.ResponseWriter, r *http.Request) (domain.ArtisanProfile, bool) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return domain.ArtisanProfile{}, false
	}

	profile, err := s.artisans.GetArtisanByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, artisan.ErrArtisanNotFound) {
			sendNotFound(w, "artisan profile")
			return domain.ArtisanProfile{}, false
		}
		sendInternalError(w)
		return domain.ArtisanProfile{}, false
	}

	return profile, true
}
