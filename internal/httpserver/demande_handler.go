package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/services/demande"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type demandeDTO struct {
	ID              string                 `json:"id"`
	Category        string                 `json:"category"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	City            string                 `json:"city"`
	PostalCode      string                 `json:"postalCode"`
	GPS             *domain.GPSCoordinates `json:"gps,omitempty"`
	DesiredDates    []string               `json:"desiredDates"`
	Flexible        bool                   `json:"flexible"`
	FlexibilityDays int                    `json:"flexibilityDays"`
	Urgency         string                 `json:"urgency"`
	ArtisanID       *string                `json:"artisanId,omitempty"`
	Public          bool                   `json:"public"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"createdAt"`
}

func toDemandeDTO(d domain.Demande) demandeDTO {
	dto := demandeDTO{
		ID:          d.ID.String(),
		Category:    d.Category.String(),
		Title:       d.Title,
		Description: d.Description,
		City:        d.City,
		PostalCode:  d.PostalCode,
		GPS:         d.GPS,
		DesiredDates: lo.Map(d.DesiredDates, func(t time.Time, _ int) string {
			return domain.DayKey(t)
		}),
		Flexible:        d.Flexible,
		FlexibilityDays: d.FlexibilityDays,
		Urgency:         d.Urgency.String(),
		Public:          d.Public,
		Status:          d.Status.String(),
		CreatedAt:       d.CreatedAt,
	}
	if d.ArtisanID != nil {
		id := d.ArtisanID.String()
		dto.ArtisanID = &id
	}
	return dto
}

type devisDTO struct {
	ID          string    `json:"id"`
	DemandeID   string    `json:"demandeId"`
	ArtisanID   string    `json:"artisanId"`
	AmountCents int64     `json:"amountCents"`
	Message     string    `json:"message"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toDevisDTO(d domain.Devis) devisDTO {
	return devisDTO{
		ID:          d.ID.String(),
		DemandeID:   d.DemandeID.String(),
		ArtisanID:   d.ArtisanID.String(),
		AmountCents: d.AmountCents,
		Message:     d.Message,
		StartDate:   domain.DayKey(d.StartDate),
		EndDate:     domain.DayKey(d.EndDate),
		Status:      d.Status.String(),
		CreatedAt:   d.CreatedAt,
	}
}

type createDemandeRequest struct {
	Category        string                 `json:"category" validate:"required"`
	Title           string                 `json:"title" validate:"required"`
	Description     string                 `json:"description"`
	City            string                 `json:"city" validate:"required"`
	PostalCode      string                 `json:"postalCode" validate:"omitempty,len=5,numeric"`
	GPS             *domain.GPSCoordinates `json:"gps"`
	DesiredDates    []string               `json:"desiredDates" validate:"required,min=1"`
	Flexible        bool                   `json:"flexible"`
	FlexibilityDays int                    `json:"flexibilityDays" validate:"gte=0,lte=30"`
	Urgency         string                 `json:"urgency"`
	ArtisanID       *string                `json:"artisanId"`
}

func (s *Server) handleCreateDemande(w http.ResponseWriter, r *http.Request) {
	clientID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	var req createDemandeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		sendValidationError(w, "invalid demande", err.Error())
		return
	}

	dates := make([]time.Time, 0, len(req.DesiredDates))
	for _, raw := range req.DesiredDates {
		d, err := domain.ParseDay(raw)
		if err != nil {
			sendValidationError(w, "invalid date, expected YYYY-MM-DD", raw)
			return
		}
		dates = append(dates, d)
	}

	d := domain.Demande{
		ClientID:        clientID,
		Category:        domain.TradeCategory(req.Category),
		Title:           req.Title,
		Description:     req.Description,
		City:            req.City,
		PostalCode:      req.PostalCode,
		GPS:             req.GPS,
		DesiredDates:    dates,
		Flexible:        req.Flexible,
		FlexibilityDays: req.FlexibilityDays,
		Urgency:         parseUrgency(req.Urgency),
	}
	if req.ArtisanID != nil {
		artisanID, err := uuid.Parse(*req.ArtisanID)
		if err != nil {
			sendValidationError(w, "invalid artisanId", *req.ArtisanID)
			return
		}
		d.ArtisanID = &artisanID
	}

	id, err := s.demandes.CreateDemande(r.Context(), d)
	if err != nil {
		s.log.Error("demande creation failed", sl.Err(err))
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleGetDemande(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid demande id")
		return
	}

	d, err := s.demandes.GetDemande(r.Context(), id)
	if err != nil {
		if errors.Is(err, demande.ErrDemandeNotFound) {
			sendNotFound(w, "demande")
			return
		}
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, toDemandeDTO(d))
}

// handleListDemandes lists the caller's own demandes.
func (s *Server) handleListDemandes(w http.ResponseWriter, r *http.Request) {
	clientID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	list, err := s.demandes.ListDemandes(r.Context(), domain.DemandeFilter{ClientID: &clientID})
	if err != nil {
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, lo.Map(list, func(d domain.Demande, _ int) demandeDTO {
		return toDemandeDTO(d)
	}))
}

// handleOpenDemandes lists public demandes the calling artisan qualifies for.
func (s *Server) handleOpenDemandes(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.ownProfile(w, r)
	if !ok {
		return
	}

	list, err := s.demandes.ListOpenForArtisan(r.Context(), profile.ID)
	if err != nil {
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, lo.Map(list, func(d domain.Demande, _ int) demandeDTO {
		return toDemandeDTO(d)
	}))
}

func (s *Server) handlePublishDemande(w http.ResponseWriter, r *http.Request) {
	s.demandeAction(w, r, s.demandes.PublishDemande)
}

func (s *Server) handleCancelDemande(w http.ResponseWriter, r *http.Request) {
	s.demandeAction(w, r, s.demandes.CancelDemande)
}

func (s *Server) demandeAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, demandeID, clientID uuid.UUID) error) {
	clientID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid demande id")
		return
	}

	if err := fn(r.Context(), id, clientID); err != nil {
		s.writeDemandeError(w, err)
		return
	}

	sendSuccess(w, http.StatusOK, nil)
}

type submitDevisRequest struct {
	AmountCents int64  `json:"amountCents" validate:"required,gt=0"`
	Message     string `json:"message"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
}

func (s *Server) handleSubmitDevis(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.ownProfile(w, r)
	if !ok {
		return
	}

	demandeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid demande id")
		return
	}

	var req submitDevisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		sendValidationError(w, "invalid devis", err.Error())
		return
	}

	start, err := domain.ParseDay(req.StartDate)
	if err != nil {
		sendValidationError(w, "invalid startDate, expected YYYY-MM-DD", req.StartDate)
		return
	}
	end, err := domain.ParseDay(req.EndDate)
	if err != nil {
		sendValidationError(w, "invalid endDate, expected YYYY-MM-DD", req.EndDate)
		return
	}
	if end.Before(start) {
		sendValidationError(w, "endDate before startDate", "")
		return
	}

	id, err := s.demandes.SubmitDevis(r.Context(), domain.Devis{
		DemandeID:   demandeID,
		ArtisanID:   profile.ID,
		AmountCents: req.AmountCents,
		Message:     req.Message,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		s.writeDemandeError(w, err)
		return
	}

	sendSuccess(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleAcceptDevis(w http.ResponseWriter, r *http.Request) {
	clientID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	devisID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid devis id")
		return
	}

	contract, intent, err := s.demandes.AcceptDevis(r.Context(), devisID, clientID)
	if err != nil {
		s.writeDemandeError(w, err)
		return
	}

	resp := map[string]any{
		"contract": map[string]any{
			"id":          contract.ID.String(),
			"artisanId":   contract.ArtisanID.String(),
			"amountCents": contract.AmountCents,
			"startDate":   domain.DayKey(contract.StartDate),
			"endDate":     domain.DayKey(contract.EndDate),
			"status":      contract.Status.String(),
		},
	}
	if intent != nil {
		resp["payment"] = intent
	}

	sendSuccess(w, http.StatusCreated, resp)
}

func (s *Server) handleListDevis(w http.ResponseWriter, r *http.Request) {
	clientID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	demandeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid demande id")
		return
	}

	list, err := s.demandes.ListDevis(r.Context(), demandeID, clientID)
	if err != nil {
		s.writeDemandeError(w, err)
		return
	}

	sendSuccess(w, http.StatusOK, lo.Map(list, func(d domain.Devis, _ int) devisDTO {
		return toDevisDTO(d)
	}))
}

func (s *Server) writeDemandeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, demande.ErrDemandeNotFound):
		sendNotFound(w, "demande")
	case errors.Is(err, demande.ErrDevisNotFound):
		sendNotFound(w, "devis")
	case errors.Is(err, demande.ErrNotDemandeOwner):
		sendError(w, http.StatusForbidden, ErrCodeForbidden, "not the demande owner")
	case errors.Is(err, demande.ErrDemandeClosed):
		sendError(w, http.StatusConflict, ErrCodeConflict, "demande is not open")
	case errors.Is(err, demande.ErrArtisanNotServing):
		sendError(w, http.StatusForbidden, ErrCodeForbidden, "artisan does not serve this category")
	default:
		s.log.Error("demande operation failed", sl.Err(err))
		sendInternalError(w)
	}
}
