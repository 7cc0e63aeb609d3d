package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/services/artisan"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, http.StatusOK, s.metrics.GetStats())
}

type verificationRequest struct {
	SiretVerified     bool `json:"siretVerified"`
	KbisVerified      bool `json:"kbisVerified"`
	IdentityVerified  bool `json:"identityVerified"`
	LiabilityVerified bool `json:"liabilityVerified"`
	DecennaleVerified bool `json:"decennaleVerified"`
}

func (s *Server) handleSetVerification(w http.ResponseWriter, r *http.Request) {
	artisanID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid artisan id")
		return
	}

	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err = s.artisans.SetVerification(r.Context(), artisanID, domain.VerificationFlags{
		SiretVerified:     req.SiretVerified,
		KbisVerified:      req.KbisVerified,
		IdentityVerified:  req.IdentityVerified,
		LiabilityVerified: req.LiabilityVerified,
		DecennaleVerified: req.DecennaleVerified,
	})
	if err != nil {
		if errors.Is(err, artisan.ErrArtisanNotFound) {
			sendNotFound(w, "artisan")
			return
		}
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, nil)
}
