package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"artisan_dispo/internal/domain"
	"artisan_dispo/internal/lib/logger/sl"
	"artisan_dispo/internal/services/user"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	FullName string `json:"fullName" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=client artisan"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		sendValidationError(w, "invalid registration", err.Error())
		return
	}

	id, err := s.users.Register(r.Context(), req.Email, req.Phone, req.FullName, req.Password, domain.UserRole(req.Role))
	if err != nil {
		if errors.Is(err, user.ErrUserExists) {
			sendError(w, http.StatusConflict, ErrCodeConflict, "email already registered")
			return
		}
		s.log.Error("registration failed", sl.Err(err))
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusCreated, map[string]string{"id": id.String()})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		sendValidationError(w, "invalid login", err.Error())
		return
	}

	token, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		s.log.Error("login failed", sl.Err(err))
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
		return
	}

	account, err := s.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			sendNotFound(w, "user")
			return
		}
		sendInternalError(w)
		return
	}

	sendSuccess(w, http.StatusOK, map[string]any{
		"id":       account.ID.String(),
		"email":    account.Email,
		"phone":    account.Phone,
		"fullName": account.FullName,
		"role":     account.Role.String(),
	})
}
