// Package handlers provides HTTP handlers for account registration and
// login.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Firm-Management/backend/internal/auth"
	"github.com/Firm-Management/backend/internal/domain"
	"github.com/Firm-Management/backend/internal/modules/users"
)

// Handler handles auth HTTP requests
type Handler struct {
	users *users.Repository
	auth  *auth.Service
	log   zerolog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(usersRepo *users.Repository, authSvc *auth.Service, log zerolog.Logger) *Handler {
	return &Handler{
		users: usersRepo,
		auth:  authSvc,
		log:   log.With().Str("handler", "auth").Logger(),
	}
}

type registerRequest struct {
	FirmName     string `json:"firmName"`
	GSTNumber    string `json:"gstNumber"`
	MobileNumber string `json:"mobileNumber"`
	Address      string `json:"address"`
	Established  string `json:"established"`
	OwnerName    string `json:"ownerName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// HandleRegister handles POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Email and password are required"})
		return
	}

	established, err := parseDate(req.Established)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid established date"})
		return
	}

	hash, err := h.auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to hash password")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error registering user"})
		return
	}

	user := &domain.User{
		UserID:       uuid.NewString(),
		FirmName:     req.FirmName,
		GSTNumber:    req.GSTNumber,
		MobileNumber: req.MobileNumber,
		Address:      req.Address,
		Established:  established,
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Email already registered"})
			return
		}
		h.log.Error().Err(err).Msg("Failed to create user")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error registering user"})
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"userId":  user.UserID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, users.ErrUserNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "User not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error logging in"})
		return
	}

	if err := h.auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"message": "Invalid credentials"})
		return
	}

	token, err := h.auth.IssueToken(user.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue token")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error logging in"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword handles POST /api/auth/forgot-password.
// Email dispatch is out of scope; the reset link is returned directly.
func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{"message": "Invalid request body"})
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, users.ErrUserNotFound) {
		h.writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "User not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error processing forgot password"})
		return
	}

	resetToken, err := h.auth.IssueResetToken(user.UserID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to issue reset token")
		h.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"message": "Error processing forgot password"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Password reset link sent",
		"resetLink": "/reset-password/" + resetToken,
	})
}

// parseDate accepts either a full timestamp or a bare date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
