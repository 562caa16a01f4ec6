package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"voxid/internal/identity/models"
	"voxid/internal/identity/service"
	"voxid/internal/platform/middleware"
	dErrors "voxid/pkg/domain-errors"
)

// AccountService is the gate surface the profile and recovery endpoints need.
type AccountService interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, upd service.ProfileUpdate) (string, error)
	SendResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newSecret string) error
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// AccountHandler serves profile reads, updates, and password recovery.
type AccountHandler struct {
	gate      AccountService
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// NewAccountHandler constructs an account handler.
func NewAccountHandler(gate AccountService, validator middleware.TokenValidator, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{gate: gate, validator: validator, logger: logger}
}

// Register mounts the account routes. Recovery is public by nature; profile
// mutation requires a live token.
func (h *AccountHandler) Register(r chi.Router) {
	r.Post("/password/reset-otp", h.handleSendResetOTP)
	r.Post("/password/reset", h.handleResetPassword)

	r.Group(func(gated chi.Router) {
		gated.Use(middleware.RequireAuth(h.validator, h.logger))
		gated.Get("/users/{id}", h.handleFindByID)
		gated.Put("/users/{id}", h.handleUpdateProfile)
	})
}

type resetOTPRequest struct {
	Email string `json:"email"`
}

func (h *AccountHandler) handleSendResetOTP(w http.ResponseWriter, r *http.Request) {
	var req resetOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}

	if err := h.gate.SendResetOTP(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "reset code sent",
		"email":   req.Email,
	})
}

type resetPasswordRequest struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	NewSecret string `json:"new_secret"`
}

func (h *AccountHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) || req.Code == "" || req.NewSecret == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email, code, and new_secret are required"))
		return
	}

	if err := h.gate.ResetPassword(r.Context(), req.Email, req.Code, req.NewSecret); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successful"})
}

type userResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	Active           bool   `json:"active"`
	VoiceAuthEnabled bool   `json:"voice_auth_enabled"`
	RegisteredAt     string `json:"registered_at"`
}

func (h *AccountHandler) handleFindByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	u, err := h.gate.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:               u.ID.String(),
		Email:            u.Email,
		Role:             string(u.Role),
		Active:           u.Active,
		VoiceAuthEnabled: u.VoiceAuthEnabled,
		RegisteredAt:     u.RegisteredAt.UTC().Format(time.RFC3339),
	})
}

type updateProfileRequest struct {
	Email  string `json:"email,omitempty"`
	Secret string `json:"secret,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (h *AccountHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	token, err := h.gate.UpdateProfile(r.Context(), id, service.ProfileUpdate{
		Email:  req.Email,
		Secret: req.Secret,
		Role:   models.Role(req.Role),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "profile updated",
		"token":   token,
	})
}
