package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"voxid/internal/identity/models"
	"voxid/internal/platform/middleware"
	"voxid/internal/voice"
	dErrors "voxid/pkg/domain-errors"
)

// AuthService is the gate surface the login/logout endpoints need.
type AuthService interface {
	Login(ctx context.Context, email, secret string, expectedRole models.Role) (string, error)
	VoiceLogin(ctx context.Context, email string, sample voice.Sample) (string, error)
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// AuthHandler serves login and logout.
type AuthHandler struct {
	gate      AuthService
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(gate AuthService, validator middleware.TokenValidator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, validator: validator, logger: logger}
}

// Register mounts the auth routes. Logout routes sit behind the bearer gate.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/voice-login", h.handleVoiceLogin)

	r.Group(func(gated chi.Router) {
		gated.Use(middleware.RequireAuth(h.validator, h.logger))
		gated.Post("/auth/logout", h.handleLogout)
		gated.Post("/auth/logout-all", h.handleLogoutAll)
	})
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Role   string `json:"role,omitempty"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) || req.Secret == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email and secret are required"))
		return
	}

	token, err := h.gate.Login(r.Context(), req.Email, req.Secret, models.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "login successful",
		"token":   token,
	})
}

func (h *AuthHandler) handleVoiceLogin(w http.ResponseWriter, r *http.Request) {
	sample, err := readSample(r)
	if err != nil {
		writeError(w, err)
		return
	}
	address := r.FormValue("email")
	if !govalidator.IsEmail(address) {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}

	token, err := h.gate.VoiceLogin(r.Context(), address, sample)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "login successful",
		"token":   token,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.LogoutAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}
