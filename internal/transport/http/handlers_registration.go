package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"voxid/internal/identity/models"
	"voxid/internal/identity/service"
	"voxid/internal/voice"
	dErrors "voxid/pkg/domain-errors"
)

// RegistrationService is the registrar surface the handler needs.
type RegistrationService interface {
	Start(ctx context.Context, email, secret string, role models.Role) (service.StartResult, error)
	StartVoice(ctx context.Context, email string, role models.Role, sample voice.Sample) (service.StartResult, error)
	Complete(ctx context.Context, email, code string) (string, error)
	CompleteVoice(ctx context.Context, email, code string) (string, error)
}

// RegistrationHandler serves the two-phase signup endpoints.
type RegistrationHandler struct {
	registrar RegistrationService
	logger    *slog.Logger
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(registrar RegistrationService, logger *slog.Logger) *RegistrationHandler {
	return &RegistrationHandler{registrar: registrar, logger: logger}
}

// Register mounts the registration routes.
func (h *RegistrationHandler) Register(r chi.Router) {
	r.Post("/register/start", h.handleStart)
	r.Post("/register/complete", h.handleComplete)
	r.Post("/register/voice/start", h.handleVoiceStart)
	r.Post("/register/voice/complete", h.handleVoiceComplete)
}

type startRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	Role   string `json:"role"`
}

func (h *RegistrationHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}

	res, err := h.registrar.Start(r.Context(), req.Email, req.Secret, models.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "verification code sent",
		"email":   res.Email,
	})
}

func (h *RegistrationHandler) handleVoiceStart(w http.ResponseWriter, r *http.Request) {
	sample, err := readSample(r)
	if err != nil {
		writeError(w, err)
		return
	}
	address := r.FormValue("email")
	role := r.FormValue("role")
	if !govalidator.IsEmail(address) {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid email"))
		return
	}

	res, err := h.registrar.StartVoice(r.Context(), address, models.Role(role), sample)
	if err != nil {
		writeError(w, err)
		return
	}
	// The generated secret is delivered exactly once, here.
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message":  "verification code sent",
		"email":    res.Email,
		"password": res.GeneratedSecret,
	})
}

type completeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *RegistrationHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, h.registrar.Complete)
}

func (h *RegistrationHandler) handleVoiceComplete(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, h.registrar.CompleteVoice)
}

func (h *RegistrationHandler) complete(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string) (string, error)) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	if req.Email == "" || req.Code == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "email and code are required"))
		return
	}

	token, err := fn(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "registration complete",
		"token":   token,
	})
}
