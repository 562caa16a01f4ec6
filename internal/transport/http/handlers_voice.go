package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"voxid/internal/platform/middleware"
	"voxid/internal/voice"
	dErrors "voxid/pkg/domain-errors"
)

// VoiceService is the gate surface the voice-management endpoints need.
type VoiceService interface {
	EnrollVoice(ctx context.Context, email string, sample voice.Sample) error
	EnableVoice(ctx context.Context, sample voice.Sample) error
	DisableVoice(ctx context.Context) error
	VerifyVoice(ctx context.Context, email string, sample voice.Sample) (bool, error)
}

// VoiceHandler serves voice enrollment and verification.
type VoiceHandler struct {
	gate      VoiceService
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// NewVoiceHandler constructs a voice handler.
func NewVoiceHandler(gate VoiceService, validator middleware.TokenValidator, logger *slog.Logger) *VoiceHandler {
	return &VoiceHandler{gate: gate, validator: validator, logger: logger}
}

// Register mounts the voice routes. Enable and disable act on the caller, so
// they sit behind the bearer gate; enroll and verify address an email.
func (h *VoiceHandler) Register(r chi.Router) {
	r.Post("/voice/enroll", h.handleEnroll)
	r.Post("/voice/verify", h.handleVerify)

	r.Group(func(gated chi.Router) {
		gated.Use(middleware.RequireAuth(h.validator, h.logger))
		gated.Post("/voice/enable", h.handleEnable)
		gated.Post("/voice/disable", h.handleDisable)
	})
}

func (h *VoiceHandler) handleEnroll(w http.ResponseWriter, r *http.Request) {
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

	if err := h.gate.EnrollVoice(r.Context(), address, sample); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "voice enrolled"})
}

func (h *VoiceHandler) handleEnable(w http.ResponseWriter, r *http.Request) {
	sample, err := readSample(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.gate.EnableVoice(r.Context(), sample); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "voice authentication enabled"})
}

func (h *VoiceHandler) handleDisable(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.DisableVoice(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "voice authentication disabled"})
}

func (h *VoiceHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
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

	match, err := h.gate.VerifyVoice(r.Context(), address, sample)
	if err != nil {
		writeError(w, err)
		return
	}
	// A mismatch is an answer, not an error.
	message := "voice did not match"
	if match {
		message = "voice matched"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"match":   match,
	})
}
