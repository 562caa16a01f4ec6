package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "voxid/internal/platform/middleware"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the collaborators the router wires handlers to.
type Deps struct {
	Registrar RegistrationService
	Auth      AuthService
	Voice     VoiceService
	Account   AccountService
	Validator mw.TokenValidator
	Logger    *slog.Logger
	// Checks run on /healthz; nil entries are skipped.
	Checks []HealthChecker
}

// NewRouter assembles the full route table with the standard middleware
// chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(mw.Recovery(d.Logger))
	r.Use(mw.RequestID)
	r.Use(mw.RequestTime)
	r.Use(mw.Logger(d.Logger))

	NewRegistrationHandler(d.Registrar, d.Logger).Register(r)
	NewAuthHandler(d.Auth, d.Validator, d.Logger).Register(r)
	NewVoiceHandler(d.Voice, d.Validator, d.Logger).Register(r)
	NewAccountHandler(d.Account, d.Validator, d.Logger).Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		for _, check := range d.Checks {
			if check == nil {
				continue
			}
			if err := check.Health(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
