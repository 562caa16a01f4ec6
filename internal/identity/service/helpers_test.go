package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"voxid/internal/identity/models"
	"voxid/internal/identity/secrets"
	"voxid/internal/identity/store/pending"
	"voxid/internal/identity/store/user"
	jwttoken "voxid/internal/jwt_token"
	"voxid/internal/otp"
	"voxid/internal/platform/audit"
	"voxid/internal/platform/metrics"
	"voxid/internal/session"
	"voxid/internal/session/store/revocation"
	"voxid/internal/voice"

	"github.com/google/uuid"
)

// Prometheus metrics register globally, so the package shares one instance.
var testMetrics = metrics.New()

type sentCode struct {
	email    string
	code     string
	template string
}

// recordingSender captures delivered codes instead of sending mail.
type recordingSender struct {
	mu       sync.Mutex
	sent     []sentCode
	failSend bool
}

func (s *recordingSender) Send(_ context.Context, email, code string) error {
	return s.record(email, code, "otp")
}

func (s *recordingSender) SendReset(_ context.Context, email, code string) error {
	return s.record(email, code, "reset")
}

func (s *recordingSender) record(email, code, template string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return errors.New("smtp unreachable")
	}
	s.sent = append(s.sent, sentCode{email: email, code: code, template: template})
	return nil
}

func (s *recordingSender) last() sentCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentCode{}
	}
	return s.sent[len(s.sent)-1]
}

// stubExtractor maps sample payloads to fixed vectors, defaulting to [1, 0].
type stubExtractor struct {
	vectors map[string][]float64
	err     error
}

func (s *stubExtractor) Extract(_ context.Context, sample voice.Sample) (voice.Embedding, error) {
	if s.err != nil {
		return voice.Embedding{}, s.err
	}
	vec := []float64{1, 0}
	if v, ok := s.vectors[string(sample.Data)]; ok {
		vec = v
	}
	return voice.Embedding{ID: "emb-" + uuid.NewString(), Vector: vec, FeatureCount: len(vec)}, nil
}

func audioSample(payload string) voice.Sample {
	return voice.Sample{Filename: "voice.wav", MediaType: "audio/wav", Data: []byte(payload)}
}

type fixture struct {
	users     *user.InMemoryStore
	pending   *pending.InMemoryStore
	sender    *recordingSender
	extractor *stubExtractor
	codes     *otp.Manager
	sessions  *session.Manager
	registrar *Registrar
	gate      *Gate
}

func newFixture() *fixture {
	logger := slog.New(slog.DiscardHandler)
	f := &fixture{
		users:     user.NewInMemoryStore(),
		pending:   pending.NewInMemoryStore(),
		sender:    &recordingSender{},
		extractor: &stubExtractor{vectors: map[string][]float64{}},
	}
	f.codes = otp.NewManager(otp.NewInMemoryStore(), f.sender, logger)
	engine := voice.NewEngine(f.extractor, voice.NewInMemoryArchive(), logger)
	codec := jwttoken.NewCodec("test-signing-key", "voxid")
	f.sessions = session.NewManager(codec, revocation.NewMemoryList(), testMetrics, logger, 24*time.Hour)
	roles := models.NewRoleSet([]string{"USER", "ADMIN", "MODERATOR"})

	f.registrar = NewRegistrar(f.users, f.pending, f.codes, engine, f.sessions, roles,
		audit.NopPublisher{}, testMetrics, logger, 30*time.Minute)
	f.gate = NewGate(f.users, engine, f.sessions, f.codes, roles,
		audit.NopPublisher{}, testMetrics, logger)
	return f
}

// seedUser creates an active identity directly in the store.
func (f *fixture) seedUser(address, secret string, role models.Role) models.User {
	hash, err := secrets.Hash(secret)
	if err != nil {
		panic(err)
	}
	u := models.User{
		ID:           uuid.New(),
		Email:        address,
		SecretHash:   hash,
		Role:         role,
		Active:       true,
		RegisteredAt: time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}
