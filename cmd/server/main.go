// Command server wires the identity service together and runs it. All
// business logic lives under internal/; this file only chooses backends from
// configuration and owns the process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"voxid/internal/identity/models"
	"voxid/internal/identity/service"
	"voxid/internal/identity/store/pending"
	"voxid/internal/identity/store/user"
	jwttoken "voxid/internal/jwt_token"
	"voxid/internal/otp"
	"voxid/internal/platform/audit"
	"voxid/internal/platform/config"
	"voxid/internal/platform/httpserver"
	"voxid/internal/platform/logger"
	"voxid/internal/platform/metrics"
	platformredis "voxid/internal/platform/redis"
	"voxid/internal/session"
	"voxid/internal/session/store/revocation"
	httptransport "voxid/internal/transport/http"
	"voxid/internal/voice"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var (
		pool *pgxpool.Pool
		db   *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	// Stores degrade gracefully: postgres when configured, memory otherwise.
	var (
		otpStore  otp.Store
		userStore user.Store
		archive   voice.Archive
	)
	if db != nil {
		otpStore = otp.NewPostgresStore(db)
		userStore = user.NewPostgresStore(pool)
		archive = voice.NewPostgresArchive(pool)
	} else {
		log.Warn("no DATABASE_URL configured, using in-memory stores")
		otpStore = otp.NewInMemoryStore()
		userStore = user.NewInMemoryStore()
		archive = voice.NewInMemoryArchive()
	}

	var list revocation.List
	switch {
	case redisClient != nil:
		list = revocation.NewRedisList(redisClient.Client)
	case db != nil:
		list = revocation.NewPostgresList(db)
	default:
		list = revocation.NewMemoryList()
	}

	var auditor audit.Publisher = audit.NewSlogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		auditor = kafka
	}

	codes := otp.NewManager(otpStore, otp.NewLogSender(log), log,
		otp.WithTTL(cfg.OTPTTL),
		otp.WithSingleShotIssue(cfg.OTPSingleShotIssue),
	)

	if cfg.VoiceExtractorURL == "" {
		log.Warn("no VOICE_EXTRACTOR_URL configured, voice operations will fail")
	}
	extractor := voice.NewHTTPExtractor(cfg.VoiceExtractorURL, cfg.VoiceExtractorTimeout)
	engine := voice.NewEngine(extractor, archive, log)

	codec := jwttoken.NewCodec(cfg.JWTSigningKey, "voxid")
	sessions := session.NewManager(codec, list, m, log, cfg.TokenTTL)

	roles := models.NewRoleSet(cfg.Roles)
	pendingStore := pending.NewInMemoryStore()
	registrar := service.NewRegistrar(userStore, pendingStore, codes, engine, sessions,
		roles, auditor, m, log, cfg.PendingTTL)
	gate := service.NewGate(userStore, engine, sessions, codes, roles, auditor, m, log)
	sweeper := service.NewSweeper(pendingStore, log, cfg.PendingSweepInterval)

	var checks []httptransport.HealthChecker
	if redisClient != nil {
		checks = append(checks, redisClient)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Registrar: registrar,
		Auth:      gate,
		Voice:     gate,
		Account:   gate,
		Validator: sessions,
		Logger:    log,
		Checks:    checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting voxid", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := sweeper.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
