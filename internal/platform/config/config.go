package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server wires at startup so main stays lean.
type Config struct {
	Addr string

	// JWTSigningKey is the symmetric key for bearer tokens. Treated as a
	// scoped secret: nothing outside internal/jwt_token ever reads it back.
	JWTSigningKey string
	TokenTTL      time.Duration

	OTPTTL time.Duration
	// OTPSingleShotIssue reproduces the legacy behavior of marking a code
	// used at send time. With it on, a later Verify deterministically fails
	// with code_already_used; the flag exists for compatibility only.
	OTPSingleShotIssue bool

	VoiceExtractorURL     string
	VoiceExtractorTimeout time.Duration

	// Roles is the open set of accepted role tags.
	Roles []string

	PendingTTL           time.Duration
	PendingSweepInterval time.Duration

	Redis       RedisConfig
	DatabaseURL string

	KafkaBrokers []string
	AuditTopic   string
}

// RedisConfig carries connection settings for the optional Redis backends.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          envOr("VOXID_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      envDuration("TOKEN_TTL", 24*time.Hour),

		OTPTTL:             envDuration("OTP_TTL", 2*time.Minute),
		OTPSingleShotIssue: os.Getenv("OTP_SINGLE_SHOT_ISSUE") == "true",

		VoiceExtractorURL:     os.Getenv("VOICE_EXTRACTOR_URL"),
		VoiceExtractorTimeout: envDuration("VOICE_EXTRACTOR_TIMEOUT", 10*time.Second),

		Roles: splitList(envOr("ROLE_SET", "USER,ADMIN,MODERATOR")),

		PendingTTL:           envDuration("PENDING_TTL", 30*time.Minute),
		PendingSweepInterval: envDuration("PENDING_SWEEP_INTERVAL", 5*time.Minute),

		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		AuditTopic:   envOr("AUDIT_TOPIC", "voxid.security.audit"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
