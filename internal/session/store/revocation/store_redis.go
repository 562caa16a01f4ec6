package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voxid_is_token_revoked_duration_ms",
		Help:    "Latency of token revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	revokedTokenKeyPrefix  = "trl:jti:"
	subjectCutoffKeyPrefix = "trl:subject:"
)

// revokeSubjectScript writes the cutoff only when it moves forward. Two
// instances can race their logout-all writes, and the revoked window must
// never shrink, so the compare and the set happen atomically server-side.
var revokeSubjectScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]))
local incoming = tonumber(ARGV[1])
if current == nil or incoming > current then
	redis.call('SET', KEYS[1], ARGV[1])
end
return 0
`)

// RedisList is a Redis-backed revocation list. This is the production
// implementation for deployments where multiple instances share revocation
// state; the jti keys expire on their own, so the list never needs sweeping.
type RedisList struct {
	client *redis.Client
}

// NewRedisList constructs a Redis-backed revocation list.
func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

func (l *RedisList) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	key := revokedTokenKeyPrefix + jti
	// Store "1" as a simple marker; the key existence is what matters.
	return l.client.Set(ctx, key, "1", ttl).Err()
}

func (l *RedisList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	key := revokedTokenKeyPrefix + jti
	_, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *RedisList) RevokeSubject(ctx context.Context, subject string, cutoff time.Time) error {
	key := subjectCutoffKeyPrefix + subject
	// Stored as unix microseconds, which a Lua number compares exactly.
	// Subject keys are few; keep them without expiry.
	return revokeSubjectScript.Run(ctx, l.client, []string{key}, cutoff.UnixMicro()).Err()
}

func (l *RedisList) SubjectCutoff(ctx context.Context, subject string) (time.Time, error) {
	key := subjectCutoffKeyPrefix + subject
	raw, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	micros, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("stored subject cutoff unreadable: %w", err)
	}
	return time.UnixMicro(micros), nil
}
