package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultMaxWait caps a single Wait.
const DefaultMaxWait = 60 * time.Second

// Prometheus metrics for rate limit tracking.
var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "elt_rate_limit_remaining",
		Help: "Requests remaining in the current API rate limit window",
	}, []string{"scope"})

	rateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elt_rate_limit_blocks_total",
		Help: "Total number of requests held until the rate limit window reset",
	}, []string{"scope"})

	rateLimitThrottlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "elt_rate_limit_throttles_total",
		Help: "Total number of requests throttled in the warning range",
	}, []string{"scope"})
)

// Tracker records the quota of one API in Redis and gates requests on it.
// Runs against the same scope share the state.
type Tracker struct {
	redis   *redis.Client
	scope   string
	maxWait time.Duration
	logger  zerolog.Logger
}

// NewTracker creates a tracker for scope, typically the API host.
func NewTracker(redisClient *redis.Client, scope string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:   redisClient,
		scope:   scope,
		maxWait: DefaultMaxWait,
		logger:  logger.With().Str("scope", scope).Logger(),
	}
}

// Key returns the Redis key holding the state.
func (t *Tracker) Key() string {
	return RedisKeyPrefix + t.scope
}

// GetState returns the stored state, or a healthy default when none exists.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	data, err := t.redis.Get(ctx, t.Key()).Bytes()
	if errors.Is(err, redis.Nil) {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		now := time.Now()
		return &RateLimitState{
			Remaining:  RemainingThresholdWarning,
			ResetAt:    now,
			LastUpdate: now,
			IsHealthy:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	var state RateLimitState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse rate limit state: %w", err)
	}
	state.UpdateHealth()
	return &state, nil
}

// UpdateFromHeaders parses the rate limit headers of a response and stores
// the result. Responses without rate limit headers leave the state as is.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header, status int) error {
	state, err := ParseHeaders(headers, status, time.Now())
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rate limit state: %w", err)
	}

	// Keep the state a little past the reset so the next run sees it.
	ttl := state.TimeUntilReset() + time.Minute
	if err := t.redis.Set(ctx, t.Key(), data, ttl).Err(); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	rateLimitRemaining.WithLabelValues(t.scope).Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit exhausted - requests will wait for reset")
	case state.NeedsThrottling():
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("Rate limit state updated")
	}
	return nil
}

// Wait blocks until the stored state allows the next request, at most
// DefaultMaxWait. It returns ctx.Err() if ctx ends first.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.GetState(ctx)
	if err != nil {
		return err
	}

	delay := state.Delay()
	if delay <= 0 {
		return nil
	}
	if delay > t.maxWait {
		delay = t.maxWait
	}

	if state.NeedsCriticalBlock() {
		rateLimitBlocksTotal.WithLabelValues(t.scope).Inc()
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("wait", delay).
			Msg("Rate limit exhausted - waiting for reset")
	} else {
		rateLimitThrottlesTotal.WithLabelValues(t.scope).Inc()
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Dur("wait", delay).
			Msg("Rate limit low - throttling request")
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
