// Package ratelimit tracks the request quota a REST API advertises in its
// response headers and gates requests before that quota runs out.
// It reads the X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// headers of every response, and Retry-After on 429 responses.
package ratelimit

import (
	"time"
)

// Response headers read by the tracker.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// RedisKeyPrefix namespaces the per-scope state keys.
const RedisKeyPrefix = "elt:rate_limit:"

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks requests until the window resets
	// when fewer requests than this remain.
	RemainingThresholdCritical = 1

	// RemainingThresholdWarning throttles requests when fewer requests than
	// this remain.
	RemainingThresholdWarning = 5

	// ThrottleDelay is the pause applied to each request in the warning range.
	ThrottleDelay = 1 * time.Second

	// DefaultWindow is assumed when an API reports a remaining count but no
	// reset time.
	DefaultWindow = 60 * time.Second
)

// RateLimitState is the last quota reported by the API.
type RateLimitState struct {
	// Limit is the window size from X-RateLimit-Limit (0 when not sent).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when no gating applies.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests should wait for the reset.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock()
}

// TimeUntilReset returns the duration until the window resets, or 0 if the
// reset time has passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	d := time.Until(s.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// Delay returns how long the next request should wait. Once the window
// has reset no delay applies.
func (s *RateLimitState) Delay() time.Duration {
	untilReset := s.TimeUntilReset()
	switch {
	case untilReset == 0:
		return 0
	case s.NeedsCriticalBlock():
		return untilReset
	case s.NeedsThrottling():
		return min(ThrottleDelay, untilReset)
	default:
		return 0
	}
}

// UpdateHealth updates IsHealthy from Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdWarning
}
