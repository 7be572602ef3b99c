package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// epochCutoff separates X-RateLimit-Reset values given as seconds until
// reset from values given as a Unix timestamp.
const epochCutoff = 1_000_000_000

// ParseHeaders extracts the quota from a response. It returns nil when the
// response carries no rate limit headers.
//
// A 429 with Retry-After (seconds or HTTP date) yields an exhausted state
// that resets after the given delay.
func ParseHeaders(headers http.Header, status int, now time.Time) (*RateLimitState, error) {
	if status == http.StatusTooManyRequests {
		if retryAfter := headers.Get(HeaderRetryAfter); retryAfter != "" {
			resetAt, err := parseRetryAfter(retryAfter, now)
			if err != nil {
				return nil, err
			}
			state := &RateLimitState{
				Limit:      parseIntOrZero(headers.Get(HeaderLimit)),
				Remaining:  0,
				ResetAt:    resetAt,
				LastUpdate: now,
			}
			state.UpdateHealth()
			return state, nil
		}
	}

	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil, nil
	}
	remain, err := strconv.Atoi(strings.TrimSpace(remainStr))
	if err != nil {
		return nil, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err = strconv.Atoi(strings.TrimSpace(limitStr))
		if err != nil {
			return nil, fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	resetAt := now.Add(DefaultWindow)
	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		reset, err := strconv.ParseInt(strings.TrimSpace(resetStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		if reset >= epochCutoff {
			resetAt = time.Unix(reset, 0)
		} else {
			resetAt = now.Add(time.Duration(reset) * time.Second)
		}
	}

	state := &RateLimitState{
		Limit:      limit,
		Remaining:  remain,
		ResetAt:    resetAt,
		LastUpdate: now,
	}
	state.UpdateHealth()
	return state, nil
}

func parseRetryAfter(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			seconds = 0
		}
		return now.Add(time.Duration(seconds) * time.Second), nil
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s header %q: %w", HeaderRetryAfter, value, err)
	}
	return at, nil
}

func parseIntOrZero(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
