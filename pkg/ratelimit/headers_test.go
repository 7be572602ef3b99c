package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestParseHeaders(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		headers       map[string]string
		status        int
		wantNil       bool
		wantErr       bool
		wantRemaining int
		wantLimit     int
		wantReset     time.Time
	}{
		{
			name:    "no headers",
			status:  200,
			wantNil: true,
		},
		{
			name:          "relative reset",
			headers:       map[string]string{HeaderLimit: "100", HeaderRemaining: "42", HeaderReset: "30"},
			status:        200,
			wantRemaining: 42,
			wantLimit:     100,
			wantReset:     now.Add(30 * time.Second),
		},
		{
			name:          "epoch reset",
			headers:       map[string]string{HeaderRemaining: "7", HeaderReset: "1791979200"},
			status:        200,
			wantRemaining: 7,
			wantReset:     time.Unix(1791979200, 0),
		},
		{
			name:          "no reset assumes default window",
			headers:       map[string]string{HeaderRemaining: "9"},
			status:        200,
			wantRemaining: 9,
			wantReset:     now.Add(DefaultWindow),
		},
		{
			name:          "retry-after seconds on 429",
			headers:       map[string]string{HeaderRetryAfter: "5"},
			status:        429,
			wantRemaining: 0,
			wantReset:     now.Add(5 * time.Second),
		},
		{
			name:          "retry-after date on 429",
			headers:       map[string]string{HeaderRetryAfter: now.Add(time.Minute).Format(http.TimeFormat)},
			status:        429,
			wantRemaining: 0,
			wantReset:     now.Add(time.Minute),
		},
		{
			name:    "retry-after ignored on 200",
			headers: map[string]string{HeaderRetryAfter: "5"},
			status:  200,
			wantNil: true,
		},
		{
			name:    "invalid remaining",
			headers: map[string]string{HeaderRemaining: "lots"},
			status:  200,
			wantErr: true,
		},
		{
			name:    "invalid reset",
			headers: map[string]string{HeaderRemaining: "10", HeaderReset: "soon"},
			status:  200,
			wantErr: true,
		},
		{
			name:    "invalid retry-after",
			headers: map[string]string{HeaderRetryAfter: "later"},
			status:  429,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for k, v := range tt.headers {
				headers.Set(k, v)
			}

			state, err := ParseHeaders(headers, tt.status, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHeaders() error = %v", err)
			}
			if tt.wantNil {
				if state != nil {
					t.Errorf("ParseHeaders() = %+v, want nil", state)
				}
				return
			}
			if state == nil {
				t.Fatal("ParseHeaders() = nil")
			}
			if state.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.wantRemaining)
			}
			if state.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", state.Limit, tt.wantLimit)
			}
			if !state.ResetAt.Equal(tt.wantReset) {
				t.Errorf("ResetAt = %v, want %v", state.ResetAt, tt.wantReset)
			}
			if !state.LastUpdate.Equal(now) {
				t.Errorf("LastUpdate = %v, want %v", state.LastUpdate, now)
			}
		})
	}
}
