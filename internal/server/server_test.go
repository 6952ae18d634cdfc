package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := ServerConfig{
		Host:           "127.0.0.1",
		Port:           "8080",
		Version:        "test",
		APIKeys:        []string{"valid-key-12345"},
		MaxRequestSize: 1024,
	}
	return NewServer(&config.Config{}, cfg, errors.NewLogger(slog.LevelError))
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(60, 2, errors.NewLogger(slog.LevelError))
	defer rl.Close()

	if !rl.Allow("ip:10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if !rl.Allow("ip:10.0.0.1") {
		t.Error("second request should be allowed within burst")
	}
	if rl.Allow("ip:10.0.0.1") {
		t.Error("third request should exceed burst capacity")
	}

	// A different key gets its own bucket
	if !rl.Allow("ip:10.0.0.2") {
		t.Error("separate key should have its own limiter")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 5, nil)
	defer rl.Close()

	rl.Allow("ip:10.0.0.1")
	rl.Allow("ip:10.0.0.2")

	rl.mu.Lock()
	rl.lastSeen["ip:10.0.0.1"] = time.Now().Add(-1 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup(limiterEvictionAge)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, exists := rl.limiters["ip:10.0.0.1"]; exists {
		t.Error("stale limiter should have been evicted")
	}
	if _, exists := rl.limiters["ip:10.0.0.2"]; !exists {
		t.Error("active limiter should have been kept")
	}
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{
			name:     "api key header preferred",
			headers:  map[string]string{"X-API-Key": "abc123"},
			byAPIKey: true,
			byIP:     true,
			want:     "api:abc123",
		},
		{
			name:     "bearer token used as api key",
			headers:  map[string]string{"Authorization": "Bearer tok456"},
			byAPIKey: true,
			want:     "api:tok456",
		},
		{
			name: "falls back to ip",
			byIP: true,
			want: "ip:192.0.2.1",
		},
		{
			name: "neither enabled",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/score", nil)
			r.RemoteAddr = "192.0.2.1:54321"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getRateLimitKey(r, tt.byAPIKey, tt.byIP); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for first valid ip",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remoteAddr: "192.0.2.1:1234",
			want:       "203.0.113.7",
		},
		{
			name:       "invalid forwarded entries skipped",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip, 203.0.113.9"},
			remoteAddr: "192.0.2.1:1234",
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			remoteAddr: "192.0.2.1:1234",
			want:       "198.51.100.4",
		},
		{
			name:       "remote addr fallback",
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/health", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := testServer(t)
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{
			name:       "valid api key header",
			headers:    map[string]string{"X-API-Key": "valid-key-12345"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid bearer token",
			headers:    map[string]string{"Authorization": "Bearer valid-key-12345"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid key rejected",
			headers:    map[string]string{"X-API-Key": "wrong-key"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing key rejected",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/score", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddlewareDisabledWithoutKeys(t *testing.T) {
	s := testServer(t)
	s.APIKeys = map[string]bool{}

	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodPost, "/score", nil)
	w := httptest.NewRecorder()
	handler(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("expected request to pass without auth, got status %d", w.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := testServer(t)
	middleware := s.requestIDMiddleware()

	t.Run("generates id when missing", func(t *testing.T) {
		var seenID string
		handler := middleware(func(w http.ResponseWriter, r *http.Request) {
			seenID = r.Header.Get("X-Request-ID")
		})

		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		handler(w, r)

		if seenID == "" {
			t.Error("expected a generated request ID")
		}
		if got := w.Header().Get("X-Request-ID"); got != seenID {
			t.Errorf("response header %q does not match request ID %q", got, seenID)
		}
	})

	t.Run("preserves upstream id", func(t *testing.T) {
		handler := middleware(func(w http.ResponseWriter, r *http.Request) {})

		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("X-Request-ID", "upstream-id")
		w := httptest.NewRecorder()
		handler(w, r)

		if got := w.Header().Get("X-Request-ID"); got != "upstream-id" {
			t.Errorf("expected upstream ID to be preserved, got %q", got)
		}
	})
}

func TestParseJSONRequest(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     bool
	}{
		{
			name:        "valid json",
			contentType: "application/json",
			body:        `{"resume": {}}`,
			wantErr:     false,
		},
		{
			name:        "charset suffix accepted",
			contentType: "application/json; charset=utf-8",
			body:        `{}`,
			wantErr:     false,
		},
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        `{}`,
			wantErr:     true,
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{not json`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/score", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)

			var req ScoreRequest
			err := parseJSONRequest(r, &req)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseJSONRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"short", "****"},
		{"12345678", "****"},
		{"abcdefghijkl", "abcd****ijkl"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.want {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
