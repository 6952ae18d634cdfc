package server

import (
	"net/http"

	"atscore/internal/observability"

	"github.com/google/uuid"
)

// setupRoutes registers all HTTP routes with their middleware chains.
func (s *Server) setupRoutes(mux *http.ServeMux, om *observability.ObservabilityManager) {
	requestID := s.requestIDMiddleware()
	rateLimit := s.createRateLimitMiddleware(om)

	// Health and stats are unauthenticated but still rate limited.
	mux.HandleFunc("/health", requestID(rateLimit(s.healthHandler)))
	mux.HandleFunc("/stats", requestID(rateLimit(s.statsHandler)))

	scoreHandler := s.createScoreHandler(om)
	mux.HandleFunc("POST /score", requestID(rateLimit(s.authMiddleware(s.requestSizeLimitMiddleware(scoreHandler)))))
}

// requestIDMiddleware assigns each request a unique ID, honoring one supplied
// by an upstream proxy, and echoes it back in the response.
func (s *Server) requestIDMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			s.Logger.Debug("Handling request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path)

			next(w, r)
		}
	}
}

// authMiddleware validates API keys when any are configured.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// No API keys configured means authentication is disabled.
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if len(authHeader) > len(bearerPrefix) && authHeader[:len(bearerPrefix)] == bearerPrefix {
				apiKey = authHeader[len(bearerPrefix):]
			}
		}

		if apiKey == "" {
			writeErrorResponse(w, "Authentication required",
				"Provide an API key via the X-API-Key header or a Bearer token", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Invalid API key rejected",
				"key", maskAPIKey(apiKey),
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Invalid API key", "", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// requestSizeLimitMiddleware caps the request body size.
func (s *Server) requestSizeLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.MaxRequestSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
		}
		next(w, r)
	}
}

// maskAPIKey redacts an API key for log output, keeping just enough to
// correlate with the key's owner.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
