package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// healthCheckTimeout bounds the upstream model probe during health checks.
const healthCheckTimeout = 5 * time.Second

// Certificate expiry thresholds for health reporting.
const (
	certExpiryCritical = 24 * time.Hour
	certExpiryWarning  = 7 * 24 * time.Hour
)

// healthHandler reports service health, including the extraction provider
// and certificate status when those are configured.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]any{
		"status":    "healthy",
		"service":   "atscore",
		"version":   s.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	degraded := false

	if s.AppConfig.Engine.RemoteExtraction && s.scoreService != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		modelInfo := s.scoreService.GetModelInfo(ctx)
		health["model"] = modelInfo
		if modelInfo != nil && !modelInfo.Available {
			degraded = true
		}

		if stats := s.scoreService.GetCircuitBreakerStats(); stats != nil {
			health["circuit_breakers"] = stats
			if healthy, ok := stats["overall_healthy"].(bool); ok && !healthy {
				degraded = true
			}
		}
	}

	if s.extractor != nil {
		health["extractor"] = s.extractor.Stats()
	}

	if s.certReloader != nil {
		certHealth := map[string]any{"status": "ok"}
		remaining, err := s.certReloader.CheckExpiry()
		switch {
		case err != nil:
			certHealth["status"] = "error"
			certHealth["error"] = err.Error()
			degraded = true
		case remaining < certExpiryCritical:
			certHealth["status"] = "critical"
			certHealth["expires_in"] = remaining.String()
			degraded = true
		case remaining < certExpiryWarning:
			certHealth["status"] = "warning"
			certHealth["expires_in"] = remaining.String()
		default:
			certHealth["expires_in"] = remaining.String()
		}
		health["certificate"] = certHealth
	}

	statusCode := http.StatusOK
	if degraded {
		health["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.Logger.LogError(err, "Failed to encode health response")
	}
}

// statsHandler exposes runtime statistics for operational visibility.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]any{
		"service":                "atscore",
		"version":                s.Version,
		"max_request_size_bytes": s.MaxRequestSize,
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		rateLimitInfo := map[string]any{
			"enabled":          true,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_api_key":       s.RateLimit.ByAPIKey,
			"by_ip":            s.RateLimit.ByIP,
			"window":           s.RateLimit.Window.String(),
		}
		if s.RateLimiter != nil {
			rateLimitInfo["stats"] = s.RateLimiter.GetStats()
		}
		stats["rate_limiting"] = rateLimitInfo
	} else {
		stats["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.extractor != nil {
		stats["extractor"] = s.extractor.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		s.Logger.LogError(err, "Failed to encode stats response")
	}
}

// parseJSONRequest decodes a JSON request body into dst, enforcing the
// Content-Type header and surfacing size limit violations clearly.
func parseJSONRequest(r *http.Request, dst any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		return fmt.Errorf("unsupported content type %q, expected application/json", contentType)
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body exceeds the %d byte limit", maxBytesErr.Limit)
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a JSON error response with the given status code
func writeErrorResponse(w http.ResponseWriter, errorMsg, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorMsg,
		Message: message,
	})
}
