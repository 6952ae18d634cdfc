package ai

import (
	"log/slog"
	"testing"
	"time"

	"google.golang.org/genai"

	"atscore/internal/config"
	"atscore/internal/errors"
)

func testBreakerConfig(enabled bool) *config.AIConfig {
	return &config.AIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

func TestExtractionCircuitBreakerEnabled(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)
	cb := NewExtractionCircuitBreaker(testBreakerConfig(true), logger)
	if cb == nil {
		t.Fatal("expected circuit breaker when enabled")
	}

	stats := cb.GetStats()
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("circuit breaker name not found in stats")
	}
	if name != "extract-keywords" {
		t.Errorf("expected name 'extract-keywords', got %q", name)
	}

	state, ok := stats["state"].(string)
	if !ok {
		t.Fatal("circuit breaker state not found in stats")
	}
	if state != "closed" {
		t.Errorf("expected initial state 'closed', got %q", state)
	}

	if !cb.IsHealthy() {
		t.Error("circuit breaker should be healthy initially")
	}
}

func TestModelCircuitBreakerEnabled(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)
	cb := NewModelCircuitBreaker(testBreakerConfig(true), logger)
	if cb == nil {
		t.Fatal("expected model circuit breaker when enabled")
	}

	stats := cb.GetModelStats()
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("circuit breaker name not found in stats")
	}
	if name != "extract-keywords-model" {
		t.Errorf("expected name 'extract-keywords-model', got %q", name)
	}

	if !cb.IsModelHealthy() {
		t.Error("model circuit breaker should be healthy initially")
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)

	cb := NewExtractionCircuitBreaker(testBreakerConfig(false), logger)
	if cb != nil {
		t.Fatal("expected nil circuit breaker when disabled")
	}

	// A nil breaker executes the function directly and reports healthy.
	called := false
	if _, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return nil, nil
	}); err != nil {
		t.Fatalf("unexpected error from nil breaker: %v", err)
	}
	if !called {
		t.Error("nil breaker should still execute the function")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("disabled breaker stats should report enabled=false")
	}
	if !cb.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
}
