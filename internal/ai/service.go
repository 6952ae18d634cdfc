package ai

import (
	"context"
	"fmt"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"
)

// UsageRecorder receives token usage from successful classifier calls.
// Implementations must be safe for concurrent use.
type UsageRecorder interface {
	RecordTokenUsage(ctx context.Context, model string, usage *TokenUsage)
}

// Service provides keyword extraction backed by a classifier provider.
// It satisfies the scoring engine's remote extractor contract.
type Service struct {
	provider KeywordProvider
	config   *config.AIConfig
	logger   *errors.Logger
	recorder UsageRecorder
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithUsageRecorder attaches a token usage recorder
func WithUsageRecorder(r UsageRecorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a new extraction service with the specified provider
func NewService(cfg *config.AIConfig, logger *errors.Logger, opts ...ServiceOption) (*Service, error) {
	var provider KeywordProvider
	var err error

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported classifier provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	s := &Service{
		provider: provider,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ExtractKeywords extracts categorized keywords from a job description.
// Token usage is recorded internally; the signature matches what the
// scoring engine expects from a remote extractor.
func (s *Service) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.ExtractedKeywords, error) {
	result, usage, err := s.provider.ExtractKeywords(ctx, input)
	if err != nil {
		return types.ExtractedKeywords{}, err
	}

	if usage != nil {
		s.logger.Debug("Keyword extraction token usage",
			"model", s.config.Model,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
		if s.recorder != nil {
			s.recorder.RecordTokenUsage(ctx, s.config.Model, usage)
		}
	}

	return result, nil
}

// GetModelInfo returns readiness information for the configured model
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.provider.GetModelInfo(ctx)
}

// GetCircuitBreakerStats returns circuit breaker statistics when the
// underlying provider exposes them.
func (s *Service) GetCircuitBreakerStats() map[string]any {
	if sp, ok := s.provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return sp.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.provider.Close()
}
