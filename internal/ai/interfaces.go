package ai

import (
	"context"

	"atscore/internal/types"
)

// KeywordProvider is the interface for remote keyword classification
// backends. All methods return token usage information; callers can ignore
// it if not needed.
type KeywordProvider interface {
	ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.ExtractedKeywords, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
