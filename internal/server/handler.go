package server

import (
	"context"
	"encoding/json"
	"net/http"

	"atscore/internal/observability"
	"atscore/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// createScoreHandler wraps the score handler with observability
func (s *Server) createScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("atscore.api")
		ctx, span := tracer.Start(ctx, "api.score")
		defer span.End()

		var req ScoreRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		resume := req.Resume
		if req.JobDescription != "" {
			resume.JobDescription = req.JobDescription
		}
		if req.TargetTitle != "" {
			resume.TargetTitle = req.TargetTitle
		}

		// Missing inputs are not HTTP errors: the engine reports them as
		// zero-score results with guidance in the suggestions.
		span.SetAttributes(
			attribute.Int("request.job_length", len(resume.JobDescription)),
			attribute.Int("request.experience_entries", len(resume.Experience)),
			attribute.String("operation", "score"),
		)

		metrics := om.GetMetrics()
		statsBefore := s.extractor.Stats()

		var result types.ATSScoreResult
		_ = metrics.TrackScoreOperation(ctx, func(ctx context.Context) (int, error) {
			result = s.engine.Score(ctx, &resume)
			return result.GeneralScore, nil
		})

		statsAfter := s.extractor.Stats()
		metrics.RecordExtractorStats(ctx,
			statsAfter.CacheHits-statsBefore.CacheHits,
			statsAfter.CacheMisses-statsBefore.CacheMisses,
			statsAfter.Fallbacks-statsBefore.Fallbacks)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("score.overall", result.GeneralScore),
			attribute.Int("keywords.found", len(result.Keywords.Found)),
			attribute.Int("keywords.missing", len(result.Keywords.Missing)),
		)
		if result.JobSpecificScore != nil {
			span.SetAttributes(attribute.Int("score.job_specific", *result.JobSpecificScore))
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			span.RecordError(err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				limiterType := "ip"
				if s.RateLimit != nil && s.RateLimit.ByAPIKey {
					limiterType = "api_key"
				}
				metrics.RecordRateLimitHit(r.Context(), limiterType)
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
