package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atscore/internal/ai"
	"atscore/internal/ats"
	"atscore/internal/observability"
)

const shutdownGracePeriod = 30 * time.Second

// Start initializes observability, builds the scoring pipeline, and runs the
// HTTP server until interrupted.
func (s *Server) Start() error {
	om, err := observability.NewObservabilityManager(s.AppConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := s.setupScoringPipeline(om); err != nil {
		return err
	}

	httpServer, err := s.setupHTTPServer(om)
	if err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer, om)
}

// setupScoringPipeline builds the extractor and engine shared by all
// requests. The remote extraction service is created once so its circuit
// breakers and cache accumulate state across requests.
func (s *Server) setupScoringPipeline(om *observability.ObservabilityManager) error {
	var remote ats.RemoteExtractor
	if s.AppConfig.Engine.RemoteExtraction {
		svc, err := ai.NewService(&s.AppConfig.AI, s.Logger,
			ai.WithUsageRecorder(om.GetMetrics()))
		if err != nil {
			return fmt.Errorf("failed to create extraction service: %w", err)
		}
		s.scoreService = svc
		remote = svc
	}

	s.extractor = ats.NewExtractor(remote, nil, s.Logger)
	s.extractor.WithTimeout(s.AppConfig.AI.Timeout)
	s.engine = ats.NewEngine(s.extractor, s.Logger)

	return nil
}

// setupHTTPServer configures routes, middleware, and TLS.
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) (*http.Server, error) {
	mux := http.NewServeMux()
	s.setupRoutes(mux, om)

	tlsConfig, err := s.configureTLS(om)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}

	return &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      om.HTTPMiddleware()(mux),
		TLSConfig:    tlsConfig,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}, nil
}

// displayServerInfo logs the effective server configuration at startup.
func (s *Server) displayServerInfo() {
	scheme := "http"
	if s.TLSConfig.Mode != "disabled" && s.TLSConfig.Mode != "" {
		scheme = "https"
	}

	s.Logger.Info("Starting score server",
		"address", fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(s.Host, s.Port)),
		"version", s.Version,
		"tls_mode", s.TLSConfig.Mode,
		"auth_enabled", len(s.APIKeys) > 0,
		"rate_limiting", s.RateLimit != nil && s.RateLimit.Enabled,
		"remote_extraction", s.AppConfig.Engine.RemoteExtraction,
		"max_request_size", s.MaxRequestSize)
}

// startWithGracefulShutdown runs the server and drains it on SIGINT/SIGTERM.
func (s *Server) startWithGracefulShutdown(httpServer *http.Server, om *observability.ObservabilityManager) error {
	serverErr := make(chan error, 1)
	go func() {
		var err error
		if httpServer.TLSConfig != nil {
			// Certificates come from TLSConfig, via GetCertificate when
			// hot-reload is on.
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		s.shutdownComponents(context.Background(), om)
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		s.Logger.Info("Shutdown signal received", "signal", sig.String())
		return s.performGracefulShutdown(httpServer, om)
	}
}

// performGracefulShutdown drains in-flight requests and releases resources.
func (s *Server) performGracefulShutdown(httpServer *http.Server, om *observability.ObservabilityManager) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	err := httpServer.Shutdown(ctx)
	s.shutdownComponents(ctx, om)

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.Logger.Info("Server stopped")
	return nil
}

func (s *Server) shutdownComponents(ctx context.Context, om *observability.ObservabilityManager) {
	if s.certWatcher != nil {
		if err := s.certWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate watcher")
		}
	}
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
	if s.scoreService != nil {
		if err := s.scoreService.Close(); err != nil {
			s.Logger.LogError(err, "Failed to close extraction service")
		}
	}
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shut down observability")
	}
}
