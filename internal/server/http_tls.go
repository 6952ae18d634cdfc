package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"atscore/internal/observability"
)

// configureTLS builds the tls.Config for the configured mode, wiring up
// certificate hot-reload when enabled. Returns nil when TLS is disabled.
func (s *Server) configureTLS(om *observability.ObservabilityManager) (*tls.Config, error) {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil, nil
	case "server", "mutual":
		return s.buildTLSConfig(om)
	default:
		return nil, fmt.Errorf("unknown TLS mode %q", s.TLSConfig.Mode)
	}
}

func (s *Server) buildTLSConfig(om *observability.ObservabilityManager) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tlsMinVersion(s.TLSConfig.MinVersion),
	}

	if s.TLSConfig.AutoReload {
		reloader, err := NewCertReloader(s.TLSConfig.CertFile, s.TLSConfig.KeyFile, om.GetMetrics())
		if err != nil {
			return nil, err
		}
		s.certReloader = reloader
		tlsConfig.GetCertificate = reloader.GetCertificate

		watcher, err := NewCertWatcher(
			[]string{s.TLSConfig.CertFile, s.TLSConfig.KeyFile},
			s.Logger,
			func() {
				if err := reloader.Reload(); err != nil {
					s.Logger.LogError(err, "Certificate reload failed")
				} else {
					s.Logger.Info("Certificate reloaded")
				}
			},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create certificate watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return nil, fmt.Errorf("failed to start certificate watcher: %w", err)
		}
		s.certWatcher = watcher
	} else {
		cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load server certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if s.TLSConfig.Mode == "mutual" {
		caPool, err := loadCAPool(s.TLSConfig.CAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.ClientCAs = caPool
		tlsConfig.ClientAuth = clientAuthType(s.TLSConfig.ClientAuthPolicy)
	}

	return tlsConfig, nil
}

func tlsMinVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

func clientAuthType(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "require":
		return tls.RequireAnyClientCert
	default:
		return tls.RequireAndVerifyClientCert
	}
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	if caFile == "" {
		return nil, fmt.Errorf("mutual TLS requires a CA file")
	}
	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no valid certificates found in CA file %s", caFile)
	}
	return pool, nil
}

// CertReloader serves the current certificate to TLS handshakes and swaps it
// atomically when Reload is called.
type CertReloader struct {
	mu       sync.RWMutex
	cert     *tls.Certificate
	certFile string
	keyFile  string
	metrics  *observability.Metrics
}

// NewCertReloader loads the initial certificate from disk.
func NewCertReloader(certFile, keyFile string, metrics *observability.Metrics) (*CertReloader, error) {
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		metrics:  metrics,
	}
	if err := r.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}
	return r, nil
}

// Reload re-reads the certificate pair from disk. The old certificate stays
// in use if loading fails.
func (r *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordCertReload(context.Background(), false)
		}
		return err
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.RecordCertReload(context.Background(), true)
		if remaining, err := r.CheckExpiry(); err == nil {
			r.metrics.RecordCertExpiry(context.Background(), remaining.Seconds())
		}
	}
	return nil
}

// GetCertificate implements tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return r.cert, nil
}

// CheckExpiry returns how long until the current leaf certificate expires.
func (r *CertReloader) CheckExpiry() (time.Duration, error) {
	r.mu.RLock()
	cert := r.cert
	r.mu.RUnlock()

	if cert == nil {
		return 0, fmt.Errorf("no certificate loaded")
	}

	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return 0, fmt.Errorf("certificate has no data")
		}
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return 0, fmt.Errorf("failed to parse certificate: %w", err)
		}
		leaf = parsed
	}

	return time.Until(leaf.NotAfter), nil
}
