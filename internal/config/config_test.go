package config

import "testing"

func validBaseConfig() *Config {
	return &Config{
		AI: AIConfig{
			APIKey:  "test-key",
			Timeout: 1,
		},
		Engine: EngineConfig{RemoteExtraction: true},
		Server: ServerConfig{
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing api key with remote extraction", func(c *Config) { c.AI.APIKey = "" }, true},
		{"missing api key without remote extraction", func(c *Config) {
			c.AI.APIKey = ""
			c.Engine.RemoteExtraction = false
		}, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"invalid default format", func(c *Config) { c.App.DefaultFormat = "xml" }, true},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTLS(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
	}{
		{"disabled", TLSConfig{Mode: "disabled"}, false},
		{"server mode with files", TLSConfig{Mode: "server", CertFile: "cert.pem", KeyFile: "key.pem"}, false},
		{"server mode missing key", TLSConfig{Mode: "server", CertFile: "cert.pem"}, true},
		{"mutual mode complete", TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem", CAFile: "ca.pem"}, false},
		{"mutual mode missing ca", TLSConfig{Mode: "mutual", CertFile: "cert.pem", KeyFile: "key.pem"}, true},
		{"invalid mode", TLSConfig{Mode: "optional"}, true},
		{"invalid client auth policy", TLSConfig{Mode: "mutual", CertFile: "c", KeyFile: "k", CAFile: "a", ClientAuthPolicy: "maybe"}, true},
		{"invalid min version", TLSConfig{Mode: "server", CertFile: "c", KeyFile: "k", MinVersion: "1.0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBaseConfig()
			cfg.Server.TLS = tt.tls
			err := cfg.validateTLS()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTLS() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyFallbacks(t *testing.T) {
	t.Run("server api keys from environment", func(t *testing.T) {
		t.Setenv("ATSCORE_SERVER_APIKEYS", "key-one, key-two ,key-three")
		cfg := validBaseConfig()
		cfg.applyFallbacks()
		if len(cfg.Server.APIKeys) != 3 {
			t.Fatalf("expected 3 API keys, got %d", len(cfg.Server.APIKeys))
		}
		if cfg.Server.APIKeys[1] != "key-two" {
			t.Errorf("expected trimmed key, got %q", cfg.Server.APIKeys[1])
		}
	})

	t.Run("mutual tls defaults", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Server.TLS.Mode = "mutual"
		cfg.applyFallbacks()
		if cfg.Server.TLS.ClientAuthPolicy != "require" {
			t.Errorf("expected default client auth policy 'require', got %q", cfg.Server.TLS.ClientAuthPolicy)
		}
		if cfg.Server.TLS.MinVersion != "1.2" {
			t.Errorf("expected default min version '1.2', got %q", cfg.Server.TLS.MinVersion)
		}
	})

	t.Run("service instance generated", func(t *testing.T) {
		cfg := validBaseConfig()
		cfg.Observability.ServiceName = "atscore"
		cfg.applyFallbacks()
		if cfg.Observability.ServiceInstance == "" {
			t.Error("expected generated service instance ID")
		}
	})
}
