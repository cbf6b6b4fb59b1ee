package goSession

import (
	"errors"
	"testing"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.RefreshEndpoint = "https://api.example.com/auth/session/refresh"
	cfg.APIDomain = "https://api.example.com"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
		wantErr   error
	}{
		{name: "defaults with required fields", mutate: func(*Config) {}, wantValid: true},
		{
			name:    "missing refresh endpoint",
			mutate:  func(c *Config) { c.RefreshEndpoint = "" },
			wantErr: ErrConfiguration,
		},
		{
			name:    "relative refresh endpoint",
			mutate:  func(c *Config) { c.RefreshEndpoint = "/auth/session/refresh" },
			wantErr: ErrInvalidURL,
		},
		{
			name:    "non http refresh endpoint",
			mutate:  func(c *Config) { c.RefreshEndpoint = "ftp://api.example.com/refresh" },
			wantErr: ErrInvalidURL,
		},
		{
			name:    "missing api domain",
			mutate:  func(c *Config) { c.APIDomain = " " },
			wantErr: ErrConfiguration,
		},
		{
			name:    "api domain without dot",
			mutate:  func(c *Config) { c.APIDomain = "intranet" },
			wantErr: ErrInvalidURL,
		},
		{
			name:      "api domain without scheme",
			mutate:    func(c *Config) { c.APIDomain = "api.example.com:8080" },
			wantValid: true,
		},
		{
			name:    "invalid cookie domain",
			mutate:  func(c *Config) { c.CookieDomain = "a b.com" },
			wantErr: ErrInvalidScope,
		},
		{
			name:      "cookie domain with port",
			mutate:    func(c *Config) { c.CookieDomain = ".example.com:8080" },
			wantValid: true,
		},
		{
			name:    "success expired status",
			mutate:  func(c *Config) { c.SessionExpiredStatusCode = 200 },
			wantErr: ErrConfiguration,
		},
		{
			name:      "custom expired status",
			mutate:    func(c *Config) { c.SessionExpiredStatusCode = 440 },
			wantValid: true,
		},
		{
			name:    "blank cookie name",
			mutate:  func(c *Config) { c.SessionIDCookieName = "" },
			wantErr: ErrConfiguration,
		},
		{
			name: "events without buffer",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.BufferSize = 0
			},
			wantErr: ErrConfiguration,
		},
		{
			name: "latency without metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantErr: ErrConfiguration,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfigResolvedSessionScope(t *testing.T) {
	cfg := validTestConfig()
	got, err := cfg.resolvedSessionScope()
	if err != nil || got != "api.example.com" {
		t.Fatalf("expected api.example.com, got %q (%v)", got, err)
	}

	cfg.SessionScope = ".Example.COM"
	got, err = cfg.resolvedSessionScope()
	if err != nil || got != ".example.com" {
		t.Fatalf("expected .example.com, got %q (%v)", got, err)
	}
}

func TestCloneConfigCopiesHeaders(t *testing.T) {
	cfg := validTestConfig()
	cfg.RefreshAPICustomHeaders = map[string]string{"rid": "session"}
	out := cloneConfig(cfg)
	out.RefreshAPICustomHeaders["rid"] = "changed"
	if cfg.RefreshAPICustomHeaders["rid"] != "session" {
		t.Fatal("expected clone to own its header map")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("GOSESSION_REFRESH_ENDPOINT", "https://api.example.com/refresh")
	t.Setenv("GOSESSION_API_DOMAIN", "api.example.com")
	t.Setenv("GOSESSION_SESSION_EXPIRED_STATUS_CODE", "440")
	t.Setenv("GOSESSION_AUTO_ADD_CREDENTIALS", "false")
	t.Setenv("GOSESSION_REFRESH_API_CUSTOM_HEADERS", "rid:session,x-app:web")
	t.Setenv("GOSESSION_EVENTS_ENABLED", "true")
	t.Setenv("GOSESSION_TOKEN_STORE_NAMESPACE", "tenant-a")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.RefreshEndpoint != "https://api.example.com/refresh" || cfg.APIDomain != "api.example.com" {
		t.Fatalf("unexpected required fields: %+v", cfg)
	}
	if cfg.SessionExpiredStatusCode != 440 || cfg.AutoAddCredentials {
		t.Fatalf("expected overrides, got status=%d credentials=%v", cfg.SessionExpiredStatusCode, cfg.AutoAddCredentials)
	}
	if cfg.RefreshAPICustomHeaders["rid"] != "session" || cfg.RefreshAPICustomHeaders["x-app"] != "web" {
		t.Fatalf("unexpected headers: %v", cfg.RefreshAPICustomHeaders)
	}
	if !cfg.Events.Enabled || cfg.Events.BufferSize != 256 {
		t.Fatalf("expected events enabled with default buffer, got %+v", cfg.Events)
	}
	if cfg.TokenStore.Namespace != "tenant-a" || cfg.TokenStore.RedisPrefix != "gs" {
		t.Fatalf("unexpected token store config: %+v", cfg.TokenStore)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected env config to validate, got %v", err)
	}
}

func TestConfigFromEnvRejectsMalformedValue(t *testing.T) {
	t.Setenv("GOSESSION_MAX_ERROR_BODY_BYTES", "lots")

	_, err := ConfigFromEnv()
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
