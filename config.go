package goSession

import (
	"maps"
	"net/url"
	"strings"

	"github.com/MrEthical07/goSession/cookies"
	"github.com/MrEthical07/goSession/normalise"
)

// Config configures a [Client]. Start from [DefaultConfig] or [ConfigFromEnv].
type Config struct {
	// RefreshEndpoint is the absolute URL of the refresh API. Required.
	RefreshEndpoint string `env:"REFRESH_ENDPOINT"`
	// APIDomain is the origin whose requests are intercepted. Required.
	APIDomain string `env:"API_DOMAIN"`
	// SessionScope is the cookie scope the session identifier is written under. Defaults
	// to APIDomain's hostname.
	SessionScope string `env:"SESSION_SCOPE"`
	// CookieDomain widens interception to a cookie domain (".example.com" matches all
	// subdomains). Optional; may carry a port.
	CookieDomain             string            `env:"COOKIE_DOMAIN"`
	SessionExpiredStatusCode int               `env:"SESSION_EXPIRED_STATUS_CODE"`
	AutoAddCredentials       bool              `env:"AUTO_ADD_CREDENTIALS"`
	RefreshAPICustomHeaders  map[string]string `env:"REFRESH_API_CUSTOM_HEADERS"`
	SessionIDCookieName      string            `env:"SESSION_ID_COOKIE_NAME"`
	// MaxErrorBodyBytes bounds the refresh response body kept on an APIError.
	MaxErrorBodyBytes int `env:"MAX_ERROR_BODY_BYTES"`

	Events     EventsConfig     `envPrefix:"EVENTS_"`
	Metrics    MetricsConfig    `envPrefix:"METRICS_"`
	TokenStore TokenStoreConfig `envPrefix:"TOKEN_STORE_"`
}

/*
====================================
EVENTS CONFIG
====================================
*/

// EventsConfig controls asynchronous session event delivery.
type EventsConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

/*
====================================
TOKEN STORE CONFIG
====================================
*/

// TokenStoreConfig names the Redis keys of the shared token store used when the
// builder is given a Redis client.
type TokenStoreConfig struct {
	RedisPrefix string `env:"REDIS_PREFIX"`
	Namespace   string `env:"NAMESPACE"`
}

// DefaultConfig returns a Config with every optional field at its default. The two
// required fields are left empty.
func DefaultConfig() Config {
	return Config{
		SessionExpiredStatusCode: 401,
		AutoAddCredentials:       true,
		SessionIDCookieName:      cookies.DefaultSessionIDCookieName,
		MaxErrorBodyBytes:        4096,
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		TokenStore: TokenStoreConfig{
			RedisPrefix: "gs",
			Namespace:   "default",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.RefreshAPICustomHeaders = maps.Clone(cfg.RefreshAPICustomHeaders)
	return out
}

// Validate checks cfg. Every failure wraps [ErrConfiguration]; malformed URLs and
// scopes also wrap [ErrInvalidURL] or [ErrInvalidScope].
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RefreshEndpoint) == "" {
		return configErrorf("RefreshEndpoint is required")
	}
	u, err := url.Parse(strings.TrimSpace(c.RefreshEndpoint))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return configErrorf("%w: RefreshEndpoint %q must be an absolute URL", ErrInvalidURL, c.RefreshEndpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return configErrorf("%w: RefreshEndpoint %q must use http or https", ErrInvalidURL, c.RefreshEndpoint)
	}

	if strings.TrimSpace(c.APIDomain) == "" {
		return configErrorf("APIDomain is required")
	}
	if _, err := normalise.Domain(c.APIDomain); err != nil {
		return configErrorf("APIDomain: %w", err)
	}

	if c.SessionScope != "" {
		if _, err := normalise.SessionScope(c.SessionScope); err != nil {
			return configErrorf("SessionScope: %w", err)
		}
	}
	if c.CookieDomain != "" {
		if _, err := normalise.SessionScope(c.CookieDomain); err != nil {
			return configErrorf("CookieDomain: %w", err)
		}
	}

	if c.SessionExpiredStatusCode < 100 || c.SessionExpiredStatusCode > 599 {
		return configErrorf("SessionExpiredStatusCode must be a valid HTTP status")
	}
	if c.SessionExpiredStatusCode >= 200 && c.SessionExpiredStatusCode < 300 {
		return configErrorf("SessionExpiredStatusCode must not be a success status")
	}
	if strings.TrimSpace(c.SessionIDCookieName) == "" {
		return configErrorf("SessionIDCookieName is required")
	}
	if c.MaxErrorBodyBytes < 0 {
		return configErrorf("MaxErrorBodyBytes must be >= 0")
	}

	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return configErrorf("Events BufferSize must be > 0 when events are enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return configErrorf("Metrics LatencyHistograms requires Metrics Enabled")
	}
	if strings.TrimSpace(c.TokenStore.RedisPrefix) == "" {
		return configErrorf("TokenStore RedisPrefix is required")
	}
	return nil
}

// resolvedSessionScope returns the normalised scope the session identifier is written
// under.
func (c *Config) resolvedSessionScope() (string, error) {
	if c.SessionScope != "" {
		return normalise.SessionScope(c.SessionScope)
	}
	host, err := normalise.Hostname(c.APIDomain)
	if err != nil {
		return "", err
	}
	return normalise.SessionScope(host)
}
