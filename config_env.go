package goSession

import (
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by [ConfigFromEnv].
const EnvPrefix = "GOSESSION_"

// ConfigFromEnv returns [DefaultConfig] overridden by GOSESSION_* environment variables,
// e.g. GOSESSION_REFRESH_ENDPOINT, GOSESSION_API_DOMAIN, GOSESSION_EVENTS_ENABLED or
// GOSESSION_REFRESH_API_CUSTOM_HEADERS="rid:session,x-app:web". The result is not
// validated.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, configErrorf("environment: %v", err)
	}
	return cfg, nil
}
