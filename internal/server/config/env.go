package config

import (
	"os"

	"github.com/caarlos0/env/v11"
)

// envPrefix namespaces every variable, e.g. IDKEEPER_SECRET_KEY.
const envPrefix = "IDKEEPER_"

// parseEnv overlays IDKEEPER_* variables. A bare PORT, as set by most
// container platforms, picks the HTTP port unless IDKEEPER_HTTP_ADDR is
// also present. Malformed values panic.
func parseEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.EndpointAddrHTTP = ":" + port
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: envPrefix}); err != nil {
		panic(err)
	}
}
