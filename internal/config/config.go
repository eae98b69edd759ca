package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds client-side settings for the Bundoc Cloud gateway client.
type Config struct {
	Endpoint       string        `mapstructure:"endpoint"`        // Gateway base URL, e.g. https://eastus.bundoc.dev
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Per-request timeout for gateway calls
	FanOutWorkers  int           `mapstructure:"fanout_workers"`  // Concurrent per-partition fetches per query batch
	PlanCacheSize  int           `mapstructure:"plan_cache_size"` // Cached query plans per client (0 disables)
	LogLevel       string        `mapstructure:"log_level"`       // DEBUG, INFO, WARN, ERROR
	LogFormat      string        `mapstructure:"log_format"`      // json, text
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		FanOutWorkers:  runtime.NumCPU(),
		PlanCacheSize:  64,
		LogLevel:       "INFO",
		LogFormat:      "text",
	}
}

// Load loads configuration from a .env file and environment variables.
// prefix is the environment variable prefix (e.g. "BUNDOC_").
func Load(prefix string, target *Config) error {
	v := viper.New()

	// .env file is optional.
	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Parse problems (if any) surface on Unmarshal below.
		}
	}

	// Viper's AutomaticEnv doesn't work well with Unmarshal when keys
	// aren't known ahead of time, so iterate env vars and populate viper.
	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		key, value := pair[0], pair[1]

		if strings.HasPrefix(key, prefixUpper) {
			// BUNDOC_REQUEST_TIMEOUT -> request_timeout
			propKey := strings.TrimPrefix(key, prefixUpper)
			propKey = strings.ToLower(strings.TrimPrefix(propKey, "_"))

			v.Set(propKey, value)
		}
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}
