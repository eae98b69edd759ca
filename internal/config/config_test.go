package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.FanOutWorkers < 1 {
		t.Errorf("FanOutWorkers = %d", cfg.FanOutWorkers)
	}
	if cfg.PlanCacheSize == 0 {
		t.Error("plan cache should be enabled by default")
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BUNDOC_ENDPOINT", "https://eastus.bundoc.dev")
	t.Setenv("BUNDOC_REQUEST_TIMEOUT", "5s")
	t.Setenv("BUNDOC_FANOUT_WORKERS", "7")
	t.Setenv("BUNDOC_LOG_LEVEL", "DEBUG")

	cfg := Default()
	if err := Load("BUNDOC_", &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Endpoint != "https://eastus.bundoc.dev" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.FanOutWorkers != 7 {
		t.Errorf("FanOutWorkers = %d", cfg.FanOutWorkers)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.PlanCacheSize != Default().PlanCacheSize {
		t.Errorf("PlanCacheSize = %d", cfg.PlanCacheSize)
	}
}

func TestLoadIgnoresOtherPrefixes(t *testing.T) {
	t.Setenv("OTHERAPP_ENDPOINT", "https://wrong.example")

	cfg := Default()
	if err := Load("BUNDOC_", &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "" {
		t.Errorf("Endpoint = %q, want empty", cfg.Endpoint)
	}
}
