package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:       "local",
		LogLevel:          "info",
		DatabaseURL:       "postgres://localhost:5432/gaffer",
		DBMinConns:        1,
		DBMaxConns:        8,
		RecencyWindowDays: 7,
		StalenessHours:    2,
		BatchSize:         200,
		MaxAttempts:       3,
		PersistTimeout:    5 * time.Second,
		FeeTiers:          "100:5,70:4,50:3,30:2,10:1",
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "  " }},
		{"min conns above max", func(c *Config) { c.DBMinConns = 9 }},
		{"zero recency window", func(c *Config) { c.RecencyWindowDays = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"sub-second persist timeout", func(c *Config) { c.PersistTimeout = 100 * time.Millisecond }},
		{"malformed fee tiers", func(c *Config) { c.FeeTiers = "100-5" }},
	}
	for _, tc := range mutations {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation to fail")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if got := cfg.RecencyWindow(); got != 7*24*time.Hour {
		t.Fatalf("unexpected recency window: %v", got)
	}
	if got := cfg.StalenessThreshold(); got != 2*time.Hour {
		t.Fatalf("unexpected staleness threshold: %v", got)
	}
}

func TestFeeTierListSortsDescending(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.FeeTiers = "10:1, 100:5 ,50:3"
	tiers, err := cfg.FeeTierList()
	if err != nil {
		t.Fatalf("parse tiers: %v", err)
	}
	if len(tiers) != 3 {
		t.Fatalf("unexpected tier count: %d", len(tiers))
	}
	if tiers[0].MinMillions != 100 || tiers[2].MinMillions != 10 {
		t.Fatalf("tiers not sorted descending: %+v", tiers)
	}

	cfg.FeeTiers = "0:1"
	if _, err := cfg.FeeTierList(); err == nil {
		t.Fatalf("expected error for non-positive minimum")
	}
}
