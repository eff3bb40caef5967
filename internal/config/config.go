package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"GAFFER_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"GAFFER_DB_MAX_CONNS" default:"8"`

	// Merge-engine knobs.
	RecencyWindowDays int           `envconfig:"RECENCY_WINDOW_DAYS" default:"7"`
	StalenessHours    int           `envconfig:"STALENESS_HOURS" default:"2"`
	BatchSize         int           `envconfig:"BATCH_SIZE" default:"200"`
	MaxAttempts       int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	PersistTimeout    time.Duration `envconfig:"PERSIST_TIMEOUT" default:"5s"`

	// Optional override for the embedded club/player data file.
	ClubDataPath string `envconfig:"CLUB_DATA_PATH" default:""`

	// Importance fee tiers as "min:points" pairs, highest tier first.
	FeeTiers string `envconfig:"FEE_TIERS" default:"100:5,70:4,50:3,30:2,10:1"`
}

// FeeTier awards Points when a story's best fee is at least MinMillions.
type FeeTier struct {
	MinMillions float64
	Points      int
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("GAFFER_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("GAFFER_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("GAFFER_DB_MIN_CONNS (%d) cannot exceed GAFFER_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RecencyWindowDays < 1 {
		return fmt.Errorf("RECENCY_WINDOW_DAYS must be >= 1")
	}
	if c.StalenessHours < 1 {
		return fmt.Errorf("STALENESS_HOURS must be >= 1")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be >= 1")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be >= 1")
	}
	if c.PersistTimeout < time.Second {
		return fmt.Errorf("PERSIST_TIMEOUT must be >= 1s")
	}
	if _, err := c.FeeTierList(); err != nil {
		return err
	}
	return nil
}

// RecencyWindow returns the fallback-matching window as a duration.
func (c *Config) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowDays) * 24 * time.Hour
}

// StalenessThreshold returns the material-update staleness threshold.
func (c *Config) StalenessThreshold() time.Duration {
	return time.Duration(c.StalenessHours) * time.Hour
}

// FeeTierList parses FEE_TIERS into tiers sorted by descending minimum.
func (c *Config) FeeTierList() ([]FeeTier, error) {
	parts := strings.Split(c.FeeTiers, ",")
	tiers := make([]FeeTier, 0, len(parts))
	for _, part := range parts {
		pair := strings.TrimSpace(part)
		if pair == "" {
			continue
		}
		minRaw, pointsRaw, found := strings.Cut(pair, ":")
		if !found {
			return nil, fmt.Errorf("FEE_TIERS entry %q must be min:points", pair)
		}
		minMillions, err := strconv.ParseFloat(strings.TrimSpace(minRaw), 64)
		if err != nil || minMillions <= 0 {
			return nil, fmt.Errorf("FEE_TIERS entry %q has invalid minimum", pair)
		}
		points, err := strconv.Atoi(strings.TrimSpace(pointsRaw))
		if err != nil || points < 1 {
			return nil, fmt.Errorf("FEE_TIERS entry %q has invalid points", pair)
		}
		tiers = append(tiers, FeeTier{MinMillions: minMillions, Points: points})
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("FEE_TIERS must define at least one tier")
	}
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinMillions > tiers[j].MinMillions
	})
	return tiers, nil
}
