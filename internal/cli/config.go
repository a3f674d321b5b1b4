package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dismantle/pkg/pipeline"
)

// Config is the optional TOML configuration file (dismantle.toml). Flags
// always override file values; the file only supplies defaults.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Cache   CacheConfig   `toml:"cache"`
	Results ResultsConfig `toml:"results"`
	Server  ServerConfig  `toml:"server"`
}

// EngineConfig mirrors the pipeline option surface.
type EngineConfig struct {
	Strategy       string  `toml:"strategy"`
	MaxDepth       int     `toml:"max_depth"`
	Tolerance      float64 `toml:"tolerance"`
	MaxIterations  int     `toml:"max_iterations"`
	RemovalCost    float64 `toml:"removal_cost"`
	Mode           string  `toml:"mode"`
	ScoreThreshold float64 `toml:"score_threshold"`
	TopK           int     `toml:"top_k"`
	ReinsertLimit  float64 `toml:"reinsert_limit"`
	Candidates     int     `toml:"candidates"`
	Seed           int64   `toml:"seed"`
	MinSize        int     `toml:"min_size"`
	EarlyStopAUC   float64 `toml:"early_stop_auc"`
	Threshold      float64 `toml:"threshold"`
	MaxNodes       int     `toml:"max_nodes"`
	Parallelism    int     `toml:"parallelism"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"` // file (default), redis, none
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	// Scope prefixes all cache keys, isolating deployments that share one
	// Redis instance.
	Scope string `toml:"scope"`
}

// ResultsConfig selects the run persistence backend.
type ResultsConfig struct {
	Backend       string `toml:"backend"` // none (default), file, mongo
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LoadConfig reads the TOML config. An explicit path must exist; with an
// empty path the standard locations are searched (./dismantle.toml, then
// $XDG_CONFIG_HOME/dismantle/dismantle.toml) and a missing file yields the
// zero config.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = findConfig()
		if path == "" {
			return &cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// findConfig returns the first existing config file in the search order.
func findConfig() string {
	candidates := []string{"dismantle.toml"}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		candidates = append(candidates, filepath.Join(configHome, appName, "dismantle.toml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", appName, "dismantle.toml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// PipelineOptions converts the engine section into pipeline options.
// Zero-valued fields fall through to the pipeline defaults.
func (c *Config) PipelineOptions() pipeline.Options {
	e := c.Engine
	return pipeline.Options{
		Strategy:       e.Strategy,
		MaxDepth:       e.MaxDepth,
		Tolerance:      e.Tolerance,
		MaxIterations:  e.MaxIterations,
		RemovalCost:    e.RemovalCost,
		Mode:           e.Mode,
		ScoreThreshold: e.ScoreThreshold,
		TopK:           e.TopK,
		ReinsertLimit:  e.ReinsertLimit,
		Candidates:     e.Candidates,
		Seed:           e.Seed,
		MinSize:        e.MinSize,
		EarlyStopAUC:   e.EarlyStopAUC,
		Threshold:      e.Threshold,
		MaxNodes:       e.MaxNodes,
		Parallelism:    e.Parallelism,
	}
}
