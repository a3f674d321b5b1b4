// Package cache provides pluggable result caching for dismantling runs.
// Backends share one byte-oriented interface; keys are derived from the
// graph content hash and the full option fingerprint, so a cached result is
// only ever served for an identical run.
package cache

import (
	"context"
	"time"
)

// Standard TTLs per entry kind. Graphs are content-addressed and never go
// stale; results are kept shorter so strategy changes roll over naturally.
const (
	GraphTTL  = 30 * 24 * time.Hour
	ResultTTL = 7 * 24 * time.Hour
)

// Cache is the backend interface. Get reports (data, hit, error); a miss is
// not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ResultKeyOpts is the option fingerprint baked into result keys. Every
// field that can change the removal sequence must appear here.
type ResultKeyOpts struct {
	Strategy       string  `json:"strategy"`
	MaxDepth       int     `json:"max_depth"`
	Tolerance      float64 `json:"tolerance"`
	MaxIterations  int     `json:"max_iterations"`
	RemovalCost    float64 `json:"removal_cost"`
	Mode           string  `json:"mode"`
	ScoreThreshold float64 `json:"score_threshold"`
	TopK           int     `json:"top_k"`
	Candidates     int     `json:"candidates"`
	Seed           int64   `json:"seed"`
	MinSize        int     `json:"min_size"`
	EarlyStopAUC   float64 `json:"early_stop_auc"`
	ReinsertLimit  float64 `json:"reinsert_limit"`
	Threshold      float64 `json:"threshold"`
}

// Keyer generates cache keys. Implementations must be deterministic.
type Keyer interface {
	// GraphKey addresses a parsed graph by its content hash.
	GraphKey(graphHash string) string
	// ResultKey addresses a dismantling result by graph content and the
	// full option fingerprint.
	ResultKey(graphHash string, opts ResultKeyOpts) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey returns "graph:<hash>".
func (k *DefaultKeyer) GraphKey(graphHash string) string {
	return "graph:" + graphHash
}

// ResultKey returns "result:<sha256(graphHash, opts)>".
func (k *DefaultKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return hashKey("result", graphHash, opts)
}
