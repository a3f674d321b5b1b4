// Package results persists dismantling run records so benchmark campaigns
// can be collected and compared after the fact. Two backends are provided:
// a JSONL file store for CLI usage and a MongoDB store for server
// deployments.
package results

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/dismantle/pkg/dismantle"
)

// Run is one persisted dismantling run.
type Run struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	// GraphHash is the content hash of the input graph.
	GraphHash string `json:"graph_hash" bson:"graph_hash"`
	// Source names where the graph came from (file path, URL, upload).
	Source string `json:"source,omitempty" bson:"source,omitempty"`
	Nodes  int    `json:"nodes" bson:"nodes"`
	Edges  int    `json:"edges" bson:"edges"`

	Result *dismantle.Result `json:"result" bson:"result"`
}

// NewRun creates a run record with a fresh identifier and timestamp.
func NewRun(graphHash, source string, nodes, edges int, result *dismantle.Result) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		GraphHash: graphHash,
		Source:    source,
		Nodes:     nodes,
		Edges:     edges,
		Result:    result,
	}
}

// Store is the interface for run persistence backends.
type Store interface {
	// Save persists a run record.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. Returns NOT_FOUND if no such run exists.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns runs for a graph hash, newest first. An empty hash
	// lists all runs. limit <= 0 means no limit.
	List(ctx context.Context, graphHash string, limit int) ([]*Run, error)

	Close(ctx context.Context) error
}
