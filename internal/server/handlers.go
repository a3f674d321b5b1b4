package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/dismantle/pkg/dismantle"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/graph"
	"github.com/matzehuels/dismantle/pkg/pipeline"
	"github.com/matzehuels/dismantle/pkg/results"
)

// dismantleRequest is the POST /api/dismantle body. Either graph or
// graph_hash must be set; the hash references a graph from an earlier run
// still held by the cache, so re-running with different options does not
// require resending the edge list.
type dismantleRequest struct {
	Graph     graph.EdgeList    `json:"graph"`
	GraphHash string            `json:"graph_hash,omitempty"`
	Options   *pipeline.Options `json:"options,omitempty"`

	// Save persists the run when a results store is configured.
	Save bool `json:"save,omitempty"`
	// Source is an optional label recorded with a saved run.
	Source string `json:"source,omitempty"`
}

// dismantleResponse is the POST /api/dismantle reply.
type dismantleResponse struct {
	Result    *dismantle.Result `json:"result"`
	GraphHash string            `json:"graph_hash"`
	CacheHit  bool              `json:"cache_hit"`
	RunID     string            `json:"run_id,omitempty"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDismantle runs a strategy on the posted edge list.
func (s *Server) handleDismantle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req dismantleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	var g *graph.Graph
	var err error
	if len(req.Graph.Edges) == 0 && req.GraphHash != "" {
		g, err = s.runner.LoadGraph(r.Context(), req.GraphHash)
	} else {
		g, err = req.Graph.Build()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.defaults
	if req.Options != nil {
		opts = mergeOptions(s.defaults, *req.Options)
	}
	opts.Logger = s.logger

	run, err := s.runner.Execute(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := dismantleResponse{
		Result:    run.Result,
		GraphHash: run.GraphHash,
		CacheHit:  run.CacheHit,
	}

	if req.Save && s.store != nil {
		rec := results.NewRun(run.GraphHash, req.Source, g.NodeCount(), g.EdgeCount(), run.Result)
		if err := s.store.Save(r.Context(), rec); err != nil {
			s.logger.Error("save run failed", "err", err)
		} else {
			resp.RunID = rec.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListRuns lists persisted runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "bad limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.store.List(r.Context(), r.URL.Query().Get("graph"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*results.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun fetches one persisted run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// mergeOptions overlays request options on the server defaults: any field
// the client set (non-zero) wins.
func mergeOptions(base, req pipeline.Options) pipeline.Options {
	out := base
	if req.Strategy != "" {
		out.Strategy = req.Strategy
	}
	if req.MaxDepth != 0 {
		out.MaxDepth = req.MaxDepth
	}
	if req.Tolerance != 0 {
		out.Tolerance = req.Tolerance
	}
	if req.MaxIterations != 0 {
		out.MaxIterations = req.MaxIterations
	}
	if req.RemovalCost != 0 {
		out.RemovalCost = req.RemovalCost
	}
	if req.Mode != "" {
		out.Mode = req.Mode
	}
	if req.ScoreThreshold != 0 {
		out.ScoreThreshold = req.ScoreThreshold
	}
	if req.TopK != 0 {
		out.TopK = req.TopK
	}
	if req.ReinsertLimit != 0 {
		out.ReinsertLimit = req.ReinsertLimit
	}
	if req.Candidates != 0 {
		out.Candidates = req.Candidates
	}
	if req.Seed != 0 {
		out.Seed = req.Seed
	}
	if req.MinSize != 0 {
		out.MinSize = req.MinSize
	}
	if req.EarlyStopAUC != 0 {
		out.EarlyStopAUC = req.EarlyStopAUC
	}
	if req.Threshold != 0 {
		out.Threshold = req.Threshold
	}
	if req.MaxNodes != 0 {
		out.MaxNodes = req.MaxNodes
	}
	if req.Parallelism != 0 {
		out.Parallelism = req.Parallelism
	}
	out.Refresh = req.Refresh
	return out
}
