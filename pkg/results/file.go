package results

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/dismantle/pkg/errors"
)

// FileStore appends runs to a JSONL file, one record per line. It is meant
// for CLI usage where runs accumulate locally and get inspected with
// standard line tooling.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a JSONL-backed store at path. Parent directories are
// created if needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

// Save appends the run as one JSON line.
func (s *FileStore) Save(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Get scans the file for the run with the given ID.
func (s *FileStore) Get(ctx context.Context, id string) (*Run, error) {
	runs, err := s.scan(func(r *Run) bool { return r.ID == id })
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	return runs[0], nil
}

// List returns runs matching the graph hash, newest first.
func (s *FileStore) List(ctx context.Context, graphHash string, limit int) ([]*Run, error) {
	runs, err := s.scan(func(r *Run) bool {
		return graphHash == "" || r.GraphHash == graphHash
	})
	if err != nil {
		return nil, err
	}

	// The file is append-ordered; reverse for newest first.
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

func (s *FileStore) scan(keep func(*Run) bool) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var runs []*Run
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			// Skip corrupt lines rather than failing the whole scan.
			continue
		}
		if keep(&run) {
			runs = append(runs, &run)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
