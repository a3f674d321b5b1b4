package graph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/dismantle/pkg/errors"
)

// EdgeList is the canonical serialization format for input graphs.
// Used for files, API requests, caching, and the results store.
type EdgeList struct {
	Nodes int    `json:"nodes,omitempty" bson:"nodes,omitempty"` // optional node-count hint
	Edges []Edge `json:"edges" bson:"edges"`
}

// Build constructs a Graph from the edge list, honoring the node-count hint.
func (el EdgeList) Build() (*Graph, error) {
	if el.Nodes > 0 {
		return Build(el.Edges, WithNodeCount(el.Nodes))
	}
	return Build(el.Edges)
}

// MarshalGraph converts a Graph to JSON bytes in EdgeList form.
// The edge list is canonical (U < V, sorted) for deterministic output.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a Graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	out := EdgeList{Nodes: g.NodeCount(), Edges: g.Edges()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraphFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes a JSON EdgeList from an io.Reader and builds the Graph.
func ReadGraph(r io.Reader) (*Graph, error) {
	var el EdgeList
	if err := json.NewDecoder(r).Decode(&el); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode edge list")
	}
	return el.Build()
}

// ReadGraphFile reads a graph from a file, dispatching on content: files
// starting with '{' are parsed as JSON EdgeList, anything else as a
// whitespace-separated text edge list (one "u v" pair per line, '#' comments).
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	first, err := br.Peek(1)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	if first[0] == '{' {
		return ReadGraph(br)
	}
	edges, err := ParseEdgeList(br)
	if err != nil {
		return nil, err
	}
	return Build(edges)
}

// ParseEdgeList reads a text edge list: two integer identifiers per line,
// separated by whitespace. Blank lines and lines starting with '#' or '%'
// are skipped (both comment styles appear in common network datasets).
func ParseEdgeList(r io.Reader) ([]Edge, error) {
	var edges []Edge
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "%") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: expected two identifiers, got %q", line, text)
		}
		u, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: bad identifier %q", line, fields[0])
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: bad identifier %q", line, fields[1])
		}
		edges = append(edges, Edge{U: u, V: v})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "scan edge list")
	}
	return edges, nil
}
