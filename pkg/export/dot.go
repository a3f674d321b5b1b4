package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dismantle/pkg/graph"
)

// Options configures graph snapshot rendering.
type Options struct {
	// Prefix renders the state after removing the first Prefix nodes of the
	// sequence. Negative means the whole sequence.
	Prefix int

	// HideRemoved drops removed nodes entirely instead of greying them out.
	HideRemoved bool
}

// ToDOT converts a graph and a removal prefix to Graphviz DOT. Removed nodes
// are drawn dashed and grey (or omitted with Options.HideRemoved); edges with
// a removed endpoint are dashed.
func ToDOT(g *graph.Graph, seq []int, opts Options) string {
	removed := make([]bool, g.NodeCount())
	prefix := opts.Prefix
	if prefix < 0 || prefix > len(seq) {
		prefix = len(seq)
	}
	for _, u := range seq[:prefix] {
		removed[u] = true
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for u := 0; u < g.NodeCount(); u++ {
		if removed[u] {
			if opts.HideRemoved {
				continue
			}
			fmt.Fprintf(&buf, "  %d [style=\"filled,dashed\", fillcolor=lightgrey, fontcolor=grey];\n", u)
			continue
		}
		fmt.Fprintf(&buf, "  %d;\n", u)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if removed[e.U] || removed[e.V] {
			if opts.HideRemoved {
				continue
			}
			fmt.Fprintf(&buf, "  %d -- %d [style=dashed, color=grey];\n", e.U, e.V)
			continue
		}
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.U, e.V)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
