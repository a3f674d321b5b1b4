package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dismantle/pkg/dismantle"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/export"
	"github.com/matzehuels/dismantle/pkg/graph"
)

// exportCommand creates the export command for rendering graph snapshots.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		resultPath  string
		output      string
		format      string
		prefix      int
		hideRemoved bool
	)

	cmd := &cobra.Command{
		Use:   "export [graph-file]",
		Short: "Render a graph snapshot after a removal prefix",
		Long: `Render a graph snapshot after a removal prefix.

Takes the graph plus a result JSON file (produced by 'run --output') and
renders the residual graph after removing the first --prefix nodes of the
sequence, as Graphviz DOT or rendered SVG. Removed nodes are greyed out
unless --hide-removed is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], resultPath, output, format, export.Options{
				Prefix:      prefix,
				HideRemoved: hideRemoved,
			})
		},
	}

	cmd.Flags().StringVarP(&resultPath, "result", "r", "", "result JSON file from 'run --output' (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg")
	cmd.Flags().IntVarP(&prefix, "prefix", "p", -1, "removal prefix length (-1 = full sequence)")
	cmd.Flags().BoolVar(&hideRemoved, "hide-removed", false, "omit removed nodes instead of greying them out")
	_ = cmd.MarkFlagRequired("result")

	return cmd
}

// runExport loads inputs and writes the rendered snapshot.
func (c *CLI) runExport(ctx context.Context, input, resultPath, output, format string, opts export.Options) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return fmt.Errorf("read result %s: %w", resultPath, err)
	}
	var res dismantle.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("decode result %s: %w", resultPath, err)
	}
	if err := dismantle.ValidateSequence(g, res.Sequence); err != nil {
		return fmt.Errorf("result does not match graph: %w", err)
	}

	dot := export.ToDOT(g, res.Sequence, opts)

	var out []byte
	switch strings.ToLower(format) {
	case "dot":
		out = []byte(dot)
	case "svg":
		out, err = export.RenderSVG(ctx, dot)
		if err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeUnsupported, "format %q not supported (must be one of: dot, svg)", format)
	}

	if output == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(output, out, 0644); err != nil {
		return err
	}
	c.Logger.Info("snapshot written", "file", output, "format", format)
	return nil
}
