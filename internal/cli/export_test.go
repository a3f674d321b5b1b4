package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dismantle/pkg/dismantle"
	"github.com/matzehuels/dismantle/pkg/errors"
	"github.com/matzehuels/dismantle/pkg/export"
)

// writeExportFixture lays out a path graph and a matching result file.
func writeExportFixture(t *testing.T, dir string) (graphPath, resultPath string) {
	t.Helper()
	graphPath = filepath.Join(dir, "graph.txt")
	if err := os.WriteFile(graphPath, []byte("0 1\n1 2\n2 3\n"), 0644); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	data, err := json.Marshal(dismantle.Result{Sequence: []int{1, 2}})
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	resultPath = filepath.Join(dir, "result.json")
	if err := os.WriteFile(resultPath, data, 0644); err != nil {
		t.Fatalf("write result: %v", err)
	}
	return graphPath, resultPath
}

func TestRunExport_WritesDOT(t *testing.T) {
	dir := t.TempDir()
	graphPath, resultPath := writeExportFixture(t, dir)
	output := filepath.Join(dir, "out.dot")

	c := &CLI{Logger: log.NewWithOptions(io.Discard, log.Options{})}
	err := c.runExport(context.Background(), graphPath, resultPath, output, "dot", export.Options{Prefix: 1})
	if err != nil {
		t.Fatalf("runExport() error = %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("output file is empty")
	}
}

func TestRunExport_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	graphPath, resultPath := writeExportFixture(t, dir)

	c := &CLI{Logger: log.NewWithOptions(io.Discard, log.Options{})}
	err := c.runExport(context.Background(), graphPath, resultPath, "", "png", export.Options{})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Fatalf("error = %v, want UNSUPPORTED", err)
	}
}
