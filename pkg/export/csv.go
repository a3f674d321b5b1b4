package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dismantle/pkg/dismantle"
)

// WriteCurveCSV writes the removal curve as CSV: one row per removal step
// with the node identifier, the strategy's score, the resulting giant and
// second-largest component sizes, and the running AUC.
func WriteCurveCSV(w io.Writer, res *dismantle.Result, n int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "node", "score", "giant", "second", "auc"}); err != nil {
		return err
	}

	auc := 0.0
	for _, r := range res.Removals {
		if n > 0 {
			auc += float64(r.Giant) / float64(n)
		}
		row := []string{
			fmt.Sprintf("%d", r.Step),
			fmt.Sprintf("%d", r.Node),
			fmt.Sprintf("%g", r.Score),
			fmt.Sprintf("%d", r.Giant),
			fmt.Sprintf("%d", r.Second),
			fmt.Sprintf("%g", auc),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCurveCSVFile writes the removal curve to a CSV file.
func WriteCurveCSVFile(path string, res *dismantle.Result, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCurveCSV(f, res, n)
}
