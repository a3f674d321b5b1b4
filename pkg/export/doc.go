// Package export converts dismantling results into external formats.
//
// Two families of output are supported:
//
//   - Curve data as CSV ([WriteCurveCSV]): one row per removal step with the
//     giant and second-largest component sizes, ready for plotting or
//     spreadsheet analysis.
//   - Graph snapshots as Graphviz DOT ([ToDOT]) and rendered SVG
//     ([RenderSVG]): the residual graph after a removal prefix, with removed
//     nodes greyed out. Useful to eyeball what a strategy attacked first.
package export
