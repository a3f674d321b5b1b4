package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resultsCommand creates the results command group for the run store.
func (c *CLI) resultsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect persisted runs",
	}

	cmd.AddCommand(c.resultsListCommand())
	cmd.AddCommand(c.resultsShowCommand())

	return cmd
}

// resultsListCommand creates the "results list" subcommand.
func (c *CLI) resultsListCommand() *cobra.Command {
	var (
		configPath string
		graphHash  string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := newStore(ctx, cfg.Results)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no results backend configured (set [results] in dismantle.toml)")
			}
			defer store.Close(ctx)

			runs, err := store.List(ctx, graphHash, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, r := range runs {
				fmt.Printf("%s  %s  %-9s nodes=%-8d auc=%.4f\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Result.Strategy, r.Nodes, r.Result.AUC)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to dismantle.toml")
	cmd.Flags().StringVar(&graphHash, "graph", "", "filter by graph content hash")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")

	return cmd
}

// resultsShowCommand creates the "results show" subcommand.
func (c *CLI) resultsShowCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print one persisted run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := newStore(ctx, cfg.Results)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no results backend configured (set [results] in dismantle.toml)")
			}
			defer store.Close(ctx)

			run, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to dismantle.toml")

	return cmd
}
