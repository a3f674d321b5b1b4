package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dismantle/internal/server"
)

// serveCommand creates the serve command exposing the engine over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dismantling engine over HTTP",
		Long: `Serve the dismantling engine over HTTP.

Exposes POST /api/dismantle (edge list + parameters in, result out),
GET /api/runs when a results store is configured, and GET /healthz.
The server shares the same cache and results configuration as the CLI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if addr == "" {
				addr = ":8080"
			}

			runner, err := c.newRunner(ctx, cfg.Cache, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			store, err := newStore(ctx, cfg.Results)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close(ctx)
			}

			srv := server.New(runner, store, cfg.PipelineOptions(), c.Logger)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to dismantle.toml (default: search standard locations)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}
