package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factcheck/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fact-check HTTP API",
	Long: `Serve exposes the pipeline over HTTP:
  POST /api/v1/factcheck   {text, context?, knowledge_graph?}
  POST /api/v1/highlight   {article, claims: [{claim, fact_rating}]}
  GET  /api/v1/samples
  GET  /healthz
  GET  /metrics

Example:
  factcheck serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := server.New(func() server.Runner { return a.newPipeline() }, cfg.Server.SamplesDir, a.logger)
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}
