package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/server"
)

// NewServeCmd creates the "serve" command running the HTTP API until
// interrupted.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve estimation sessions and the catalog lookup over HTTP",
		Long: `Starts the HTTP API. Sessions are held in memory and evicted after
server.session_idle_minutes without use. When the catalog is local, the
lookup is also served on /v1/lookup for remote clients.`,
		Example: `  boqlca serve --addr :8080 --catalog materials.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			opts, err := serverOptions(cfg)
			if err != nil {
				return err
			}
			opts.Catalog = b.Provider
			opts.Logger = logging.ComponentLogger(*logging.FromContext(ctx), "server")

			cmd.PrintErrf("Serving on %s\n", cfg.Server.Addr)
			return server.New(b.Lookup, opts).Run(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultServerAddr, "Listen address")

	return cmd
}

// serverOptions maps configuration to server options.
func serverOptions(cfg *config.Config) (server.Options, error) {
	delim, err := config.ParseDelimiter(cfg.Input.Delimiter)
	if err != nil {
		return server.Options{}, err
	}
	exp, err := exportOptions(cfg, false)
	if err != nil {
		return server.Options{}, err
	}
	return server.Options{
		Mapping:        cfg.Input.Mapping,
		InputDelimiter: delim,
		Export:         exp,
		MaxSessions:    cfg.Server.MaxSessions,
		IdleTimeout:    time.Duration(cfg.Server.SessionIdleMins) * time.Minute,
		KgPerM3:        cfg.Reinforcement.KgPerM3,
		SessionOptions: sessionOptions(cfg),
	}, nil
}
