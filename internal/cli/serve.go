package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kvtools/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry over HTTP",
		Long: `Serve the registry endpoints used by the node-graph frontend.

The registry is scanned and published once at startup and again on every
POST /registry/refresh. The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.registryConfig()
			if err != nil {
				return err
			}
			pub, closePub, err := c.publisher(ctx, cfg)
			if err != nil {
				return err
			}
			defer closePub()

			s := c.settings()
			logger.Debug("configuration", "settings", s.describe())
			printInfo("Serving %s on %s", StyleHighlight.Render(cfg.RootDir), StyleLink.Render("http://"+s.Addr))

			srv := server.New(server.Config{Addr: s.Addr}, cfg, pub, logger)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().String(keyAddr, server.DefaultAddr, "listen address")
	_ = c.v.BindPFlag(keyAddr, cmd.Flags().Lookup(keyAddr))
	return cmd
}
