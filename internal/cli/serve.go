package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/logger"
	"github.com/roach88/slideboard/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and change feed",
		Long: `Serve the HTTP API and change feed.

The server exposes presentations, folders, templates, previews and the
chat relay under /api, a websocket change feed on /ws and Prometheus
metrics on /metrics. Canvas edits are debounced before they are stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			srv := server.New(server.Deps{
				Store:    app.Store,
				Canvas:   engine.NewCanvasSync(app.Store, app.Config.Debounce()),
				Previews: app.Previews,
				Chat:     newChatClient(app.Config),
				Metrics:  app.Metrics,
				Log:      logger.For(app.Log, logger.ComponentServer),
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
