package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quickedit/internal/server"
)

func newServeCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline over HTTP (server-sent events and websocket)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(open, cmd, func(app Application) error {
				ctx, cancel := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()
				return server.New(app.Edits(), app.Log()).ListenAndServe(ctx, app.Config().Server.Addr)
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	return cmd
}
