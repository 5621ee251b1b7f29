package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-scannergen/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and HTML preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.Config.Server.Addr
			}
			srv, err := server.New(ctx, a.Service, server.Config{
				CORSOrigins: a.Config.Server.CORSOrigins,
				Mode:        a.Config.Server.Mode,
				Logger:      a.Log.With("component", "http"),
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}
