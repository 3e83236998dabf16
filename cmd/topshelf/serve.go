package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pourcost/topshelf/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Long: `Start the HTTP API. Endpoints under /api expose venues, products,
market analysis, and recommendations; /metrics exposes Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			predictor, cleanup, err := buildPredictor()
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := server.DefaultConfig()
			if addr != "" {
				cfg.Addr = addr
			} else if v := viper.GetString("server.addr"); v != "" {
				cfg.Addr = v
			}

			srv := server.New(store, predictor, engineConfig(), cfg)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	return cmd
}
