package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/redline-go/internal/infrastructure/http"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		analyzer, err := newAnalyzer()
		if err != nil {
			return err
		}
		defer analyzer.Drain()

		server, err := http.NewServer(analyzer, http.Options{
			Addr:           cfg.Server.Addr,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		logger.Info("open the dashboard", zap.String("url", "http://"+displayAddr(cfg.Server.Addr)))
		return server.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
