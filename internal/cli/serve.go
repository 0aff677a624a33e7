package cli

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/frontdesk/internal/gateway"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the receptionist gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			// the config file may ask for JSON output or a log file
			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			format := "console"
			if strings.EqualFold(cfg.Logging.ConsoleStyle, "json") {
				format = "json"
			}
			root, closer, err := logging.Open(logging.Options{Level: level, Format: format, File: paths.LogPath(cfg.Logging)})
			if err != nil {
				return err
			}
			defer closer.Close()

			a, err := buildApp(cfg, paths.StorePath(cfg.Store), root)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.sweeper.Start()

			opts := []gateway.ServerOption{}
			if a.metrics != nil {
				opts = append(opts, gateway.WithMetrics(a.metrics))
			}
			srv := gateway.New(cfg, a.engine, root, opts...)

			root.Info().
				Str("business", a.catalog.Business).
				Int("services", len(a.catalog.Active())).
				Str("store", paths.StorePath(cfg.Store)).
				Msg("receptionist ready")

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
