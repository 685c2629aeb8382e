package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"relay/internal/config"
	"relay/internal/gateway"
	"relay/internal/trace"
	"relay/internal/workersai"

	"github.com/spf13/cobra"
)

var addr string

var Cmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if addr != "" {
			cfg.Gateway.Addr = addr
		}

		if cfg.Trace.Endpoint != "" {
			shutdown, err := trace.Init(ctx, trace.Config{
				Endpoint: cfg.Trace.Endpoint,
				URLPath:  cfg.Trace.URLPath,
				APIKey:   cfg.Trace.APIKey,
			})
			if err != nil {
				return fmt.Errorf("initializing tracing: %w", err)
			}
			defer shutdown(context.Background())
		}

		baseURL, err := cfg.ResolveBaseURL()
		if err != nil {
			return err
		}

		client := workersai.NewClient(baseURL, cfg.Backend.Token)
		provider := workersai.NewProvider(client, cfg.Backend.Model)

		srv := gateway.NewServer(provider)
		slog.Info("starting gateway", "addr", cfg.Gateway.Addr, "model", cfg.Backend.Model)
		return srv.ListenAndServe(ctx, cfg.Gateway.Addr)
	},
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "override gateway listen address")
}
