package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"relay/internal/config"
	"relay/internal/llm"
	"relay/internal/workersai"

	"github.com/spf13/cobra"
)

var model string

var Cmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message and stream the reply to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if model != "" {
			cfg.Backend.Model = model
		}

		baseURL, err := cfg.ResolveBaseURL()
		if err != nil {
			return err
		}

		client := workersai.NewClient(baseURL, cfg.Backend.Token)
		provider := workersai.NewProvider(client, cfg.Backend.Model)

		stream, err := provider.Stream(ctx, llm.CallOptions{
			Messages: []llm.Message{llm.UserMessage(strings.Join(args, " "))},
		})
		if err != nil {
			return err
		}
		defer stream.Close()

		for stream.Next() {
			ev := stream.Current()
			switch ev.Type {
			case llm.EventTextDelta:
				fmt.Fprint(os.Stdout, ev.Text)
			case llm.EventFinish:
				fmt.Fprintln(os.Stdout)
				if ev.Usage != nil {
					slog.Debug("call finished",
						"reason", ev.FinishReason,
						"input_tokens", ev.Usage.InputTokens,
						"output_tokens", ev.Usage.OutputTokens,
					)
				}
			}
		}
		return stream.Err()
	},
}

func init() {
	Cmd.Flags().StringVarP(&model, "model", "m", "", "override the configured model")
}
