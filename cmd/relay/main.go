package main

import (
	"os"

	"relay/cmd/relay/chat"
	"relay/cmd/relay/gateway"
	"relay/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	godotenv.Load()
	logger.Init()

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay bridges a provider-agnostic chat protocol to Workers AI",
	}

	rootCmd.AddCommand(gateway.Cmd)
	rootCmd.AddCommand(chat.Cmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
