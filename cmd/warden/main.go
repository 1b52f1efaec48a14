package main

import (
	"os"

	"github.com/spf13/cobra"

	"warden/internal/interfaces/cli/migrate"
	"warden/internal/interfaces/cli/serve"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - community moderation bot",
		Long:  `Warden is a chat-community moderation bot; this binary runs the modmail relay and its migration tools.`,
	}

	rootCmd.AddCommand(
		serve.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
