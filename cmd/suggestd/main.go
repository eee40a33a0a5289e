package main

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	serviceName = "suggestd"
	appVersion  = "0.1.0"
)

var (
	configPath string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Queued code suggestion service",
		Long: `suggestd accepts code snippets from authenticated WebSocket clients, queues them
one request per client, and forwards them one at a time to the suggestion service.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default ./suggestd.yaml)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAdminCmd())

	return cmd
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
