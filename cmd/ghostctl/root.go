package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ghostctl",
	Short: "GhostSwitch tunnel provisioning server",
	Long: `ghostctl runs and administers the GhostSwitch provisioning server: the
HTTP API that registers users, issues bearer tokens and hands each user a
WireGuard client configuration.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
