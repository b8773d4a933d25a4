package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Unknown-086/GhostSwitch/pkg/config"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show configuration attributes and their sources.

The values displayed reflect the current state of the configuration file
and environment, which may differ from what a running server loaded. The
token secret is never printed.

Config file location: /etc/ghostswitch/ghostswitch.yml (or GHOSTSWITCH_CONFIG_PATH)

Example:
  ghostctl configuration show
  ghostctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

var configurationValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without starting the server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err == nil {
			err = cfg.Validate()
		}
		var summary string
		if err == nil {
			summary, err = describePool(cfg)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration is invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Configuration is valid")
		fmt.Println(summary)
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationCmd.AddCommand(configurationValidateCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(output string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if output == "json" {
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
		return nil
	}

	fmt.Print(cfg.FormatText())
	return nil
}

// describePool summarizes the address range new peers are drawn from.
func describePool(cfg *config.GhostConfig) (string, error) {
	pool, err := tunnel.NewPool(cfg.PoolNetwork, cfg.PoolFirst, cfg.PoolLast)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Address pool: %s - %s in %s (%d addresses)",
		cfg.PoolFirst, cfg.PoolLast, cfg.PoolNetwork, pool.Size()), nil
}
