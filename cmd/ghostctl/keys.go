package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Unknown-086/GhostSwitch/pkg/config"
	"github.com/Unknown-086/GhostSwitch/pkg/tunnel"
)

// keysCmd represents the keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate tunnel key material",
	Long:  `Generate tunnel key material.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'keys' requires a subcommand (generate)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// keysGenerateCmd represents the keys generate command
var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a fresh private, public and pre-shared key",
	Long: `Print a fresh private, public and pre-shared key.

The configured wg binary is used when it is installed; otherwise the keys
are generated natively. Useful for creating the server's own key pair.

Example:
  ghostctl keys generate
  ghostctl keys generate --output json --native`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		native, _ := cmd.Flags().GetBool("native")

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		var runner tunnel.Runner
		if !native && tunnel.Available(cfg.WGBinary) {
			runner = &tunnel.ExecRunner{Timeout: cfg.CommandDeadline()}
		}

		keys, err := tunnel.NewKeyGenerator(runner, cfg.WGBinary).Generate(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate keys: %v\n", err)
			os.Exit(1)
		}

		if output == "json" {
			out, _ := json.MarshalIndent(map[string]string{
				"private_key":   keys.PrivateKey,
				"public_key":    keys.PublicKey,
				"preshared_key": keys.PresharedKey,
			}, "", "  ")
			fmt.Println(string(out))
			return
		}

		fmt.Printf("PrivateKey = %s\n", keys.PrivateKey)
		fmt.Printf("PublicKey = %s\n", keys.PublicKey)
		fmt.Printf("PresharedKey = %s\n", keys.PresharedKey)
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)
	keysGenerateCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	keysGenerateCmd.Flags().Bool("native", false, "skip the wg binary")
}
