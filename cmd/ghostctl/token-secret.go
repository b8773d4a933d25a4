package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// tokenSecretCmd represents the token-secret command
var tokenSecretCmd = &cobra.Command{
	Use:   "token-secret",
	Short: "Manage the bearer token signing secret",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'token-secret' requires a subcommand generate")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// tokenSecretGenerateCmd represents the token-secret generate command
var tokenSecretGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a token signing secret",
	Long: `
Generate a token signing secret

Use this command to generate a new random Base64-encoded secret. Place it in
the environment of the server; every issued token becomes invalid when it
changes.

Example:

$ export GHOSTSWITCH_TOKEN_SECRET="$(ghostctl token-secret generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		size, _ := cmd.Flags().GetInt("bytes")
		if size < 32 {
			fmt.Fprintln(os.Stderr, "a secret needs at least 32 bytes")
			os.Exit(1)
		}

		secret := make([]byte, size)
		if _, err := rand.Read(secret); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read random bytes: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s", base64.StdEncoding.Strict().EncodeToString(secret))
	},
}

func init() {
	rootCmd.AddCommand(tokenSecretCmd)
	tokenSecretCmd.AddCommand(tokenSecretGenerateCmd)
	tokenSecretGenerateCmd.Flags().Int("bytes", 48, "secret length in bytes")
}
