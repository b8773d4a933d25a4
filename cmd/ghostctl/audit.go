package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Unknown-086/GhostSwitch/pkg/audit"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read persisted audit messages",
	Long: `Read audit messages persisted to GHOSTSWITCH_AUDIT_DATABASE_URL.

Example:
  ghostctl audit --limit 20
  ghostctl audit --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		output, _ := cmd.Flags().GetString("output")

		store, err := audit.NewStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open audit database: %v\n", err)
			os.Exit(1)
		}
		if store == nil {
			fmt.Fprintln(os.Stderr, "GHOSTSWITCH_AUDIT_DATABASE_URL is not set")
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		messages, err := store.Recent(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read audit messages: %v\n", err)
			os.Exit(1)
		}

		if output == "json" {
			out, _ := json.MarshalIndent(messages, "", "  ")
			fmt.Println(string(out))
			return
		}
		for _, m := range messages {
			fmt.Printf("%s %-10s %s\n", m.Timestamp.Format("2006-01-02T15:04:05Z07:00"), m.Msgid, m.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntP("limit", "n", 50, "Number of messages to show")
	auditCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}
