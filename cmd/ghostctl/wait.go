package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the GhostSwitch server to be ready",
	Long: `Wait for the GhostSwitch server to be ready by polling /api/health.

The server is ready once the health endpoint reports its database as
connected. A server that answers with "disconnected" keeps being polled.

Example:
  ghostctl wait
  ghostctl wait --host 10.0.0.1 --port 3000 --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetInt("retries")

		url := fmt.Sprintf("http://%s:%d/api/health", host, port)
		if err := waitForHealthy(url, retries, time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("GhostSwitch server is ready")
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().String("host", "localhost", "Server host to check")
	waitCmd.Flags().IntP("port", "p", defaultPortInt(), "Server port to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

type healthReport struct {
	Success  bool   `json:"success"`
	Database string `json:"database"`
}

// waitForHealthy polls url every interval until it reports a connected
// database, giving up after retries attempts. The last observed state is
// included in the error.
func waitForHealthy(url string, retries int, interval time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	last := "no response"

	fmt.Println("Waiting for GhostSwitch to be ready...")

	for i := 0; i < retries; i++ {
		resp, err := client.Get(url)
		if err == nil {
			var report healthReport
			decodeErr := json.NewDecoder(resp.Body).Decode(&report)
			_ = resp.Body.Close()

			switch {
			case decodeErr != nil:
				last = fmt.Sprintf("unreadable health response (status %d)", resp.StatusCode)
			case report.Success && report.Database == "connected":
				fmt.Println()
				return nil
			default:
				last = "database " + report.Database
			}
		} else {
			last = err.Error()
		}

		fmt.Print(".")
		time.Sleep(interval)
	}

	fmt.Println()
	return fmt.Errorf("not ready after %d attempts: %s", retries, last)
}
