package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
)

var statusServerURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current automation state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusServerURL, "server", "http://localhost:7070",
		"address of the engage serve instance")
}

func runStatus(_ *cobra.Command, _ []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(statusServerURL + "/api/v1/automation/status")
	if err != nil {
		return fmt.Errorf("reaching engage serve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request failed with status %d", resp.StatusCode)
	}

	var status core.RunStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding status: %w", err)
	}

	if !status.Running {
		fmt.Println("idle")
		return nil
	}
	fmt.Printf("running: run %s (pid %d) since %s\n",
		status.RunID, status.PID, status.StartedAt.Format(time.RFC3339))
	return nil
}
