package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var stopServerURL string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active automation run",
	Long: `Stop the automation run managed by a running 'engage serve'.
Stopping while no run is active succeeds and does nothing.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().StringVar(&stopServerURL, "server", "http://localhost:7070",
		"address of the engage serve instance")
}

func runStop(_ *cobra.Command, _ []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Post(stopServerURL+"/api/v1/automation/stop", "application/json", nil)
	if err != nil {
		return fmt.Errorf("reaching engage serve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stop failed with status %d", resp.StatusCode)
	}

	fmt.Println("automation stopped")
	return nil
}
