package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/engage/internal/browser"
	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/supervisor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check automation prerequisites",
	Long:  "Verify that the browser, runtime, and data directories are in place.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	defer application.Close()

	fmt.Println("Checking prerequisites...")
	fmt.Println()

	allOk := true

	// Chrome
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if browser.NewProbe(application.logger).Available(ctx) {
		fmt.Println("  ✓ Google Chrome")
	} else {
		fmt.Println("  ✗ Google Chrome not found")
		allOk = false
	}

	// Automation runtime for the configured mode
	spec := launchSpec()
	if path, err := supervisor.ResolveRuntime(spec); err != nil {
		fmt.Printf("  ✗ automation runtime (%s mode): %s\n", spec.Mode, core.GetCode(err))
		allOk = false
	} else {
		fmt.Printf("  ✓ automation runtime: %s\n", path)
	}

	// Script mode additionally needs a Python interpreter on PATH
	if spec.Mode == core.RunModeScript {
		interpreter := "python3"
		if runtime.GOOS == "windows" {
			interpreter = "python"
		}
		if _, err := exec.LookPath(interpreter); err != nil {
			fmt.Printf("  ✗ %s not found on PATH\n", interpreter)
			allOk = false
		} else {
			fmt.Printf("  ✓ %s\n", interpreter)
		}
	}

	// Login state
	token, err := application.tokens.AccessToken()
	switch {
	case err != nil:
		fmt.Printf("  ✗ token store: %v\n", err)
		allOk = false
	case token == "":
		fmt.Println("  ○ not logged in (optional, required to run)")
	default:
		fmt.Println("  ✓ logged in")
	}

	fmt.Println()
	if !allOk {
		return fmt.Errorf("prerequisite check failed")
	}
	fmt.Println("All prerequisites available")
	return nil
}
