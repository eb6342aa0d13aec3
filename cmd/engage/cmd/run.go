package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/events"
)

var (
	runConfigPath string
	runUseSaved   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one automation run",
	Long: `Execute one automation run and block until it finishes.

The run configuration is read from a JSON file (--file) or from the
saved configuration written by a previous run with "remember" set
(--saved). Progress lines from the automation subprocess are printed
as they arrive. Ctrl+C stops the run cleanly.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "file", "f", "",
		"run configuration JSON file")
	runCmd.Flags().BoolVar(&runUseSaved, "saved", false,
		"use the saved configuration from the last remembered run")
}

func runRun(_ *cobra.Command, _ []string) error {
	application, err := buildApp()
	if err != nil {
		return err
	}
	defer application.Close()

	cfg, err := loadRunConfig(application)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Forward subprocess progress to the console.
	progress := application.bus.Subscribe(events.TypeRunProgress)
	go func() {
		for ev := range progress {
			if p, ok := ev.(events.RunProgressEvent); ok {
				fmt.Println(p.Line)
			}
		}
	}()

	// Ctrl+C stops the subprocess rather than abandoning it.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "stopping automation...")
		if _, err := application.manager.Stop(ctx); err != nil {
			application.logger.Error("stop failed", "error", err)
		}
	}()

	result, err := application.manager.Run(ctx, cfg)
	if err != nil {
		if result != nil {
			printResult(result)
		}
		return err
	}

	printResult(result)
	return nil
}

func loadRunConfig(application *app) (core.RunConfig, error) {
	var cfg core.RunConfig

	switch {
	case runConfigPath != "":
		data, err := os.ReadFile(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("reading run config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing run config: %w", err)
		}
		return cfg, nil

	case runUseSaved:
		saved, err := application.manager.LoadPersistentConfig()
		if err != nil {
			return cfg, fmt.Errorf("loading saved config: %w", err)
		}
		if saved == nil {
			return cfg, fmt.Errorf("no saved configuration, run with --file first")
		}
		if saved.Credentials != nil {
			cfg.Credentials = *saved.Credentials
		}
		cfg.Bio = saved.Bio
		cfg.JobKeywords = saved.JobKeywords
		cfg.CalendlyLink = saved.CalendlyLink
		cfg.Limits = saved.Limits
		cfg.Timing = saved.Timing
		return cfg, nil

	default:
		return cfg, fmt.Errorf("either --file or --saved is required")
	}
}

func printResult(result *core.RunResult) {
	if result.Outcome.Success {
		fmt.Printf("run %s completed in %s\n", result.RunID, result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
		return
	}
	if result.Outcome.Stopped {
		fmt.Printf("run %s stopped: %s\n", result.RunID, result.Outcome.Message)
		return
	}
	fmt.Printf("run %s failed (exit %d): %s\n", result.RunID, result.Outcome.ExitCode, result.Outcome.Message)
}
