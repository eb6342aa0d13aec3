// Package cmd implements the engage command line interface.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	dataDir   string
	logLevel  string
	logFormat string
	apiURL    string
	runMode   string
	resources string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string
)

var rootCmd = &cobra.Command{
	Use:   "engage",
	Short: "LinkedIn engagement automation runner",
	Long: `engage supervises the LinkedIn commenting automation subprocess:
it stages run configuration, verifies the subscription and browser
prerequisites, launches the automation runtime, and reports results.

Typical usage is through the desktop app, which drives 'engage serve'
over a local HTTP API. 'engage run' executes a single run from a
config file for development and debugging.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: <data-dir>/cli.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"application data directory (default: OS config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "https://api.engage.app",
		"subscription API base URL")
	rootCmd.PersistentFlags().StringVar(&runMode, "mode", "bundled",
		"automation runtime mode (bundled, script)")
	rootCmd.PersistentFlags().StringVar(&resources, "resources", "",
		"packaged resources directory (bundled mode)")

	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("resources", rootCmd.PersistentFlags().Lookup("resources"))
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cli")
		viper.SetConfigType("yaml")
		if dataDir != "" {
			viper.AddConfigPath(dataDir)
		}
		viper.AddConfigPath("$HOME/.config/engage")
	}

	viper.SetEnvPrefix("ENGAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	return nil
}
