package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/engage/internal/appdir"
	"github.com/hugo-lorenzo-mato/engage/internal/entitlement"
)

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token",
	Long: `Store the access token obtained from the engage web app.
The token is verified against the subscription API before it is saved.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringVar(&loginToken, "token", "", "access token")
	_ = loginCmd.MarkFlagRequired("token")
}

func runLogin(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	dirs, err := appdir.Resolve(viper.GetString("data_dir"))
	if err != nil {
		return fmt.Errorf("resolving app directories: %w", err)
	}

	tokens := entitlement.NewFileTokenStore(dirs.Data)
	if err := tokens.Save(loginToken); err != nil {
		return err
	}

	// Verify before declaring success; clear the token if it is bad.
	gate := entitlement.NewGate(viper.GetString("api_url"), tokens, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := gate.Check(ctx)
	if err != nil {
		_ = tokens.Clear()
		return err
	}

	fmt.Printf("logged in as %s\n", user.Email)
	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	dirs, err := appdir.Resolve(viper.GetString("data_dir"))
	if err != nil {
		return fmt.Errorf("resolving app directories: %w", err)
	}

	if err := entitlement.NewFileTokenStore(dirs.Data).Clear(); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}
