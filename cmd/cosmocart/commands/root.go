package commands

import (
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "cosmocart",
	Short: "CosmoCart backend - chat shopping assistant and catalog API",
	Long: `CosmoCart serves the storefront API: a chat endpoint that turns free-text
shopping messages into catalog results, plus products, cart, orders and OTP login.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
