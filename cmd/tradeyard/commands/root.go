package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradeyard",
	Short: "Tradeyard - P2P gift card and crypto marketplace demo",
	Long: `Tradeyard is a single-user marketplace prototype: sellers publish
gift card and crypto listings, buyers fund an escrow that holds the
money until delivery is confirmed, and every movement lands in a wallet
ledger. All state lives in one local JSON document; a simulated remote
backend injects latency and random failures so clients can exercise
their loading and error paths.

This CLI runs the HTTP server, seeds demo data and walks a full trade
through the escrow lifecycle.`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
