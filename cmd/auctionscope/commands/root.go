// Package commands implements the CLI commands for auctionscope.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/auctionscope/auctionscope/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "auctionscope",
	Short: "Extract and classify Greek property auction listings",
	Long: `Auctionscope pulls real-estate auction listings from eauction.gr,
enriches each one with its auction document, and classifies the result.

For every listing it renders the detail page, downloads the attached
auction document, mines it for facts (area, address, encumbrances,
bankruptcy markers), derives the price per square meter, and applies
deterministic labels like Opportunity, Expensive, or Caution.

Examples:
  # Today's auctions, first page
  auctionscope run

  # A specific auction-date window, sorted by price
  auctionscope run --conduct-from 2025-06-01 --conduct-to 2025-06-30 \
      --sort priceAsc

  # Regional filter fragments harvested from the site's own widgets
  auctionscope run --region-param "&regionIds=10" --region "Θεσσαλίας"

  # Machine-readable streaming output
  auctionscope run --format jsonl -o auctions.jsonl`,
	Version: version.String(),
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.auctionscope.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".auctionscope")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("AUCTIONSCOPE")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
