package cmd

import (
	"fmt"
	"os"

	"github.com/rafisarkar/ddlphase/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ddlphase",
	Short: "Replicate table structure in two phases for fast bulk loading",
	Long: `ddlphase extracts a table's structure from a source database and splits it
into two DDL phases: a bare CREATE TABLE for fast bulk loading, and the
constraints and indexes to add once the data is in.

Examples:

  ddlphase extract orders
  ddlphase apply orders --phase base
  ddlphase apply orders --phase deferred
  ddlphase verify orders
`,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "ddlphase.yaml", "Config file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(healthCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Println("❌ Loading config:", err)
		os.Exit(1)
	}
	return cfg
}

// resolveTables prefers explicit arguments over the config file list.
func resolveTables(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if len(cfg.Tables) == 0 {
		fmt.Println("❌ No tables given (arguments or config 'tables')")
		os.Exit(1)
	}
	return cfg.Tables
}
