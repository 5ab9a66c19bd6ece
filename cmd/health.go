package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rafisarkar/ddlphase/database"
	"github.com/spf13/cobra"
)

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 5*time.Second, "Timeout for health check")
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check source and target database connectivity",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		defer database.ClosePools()

		if err := pingSide(ctx, "source", func() error {
			pool, err := database.GetSourcePool(cfg)
			if err != nil {
				return err
			}
			return pool.Ping(ctx)
		}); err != nil {
			os.Exit(1)
		}

		if err := pingSide(ctx, "target", func() error {
			pool, err := database.GetTargetPool(cfg)
			if err != nil {
				return err
			}
			return pool.Ping(ctx)
		}); err != nil {
			os.Exit(1)
		}
	},
}

func pingSide(ctx context.Context, side string, ping func() error) error {
	if err := ping(); err != nil {
		fmt.Printf("❌ %s database health check failed: %v\n", side, err)
		return err
	}
	fmt.Printf("✅ %s database is healthy and accessible\n", side)
	return nil
}
