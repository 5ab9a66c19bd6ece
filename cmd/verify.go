package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rafisarkar/ddlphase/database"
	"github.com/rafisarkar/ddlphase/introspect"
	"github.com/rafisarkar/ddlphase/phase"
	"github.com/rafisarkar/ddlphase/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [tables...]",
	Short: "Check that extracted constraints and indexes exist on the target",
	Long: `Verify that the target database carries everything the source table
defers: the base table itself plus every constraint and index.

Run this after both phases have been applied.
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tables := resolveTables(cfg, args)

		sourcePool, err := database.GetSourcePool(cfg)
		if err != nil {
			fmt.Println("❌ Connecting to source:", err)
			os.Exit(1)
		}
		targetPool, err := database.GetTargetPool(cfg)
		if err != nil {
			fmt.Println("❌ Connecting to target:", err)
			os.Exit(1)
		}
		defer database.ClosePools()

		verifier := verify.NewVerifier(targetPool)
		ctx := context.Background()
		failed := false

		for _, table := range tables {
			desc, err := introspect.Table(ctx, sourcePool, table)
			if err != nil {
				fmt.Printf("❌ Introspecting %s: %v\n", table, err)
				os.Exit(1)
			}
			plan, err := phase.Split(desc)
			if err != nil {
				fmt.Printf("❌ Splitting %s: %v\n", table, err)
				os.Exit(1)
			}

			result, err := verifier.VerifyPlan(ctx, plan)
			if err != nil {
				fmt.Printf("❌ Verifying %s: %v\n", table, err)
				os.Exit(1)
			}

			if result.OK {
				color.Green("✅ %s: all objects present on target", table)
				continue
			}
			failed = true
			color.Red("❌ %s: missing objects", table)
			for _, f := range result.Missing {
				fmt.Printf("   - %s\n", f.Message)
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}
