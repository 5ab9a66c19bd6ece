package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rafisarkar/ddlphase/database"
	"github.com/rafisarkar/ddlphase/extractor"
	"github.com/rafisarkar/ddlphase/logger"
	"github.com/rafisarkar/ddlphase/render"
	"github.com/rafisarkar/ddlphase/runner"
)

var (
	applyPhase  string
	dryRunApply bool
)

func init() {
	applyCmd.Flags().StringVar(&applyPhase, "phase", "base", "Which phase to apply: base or deferred")
	applyCmd.Flags().BoolVar(&dryRunApply, "dry-run", false, "Preview the SQL that would be executed without applying it")
}

var applyCmd = &cobra.Command{
	Use:   "apply [tables...]",
	Short: "Extract DDL from the source and apply one phase to the target",
	Long: `Apply one DDL phase to the target database inside a single transaction.

Load your data between the two phases:

  ddlphase apply orders --phase base
  <bulk load orders>
  ddlphase apply orders --phase deferred
`,
	Run: func(cmd *cobra.Command, args []string) {
		if applyPhase != "base" && applyPhase != "deferred" {
			fmt.Println("❌ --phase must be 'base' or 'deferred'")
			os.Exit(1)
		}

		cfg := loadConfig()
		tables := resolveTables(cfg, args)

		sourcePool, err := database.GetSourcePool(cfg)
		if err != nil {
			fmt.Println("❌ Connecting to source:", err)
			os.Exit(1)
		}
		defer database.ClosePools()

		ex := extractor.New(sourcePool, render.Postgres{})
		ctx := context.Background()

		for _, table := range tables {
			var stmts []string
			if applyPhase == "base" {
				base, err := ex.TableBaseDDL(ctx, table)
				if err != nil {
					fmt.Printf("❌ Extracting base DDL for %s: %v\n", table, err)
					os.Exit(1)
				}
				stmts = []string{base}
			} else {
				stmts, err = ex.ConstraintsAndIndexesDDL(ctx, table)
				if err != nil {
					fmt.Printf("❌ Extracting deferred DDL for %s: %v\n", table, err)
					os.Exit(1)
				}
			}

			if dryRunApply {
				fmt.Printf("\n-- %s (%s phase, dry run) --\n", table, applyPhase)
				for _, stmt := range stmts {
					fmt.Println(stmt)
				}
				continue
			}

			targetPool, err := database.GetTargetPool(cfg)
			if err != nil {
				fmt.Println("❌ Connecting to target:", err)
				os.Exit(1)
			}

			applier := runner.NewApplier(runner.PoolBeginner{Pool: targetPool}, logger.New(verbose))
			if err := applier.ApplyDDL(ctx, stmts); err != nil {
				fmt.Printf("❌ Applying %s phase for %s: %v\n", applyPhase, table, err)
				os.Exit(1)
			}
			fmt.Printf("✅ Applied %s phase for %s (%d statement(s))\n", applyPhase, table, len(stmts))
		}

		if dryRunApply {
			fmt.Println("\n(Dry run only. Nothing was applied.)")
		}
	},
}
