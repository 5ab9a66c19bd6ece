package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rafisarkar/ddlphase/database"
	"github.com/rafisarkar/ddlphase/extractor"
	"github.com/rafisarkar/ddlphase/render"
)

var (
	extractPhase  string
	extractOutput string
)

func init() {
	extractCmd.Flags().StringVar(&extractPhase, "phase", "all", "Which phase to extract: base, deferred or all")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Directory to write .sql files into (prints to stdout when empty)")
}

var extractCmd = &cobra.Command{
	Use:   "extract [tables...]",
	Short: "Extract phased DDL from the source database",
	Long: `Extract the base CREATE TABLE and the deferred constraint/index DDL for
one or more tables.

Examples:
  ddlphase extract orders                  # Print both phases
  ddlphase extract orders --phase base     # Print only the base CREATE TABLE
  ddlphase extract orders -o ./ddl         # Write orders_base.sql and orders_deferred.sql
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tables := resolveTables(cfg, args)

		pool, err := database.GetSourcePool(cfg)
		if err != nil {
			fmt.Println("❌ Connecting to source:", err)
			os.Exit(1)
		}
		defer database.ClosePools()

		ex := extractor.New(pool, render.Postgres{})
		ctx := context.Background()

		for _, table := range tables {
			var base string
			var deferred []string

			if extractPhase == "base" || extractPhase == "all" {
				base, err = ex.TableBaseDDL(ctx, table)
				if err != nil {
					fmt.Printf("❌ Extracting base DDL for %s: %v\n", table, err)
					os.Exit(1)
				}
			}
			if extractPhase == "deferred" || extractPhase == "all" {
				deferred, err = ex.ConstraintsAndIndexesDDL(ctx, table)
				if err != nil {
					fmt.Printf("❌ Extracting deferred DDL for %s: %v\n", table, err)
					os.Exit(1)
				}
			}

			if extractOutput != "" {
				if err := writeDDLFiles(table, base, deferred); err != nil {
					fmt.Println("❌ Writing DDL files:", err)
					os.Exit(1)
				}
				continue
			}

			printDDL(table, base, deferred)
		}
	},
}

func printDDL(table, base string, deferred []string) {
	color.Cyan("-- %s", table)
	if base != "" {
		color.Green("-- phase 1: base table")
		fmt.Println(base)
	}
	if len(deferred) > 0 {
		color.Green("-- phase 2: constraints and indexes")
		for _, stmt := range deferred {
			fmt.Println(stmt)
		}
	} else if extractPhase != "base" {
		color.Yellow("-- phase 2: nothing to defer")
	}
	fmt.Println()
}

func writeDDLFiles(table, base string, deferred []string) error {
	if err := os.MkdirAll(extractOutput, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if base != "" {
		name := filepath.Join(extractOutput, table+"_base.sql")
		if err := os.WriteFile(name, []byte(base+"\n"), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Println("✅ Wrote", name)
	}
	if len(deferred) > 0 {
		name := filepath.Join(extractOutput, table+"_deferred.sql")
		content := strings.Join(deferred, "\n") + "\n"
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Println("✅ Wrote", name)
	}
	return nil
}
