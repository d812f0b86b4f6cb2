/*
main.go - budgetctl command-line tool

PURPOSE:
  Operates the budget cycle engine against a local SQLite database without
  the HTTP server. The same engine code runs in both places; this is the
  offline call site.

COMMANDS:
  budgetctl rebuild [--through YYYY-MM-DD]      Rebuild snapshots
  budgetctl cycles [--limit N]                  List cycle snapshots
  budgetctl cycle <period-start>                Show one cycle in detail
  budgetctl manual <period-start> --entry c=v   Backfill a historical cycle

GLOBAL FLAGS:
  --db      SQLite database path (default: budget.db)
  --owner   Owner scope (default: "default")

EXAMPLES:
  budgetctl --db budget.db rebuild
  budgetctl cycles --limit 6
  budgetctl cycle 2026-07-02
  budgetctl manual 2026-06-02 --entry groceries=512.40 --entry rent=1400

SEE ALSO:
  - budget/driver.go: Reconciliation entry points
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/store/sqlite"
)

var (
	dbPath string
	owner  string
)

func main() {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Operate the budget cycle engine against a local database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "budget.db", "SQLite database path")
	root.PersistentFlags().StringVar(&owner, "owner", "default", "owner scope")

	root.AddCommand(rebuildCmd(), cyclesCmd(), cycleCmd(), manualCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withStore opens the database, runs fn, and closes it.
func withStore(fn func(ctx context.Context, store *sqlite.Store, driver *budget.Driver) error) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	return fn(context.Background(), store, budget.NewDriver(store, store))
}

// =============================================================================
// COMMANDS
// =============================================================================

func rebuildCmd() *cobra.Command {
	var through string
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild cycle snapshots from raw budgets and transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, _ *sqlite.Store, driver *budget.Driver) error {
				var until *budget.Date
				if through != "" {
					d, err := budget.ParseDate(through)
					if err != nil {
						return err
					}
					until = &d
				}
				if err := driver.EnsureSnapshots(ctx, budget.OwnerID(owner), until); err != nil {
					return err
				}
				fmt.Println("Snapshots rebuilt.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&through, "through", "", "rebuild through this date (YYYY-MM-DD, default today)")
	return cmd
}

func cyclesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List cycle snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *sqlite.Store, _ *budget.Driver) error {
				items, _, err := store.ListCycles(ctx, budget.OwnerID(owner), limit, nil)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Println("No cycles. Run `budgetctl rebuild` first.")
					return nil
				}
				fmt.Printf("%-12s %-12s %10s %10s %10s %10s\n",
					"START", "END", "BUDGET", "SPENT", "OVER/UNDER", "CARRY NET")
				for _, c := range items {
					fmt.Printf("%-12s %-12s %10.2f %10.2f %10.2f %10.2f\n",
						c.PeriodStart, c.PeriodEnd,
						c.TotalBudgetBase, c.TotalSpent, c.OverUnderBase, c.CarryoverNetTotal)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 12, "maximum cycles to show")
	return cmd
}

func cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <period-start>",
		Short: "Show one cycle with its per-category rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periodStart, err := budget.ParseDate(args[0])
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, store *sqlite.Store, _ *budget.Driver) error {
				o := budget.OwnerID(owner)
				cycle, err := store.CycleAt(ctx, o, periodStart)
				if err != nil {
					return err
				}
				rows, err := store.CategoryRowsAt(ctx, o, periodStart)
				if err != nil {
					return err
				}

				fmt.Printf("Cycle %s .. %s (%d days)\n", cycle.PeriodStart, cycle.PeriodEnd, cycle.PeriodLengthDays)
				fmt.Printf("  budget %.2f  spent %.2f  over/under %.2f\n",
					cycle.TotalBudgetBase, cycle.TotalSpent, cycle.OverUnderBase)
				fmt.Printf("  carryover +%.2f %.2f net %.2f\n\n",
					cycle.CarryoverPositiveTotal, cycle.CarryoverNegativeTotal, cycle.CarryoverNetTotal)

				fmt.Printf("%-16s %-10s %10s %10s %10s %10s %10s\n",
					"CATEGORY", "ROLLOVER", "BUDGET", "SPENT", "REMAINING", "CARRY OUT", "RUNNING")
				for _, row := range rows {
					fmt.Printf("%-16s %-10s %10.2f %10.2f %10.2f %10.2f %10.2f\n",
						row.CategoryID, row.RolloverMode,
						row.BudgetBase, row.Spent, row.RemainingBase,
						row.CarryoverOut, row.CarryoverRunningTotal)
				}
				return nil
			})
		},
	}
}

func manualCmd() *cobra.Command {
	var entries []string
	cmd := &cobra.Command{
		Use:   "manual <period-start>",
		Short: "Backfill a historical cycle with manually entered totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periodStart, err := budget.ParseDate(args[0])
			if err != nil {
				return err
			}
			spent, err := parseEntries(entries)
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, _ *sqlite.Store, driver *budget.Driver) error {
				if err := driver.AddManualCycle(ctx, budget.OwnerID(owner), periodStart, spent); err != nil {
					return err
				}
				fmt.Println("Manual cycle recorded; later cycles repropagated.")
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&entries, "entry", nil, "category=spent, one per expense category")
	return cmd
}

func parseEntries(raw []string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for _, e := range raw {
		id, value, ok := strings.Cut(e, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --entry %q: expected category=spent", e)
		}
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --entry %q: %w", e, err)
		}
		out[id] = amount
	}
	return out, nil
}
