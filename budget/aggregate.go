/*
aggregate.go - Cycle aggregation

PURPOSE:
  Computes one cycle's figures from raw facts: per-category budget base,
  spend, remainder and carryover, plus the cycle-level totals. This is the
  single computation both storage adapters share; bit-identical output for
  identical inputs is the whole point of having exactly one copy.

PURITY:
  AggregateCycle performs no I/O and has no failure modes beyond the caller
  supplying inconsistent category references. All arithmetic is plain
  float64 with no intermediate rounding.

DETERMINISM:
  Output rows are ordered by category id so that rebuilding a cycle from the
  same inputs produces identical rows, not merely an equal set.

SEE ALSO:
  - scope.go: Spend attribution across the one-level hierarchy
  - rollover.go: Carryover policy
  - driver.go: Feeds this function cycle by cycle
*/
package budget

import "sort"

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// CycleInput carries everything needed to compute one cycle.
type CycleInput struct {
	Period Period

	// Expense categories with their current rollover mode. Kinds other than
	// expense are tolerated and ignored.
	Categories []Category

	// Budget rows for this cycle. Rows for other periods are ignored.
	Allocations []Allocation

	// Transactions overlapping the cycle. Rows outside [Start, End) are
	// filtered out, so callers may pass a superset.
	Transactions []Transaction

	// CarryoverIn maps category id to the carryover entering this cycle
	// (the previous cycle's running total). Empty for the first cycle.
	CarryoverIn map[string]float64
}

// CycleResult is the computed snapshot for one cycle.
type CycleResult struct {
	Cycle      CycleSnapshot
	Categories []CategoryCycleSnapshot // ordered by CategoryID
}

// CarryoverByCategory returns the running totals keyed by category id, in
// the shape the next cycle consumes as CarryoverIn.
func (r CycleResult) CarryoverByCategory() map[string]float64 {
	out := make(map[string]float64, len(r.Categories))
	for _, row := range r.Categories {
		out[row.CategoryID] = row.CarryoverRunningTotal
	}
	return out
}

// =============================================================================
// CYCLE AGGREGATOR
// =============================================================================

// AggregateCycle computes one cycle from raw budgets and transactions.
//
// Per expense category: budgetBase is the matching allocation (or 0), spent
// is the sum of transaction amounts attributed to the category's scope, and
// carryover follows the category's rollover mode on top of the entering
// value. Cycle totals count top-level budget bases only (a parent and its
// children would otherwise double-count) and each expense transaction
// exactly once.
func AggregateCycle(in CycleInput) CycleResult {
	idx := BuildScopes(in.Categories)

	budgets := make(map[string]float64, len(in.Allocations))
	for _, a := range in.Allocations {
		if !a.PeriodStart.IsZero() && !a.PeriodStart.Equal(in.Period.Start) {
			continue
		}
		budgets[a.CategoryID] += a.Amount
	}

	// Spend per direct category, then attributed through scopes below.
	spentByID := make(map[string]float64)
	totalSpent := 0.0
	for _, tx := range in.Transactions {
		if !in.Period.Contains(tx.Date) {
			continue
		}
		if !idx.IsExpense(tx.CategoryID) {
			// Uncategorized or income/transfer: excluded from budget math.
			continue
		}
		spentByID[tx.CategoryID] += tx.Amount
		totalSpent += tx.Amount
	}

	rows := make([]CategoryCycleSnapshot, 0, len(in.Categories))
	totalBudgetBase := 0.0
	for _, c := range sortedExpense(in.Categories) {
		spent := 0.0
		for id := range idx.ScopeOf(c.ID) {
			spent += spentByID[id]
		}
		rows = append(rows, buildRow(in.Period.Start, c, budgets[c.ID], spent, in.CarryoverIn[c.ID]))
		if c.IsTopLevel() {
			totalBudgetBase += budgets[c.ID]
		}
	}

	return assembleCycle(in.Period, totalBudgetBase, totalSpent, rows)
}

// AggregateManualCycle computes one cycle from user-entered spend amounts
// instead of transactions. Used for backfilled cycles that predate automated
// tracking. Each entry is the category's own direct spend, attributed through
// the same scope index as the transaction path: a parent's row includes its
// children's entries, while the cycle total counts each entry exactly once.
// Budget bases still come from allocation rows and carryover math is
// identical to AggregateCycle.
//
// The caller validates spent: a finite non-negative value for every expense
// category, no unknown ids.
func AggregateManualCycle(period Period, categories []Category, allocations []Allocation, spent map[string]float64, carryoverIn map[string]float64) CycleResult {
	idx := BuildScopes(categories)

	budgets := make(map[string]float64, len(allocations))
	for _, a := range allocations {
		if !a.PeriodStart.IsZero() && !a.PeriodStart.Equal(period.Start) {
			continue
		}
		budgets[a.CategoryID] += a.Amount
	}

	rows := make([]CategoryCycleSnapshot, 0, len(categories))
	totalBudgetBase := 0.0
	totalSpent := 0.0
	for _, c := range sortedExpense(categories) {
		scoped := 0.0
		for id := range idx.ScopeOf(c.ID) {
			scoped += spent[id]
		}
		rows = append(rows, buildRow(period.Start, c, budgets[c.ID], scoped, carryoverIn[c.ID]))
		totalSpent += spent[c.ID]
		if c.IsTopLevel() {
			totalBudgetBase += budgets[c.ID]
		}
	}

	return assembleCycle(period, totalBudgetBase, totalSpent, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

func buildRow(periodStart Date, c Category, budgetBase, spent, carryoverIn float64) CategoryCycleSnapshot {
	remaining := budgetBase - spent
	out := CarryoverOut(c.RolloverMode, remaining)
	return CategoryCycleSnapshot{
		PeriodStart:           periodStart,
		CategoryID:            c.ID,
		CategoryName:          c.Name,
		RolloverMode:          c.RolloverMode,
		BudgetBase:            budgetBase,
		Spent:                 spent,
		RemainingBase:         remaining,
		CarryoverAppliedIn:    carryoverIn,
		CarryoverOut:          out,
		CarryoverRunningTotal: carryoverIn + out,
	}
}

func assembleCycle(period Period, totalBudgetBase, totalSpent float64, rows []CategoryCycleSnapshot) CycleResult {
	cycle := CycleSnapshot{
		PeriodStart:      period.Start,
		PeriodEnd:        period.End,
		PeriodLengthDays: period.LengthDays(),
		TotalBudgetBase:  totalBudgetBase,
		TotalSpent:       totalSpent,
		OverUnderBase:    OverUnderBase(totalBudgetBase, totalSpent),
	}
	cycle.CarryoverPositiveTotal, cycle.CarryoverNegativeTotal, cycle.CarryoverNetTotal = CarryoverTotals(rows)
	return CycleResult{Cycle: cycle, Categories: rows}
}

// CarryoverTotals sums category running totals by sign. Exported because the
// driver re-derives cycle-level totals when patching carryover chains forward.
func CarryoverTotals(rows []CategoryCycleSnapshot) (positive, negative, net float64) {
	for _, row := range rows {
		if row.CarryoverRunningTotal > 0 {
			positive += row.CarryoverRunningTotal
		} else if row.CarryoverRunningTotal < 0 {
			negative += row.CarryoverRunningTotal
		}
	}
	return positive, negative, positive + negative
}

func sortedExpense(categories []Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Kind == KindExpense {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
