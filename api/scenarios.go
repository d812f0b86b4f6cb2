/*
scenarios.go - Demo scenario loader for testing and demonstrations

PURPOSE:

	Populates the database with a realistic household budget: a 30-day
	cycle anchored three cycles back, a category tree with every rollover
	mode, per-cycle budgets, and transactions spread over the history.
	Finishes with a rebuild so cycle snapshots exist immediately.

HOW THE SCENARIO WORKS:
 1. Reset database (clear all data)
 2. Store settings (30-day cycle, anchor ~3 cycles ago)
 3. Create categories: groceries (both), dining under groceries,
    entertainment (positive), utilities (negative), rent (none),
    plus a salary income category
 4. Set budgets for each elapsed cycle
 5. Add transactions across the history
 6. Rebuild snapshots through today

USAGE VIA API:

	POST /api/scenarios/demo

NOTE:

	The scenario resets the database. Only use in development/demo
	environments.

SEE ALSO:
  - handlers.go: writeJSON/writeDomainError helpers
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/budget-engine/budget"
)

// LoadDemoScenario wipes the database and seeds the demo household.
func (h *Handler) LoadDemoScenario(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	if err := h.loadDemo(r.Context(), owner); err != nil {
		writeDomainError(w, "Failed to load demo scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func (h *Handler) loadDemo(ctx context.Context, owner budget.OwnerID) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}

	// Anchor three full 30-day cycles in the past so the rebuild produces
	// history right away.
	anchor := budget.Today().AddDays(-90)
	settings := budget.Settings{CycleLengthDays: 30, AnchorDate: anchor}
	if err := h.Store.PutSettings(ctx, owner, settings); err != nil {
		return err
	}

	categories := []budget.Category{
		{ID: "groceries", Name: "Groceries", Kind: budget.KindExpense, RolloverMode: budget.RolloverBoth},
		{ID: "dining", Name: "Dining Out", Kind: budget.KindExpense, RolloverMode: budget.RolloverNone, ParentID: "groceries"},
		{ID: "entertainment", Name: "Entertainment", Kind: budget.KindExpense, RolloverMode: budget.RolloverPositive},
		{ID: "utilities", Name: "Utilities", Kind: budget.KindExpense, RolloverMode: budget.RolloverNegative},
		{ID: "rent", Name: "Rent", Kind: budget.KindExpense, RolloverMode: budget.RolloverNone},
		{ID: "salary", Name: "Salary", Kind: budget.KindIncome},
	}
	for _, c := range categories {
		if err := h.Store.SaveCategory(ctx, owner, c); err != nil {
			return err
		}
	}

	budgets := map[string]float64{
		"groceries":     600,
		"entertainment": 150,
		"utilities":     200,
		"rent":          1400,
	}
	spending := []struct {
		dayOffset  int
		amount     float64
		categoryID string
	}{
		{1, 1400, "rent"},
		{3, 112.40, "groceries"},
		{5, 45.00, "dining"},
		{8, 38.99, "entertainment"},
		{12, 180.25, "utilities"},
		{15, 96.10, "groceries"},
		{20, 62.30, "dining"},
		{26, 141.75, "groceries"},
	}

	for cycle := 0; cycle < 3; cycle++ {
		start := anchor.AddDays(cycle * settings.CycleLengthDays)
		for id, amount := range budgets {
			a := budget.Allocation{CategoryID: id, PeriodStart: start, Amount: amount}
			if err := h.Store.UpsertAllocation(ctx, owner, a); err != nil {
				return err
			}
		}
		// Income, so totals show expense-only aggregation.
		salary := budget.Transaction{Date: start.AddDays(1), Amount: 4200, CategoryID: "salary"}
		if err := h.Store.AddTransaction(ctx, owner, salary); err != nil {
			return err
		}
		for _, s := range spending {
			tx := budget.Transaction{
				Date:       start.AddDays(s.dayOffset),
				Amount:     s.amount + float64(cycle)*7.5,
				CategoryID: s.categoryID,
			}
			if err := h.Store.AddTransaction(ctx, owner, tx); err != nil {
				return err
			}
		}
	}

	// One uncategorized transaction: stored, excluded from cycle totals.
	stray := budget.Transaction{Date: anchor.AddDays(10), Amount: 19.99}
	if err := h.Store.AddTransaction(ctx, owner, stray); err != nil {
		return err
	}

	return h.Driver.EnsureSnapshots(ctx, owner, nil)
}
