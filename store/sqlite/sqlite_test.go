package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
	memstore "github.com/warp/budget-engine/budget/store"
)

const owner = budget.OwnerID("fam-1")

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(y int, m time.Month, d int) budget.Date { return budget.NewDate(y, m, d) }

func seedCategory(t *testing.T, s *Store, id string) {
	t.Helper()
	c := budget.Category{ID: id, Name: id, Kind: budget.KindExpense, RolloverMode: budget.RolloverBoth}
	require.NoError(t, s.SaveCategory(context.Background(), owner, c))
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Settings(ctx, owner)
	assert.ErrorIs(t, err, budget.ErrSettingsNotFound)

	in := budget.Settings{CycleLengthDays: 14, AnchorDate: date(2026, time.January, 5)}
	require.NoError(t, s.PutSettings(ctx, owner, in))

	got, err := s.Settings(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 14, got.CycleLengthDays)
	assert.Equal(t, "2026-01-05", got.AnchorDate.String())

	// Upsert replaces.
	in.CycleLengthDays = 30
	require.NoError(t, s.PutSettings(ctx, owner, in))
	got, err = s.Settings(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 30, got.CycleLengthDays)
}

func TestPutSettingsValidates(t *testing.T) {
	s := newTestStore(t)
	err := s.PutSettings(context.Background(), owner, budget.Settings{CycleLengthDays: 0, AnchorDate: date(2026, time.January, 1)})
	assert.ErrorIs(t, err, budget.ErrInvalidCycleLength)
}

// =============================================================================
// CATEGORIES
// =============================================================================

func TestCategoryHierarchyRules(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")

	child := budget.Category{ID: "coffee", Name: "Coffee", Kind: budget.KindExpense, RolloverMode: budget.RolloverNone, ParentID: "food"}
	require.NoError(t, s.SaveCategory(ctx, owner, child))

	// Hierarchy is one level deep.
	grandchild := budget.Category{ID: "espresso", Name: "Espresso", Kind: budget.KindExpense, RolloverMode: budget.RolloverNone, ParentID: "coffee"}
	assert.ErrorIs(t, s.SaveCategory(ctx, owner, grandchild), budget.ErrUnknownCategory)

	orphan := budget.Category{ID: "x", Name: "X", Kind: budget.KindExpense, RolloverMode: budget.RolloverNone, ParentID: "ghost"}
	assert.ErrorIs(t, s.SaveCategory(ctx, owner, orphan), budget.ErrUnknownCategory)
}

func TestDeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")
	child := budget.Category{ID: "coffee", Name: "Coffee", Kind: budget.KindExpense, RolloverMode: budget.RolloverNone, ParentID: "food"}
	require.NoError(t, s.SaveCategory(ctx, owner, child))

	start := date(2026, time.January, 1)
	require.NoError(t, s.UpsertAllocation(ctx, owner, budget.Allocation{CategoryID: "food", PeriodStart: start, Amount: 500}))

	require.NoError(t, s.DeleteCategory(ctx, owner, "food"))

	allocs, err := s.AllocationsForPeriod(ctx, owner, start)
	require.NoError(t, err)
	assert.Empty(t, allocs)

	cats, err := s.ListCategories(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Empty(t, cats[0].ParentID, "child is detached, not deleted")
}

func TestSaveCategoryKindDefaultMatchesMemoryAdapter(t *testing.T) {
	// GIVEN: A category written with no kind to both adapters
	// WHEN: Listing expense categories
	// THEN: Both adapters classify it as expense; identical input must never
	//       yield different engine inputs per adapter

	ctx := context.Background()
	s := newTestStore(t)
	m := memstore.NewMemory()

	c := budget.Category{ID: "food", Name: "Food", RolloverMode: budget.RolloverBoth}
	require.NoError(t, s.SaveCategory(ctx, owner, c))
	require.NoError(t, m.SaveCategory(ctx, owner, c))

	fromSQLite, err := s.ExpenseCategories(ctx, owner)
	require.NoError(t, err)
	fromMemory, err := m.ExpenseCategories(ctx, owner)
	require.NoError(t, err)

	require.Len(t, fromSQLite, 1)
	require.Len(t, fromMemory, 1)
	assert.Equal(t, budget.KindExpense, fromSQLite[0].Kind)
	assert.Equal(t, fromSQLite[0].Kind, fromMemory[0].Kind)
}

func TestCategoriesAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")

	other := budget.OwnerID("fam-2")
	a := budget.Allocation{CategoryID: "food", PeriodStart: date(2026, time.January, 1), Amount: 100}
	assert.ErrorIs(t, s.UpsertAllocation(ctx, other, a), budget.ErrUnknownCategory)

	tx := budget.Transaction{Date: date(2026, time.January, 2), Amount: 5, CategoryID: "food"}
	assert.ErrorIs(t, s.AddTransaction(ctx, other, tx), budget.ErrUnknownCategory)

	cats, err := s.ListCategories(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestAddTransactionAssignsIDAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")

	// Empty id gets a generated one.
	require.NoError(t, s.AddTransaction(ctx, owner, budget.Transaction{Date: date(2026, time.January, 3), Amount: 10, CategoryID: "food"}))

	// Resubmitting the same explicit id is a no-op, not an error.
	tx := budget.Transaction{ID: "tx-1", Date: date(2026, time.January, 4), Amount: 20, CategoryID: "food"}
	require.NoError(t, s.AddTransaction(ctx, owner, tx))
	require.NoError(t, s.AddTransaction(ctx, owner, tx))

	got, err := s.ListTransactions(ctx, owner, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, g := range got {
		assert.NotEmpty(t, g.ID)
	}
}

func TestTransactionsInRangeIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")

	for _, day := range []int{1, 15, 31} {
		tx := budget.Transaction{Date: date(2026, time.January, day), Amount: float64(day), CategoryID: "food"}
		require.NoError(t, s.AddTransaction(ctx, owner, tx))
	}

	got, err := s.TransactionsInRange(ctx, owner, date(2026, time.January, 1), date(2026, time.January, 31))
	require.NoError(t, err)
	require.Len(t, got, 2, "end bound is exclusive")
}

func TestEarliestActivitySpansBudgetsAndTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")

	earliest, err := s.EarliestActivity(ctx, owner)
	require.NoError(t, err)
	assert.Nil(t, earliest)

	require.NoError(t, s.AddTransaction(ctx, owner, budget.Transaction{Date: date(2026, time.March, 10), Amount: 5, CategoryID: "food"}))
	require.NoError(t, s.UpsertAllocation(ctx, owner, budget.Allocation{CategoryID: "food", PeriodStart: date(2026, time.February, 1), Amount: 100}))

	earliest, err = s.EarliestActivity(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, earliest)
	assert.Equal(t, "2026-02-01", earliest.String())
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func snapshotAt(start budget.Date) budget.CycleSnapshot {
	return budget.CycleSnapshot{
		PeriodStart:      start,
		PeriodEnd:        start.AddDays(30),
		PeriodLengthDays: 30,
		TotalBudgetBase:  500,
		TotalSpent:       321.5,
		OverUnderBase:    178.5,
	}
}

func TestReplaceCycleDeletesThenInserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	start := date(2026, time.January, 1)

	rows := []budget.CategoryCycleSnapshot{
		{PeriodStart: start, CategoryID: "a", CategoryName: "A", RolloverMode: budget.RolloverBoth, Spent: 1},
		{PeriodStart: start, CategoryID: "b", CategoryName: "B", RolloverMode: budget.RolloverNone, Spent: 2},
	}
	require.NoError(t, s.ReplaceCycle(ctx, owner, snapshotAt(start), rows))

	// Rebuild with one row fewer: the stale row must vanish.
	require.NoError(t, s.ReplaceCycle(ctx, owner, snapshotAt(start), rows[1:]))

	got, err := s.CategoryRowsAt(ctx, owner, start)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].CategoryID)

	cycle, err := s.CycleAt(ctx, owner, start)
	require.NoError(t, err)
	assert.Equal(t, 321.5, cycle.TotalSpent)
	assert.Equal(t, 30, cycle.PeriodLengthDays)
}

func TestCycleAtMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CycleAt(context.Background(), owner, date(2026, time.January, 1))
	assert.ErrorIs(t, err, budget.ErrSnapshotNotFound)
}

func TestCyclesAfterAscending(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	starts := []budget.Date{
		date(2026, time.January, 1),
		date(2026, time.January, 31),
		date(2026, time.March, 2),
	}
	for _, st := range starts {
		require.NoError(t, s.ReplaceCycle(ctx, owner, snapshotAt(st), nil))
	}

	got, err := s.CyclesAfter(ctx, owner, starts[0])
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-01-31", got[0].PeriodStart.String())
	assert.Equal(t, "2026-03-02", got[1].PeriodStart.String())
}

func TestListCyclesPagination(t *testing.T) {
	// GIVEN: Four snapshotted cycles
	// WHEN: Paging with limit 2 and following the cursor
	// THEN: Descending order, cursor resumes at the first excluded row,
	//       nil cursor at the end

	ctx := context.Background()
	s := newTestStore(t)
	for n := 0; n < 4; n++ {
		st := date(2026, time.January, 1).AddDays(n * 30)
		require.NoError(t, s.ReplaceCycle(ctx, owner, snapshotAt(st), nil))
	}

	page1, cursor, err := s.ListCycles(ctx, owner, 2, nil)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "2026-04-01", page1[0].PeriodStart.String())
	assert.Equal(t, "2026-03-02", page1[1].PeriodStart.String())
	require.NotNil(t, cursor)

	page2, cursor, err := s.ListCycles(ctx, owner, 2, cursor)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "2026-01-31", page2[0].PeriodStart.String())
	assert.Equal(t, "2026-01-01", page2[1].PeriodStart.String())
	assert.Nil(t, cursor, "last page exhausted")
}

// =============================================================================
// ENGINE OVER SQLITE - both adapters must agree
// =============================================================================

func TestDriverOverSQLiteMatchesCarryoverChain(t *testing.T) {
	// GIVEN: The surplus-then-deficit history, run over the SQLite adapter
	// WHEN: Rebuilding through the second cycle
	// THEN: The chain matches the engine's reference figures (+100 then -100)

	ctx := context.Background()
	s := newTestStore(t)

	settings := budget.Settings{CycleLengthDays: 30, AnchorDate: date(2026, time.January, 1)}
	require.NoError(t, s.PutSettings(ctx, owner, settings))
	seedCategory(t, s, "groceries")

	c0 := date(2026, time.January, 1)
	c1 := c0.AddDays(30)
	require.NoError(t, s.UpsertAllocation(ctx, owner, budget.Allocation{CategoryID: "groceries", PeriodStart: c0, Amount: 1000}))
	require.NoError(t, s.UpsertAllocation(ctx, owner, budget.Allocation{CategoryID: "groceries", PeriodStart: c1, Amount: 1000}))
	require.NoError(t, s.AddTransaction(ctx, owner, budget.Transaction{Date: c0.AddDays(5), Amount: 900, CategoryID: "groceries"}))
	require.NoError(t, s.AddTransaction(ctx, owner, budget.Transaction{Date: c1.AddDays(5), Amount: 1200, CategoryID: "groceries"}))

	driver := budget.NewDriver(s, s)
	through := c1
	require.NoError(t, driver.EnsureSnapshots(ctx, owner, &through))

	rows, err := s.CategoryRowsAt(ctx, owner, c1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].CarryoverAppliedIn)
	assert.Equal(t, -200.0, rows[0].CarryoverOut)
	assert.Equal(t, -100.0, rows[0].CarryoverRunningTotal)
}

func TestResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedCategory(t, s, "food")
	require.NoError(t, s.ReplaceCycle(ctx, owner, snapshotAt(date(2026, time.January, 1)), nil))

	require.NoError(t, s.Reset(ctx))

	cats, err := s.ListCategories(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cats)

	cycles, _, err := s.ListCycles(ctx, owner, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}
