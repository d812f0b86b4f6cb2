/*
store.go - Persistence interfaces for the budget engine

PURPOSE:
  Defines the boundary between the engine and its backing stores. The engine
  is one shared library behind two adapters — an in-memory store for the
  offline/testing path and a SQLite store for the durable path — and both
  must produce bit-identical snapshots because all computation happens on
  this side of these interfaces.

OWNERSHIP OF DATA:
  SourceStore rows (settings, categories, budgets, transactions) belong to
  external collaborators; the engine only reads them. SnapshotStore rows are
  the only mutable state the engine owns, and they are a fully disposable
  cache: delete them all and EnsureSnapshots rebuilds them.

REPLACEMENT CONTRACT:
  ReplaceCycle deletes any existing cycle-level and category-level rows for
  the period, then inserts the fresh set. Re-running a rebuild with unchanged
  inputs therefore produces identical rows, never additive rows.

SEE ALSO:
  - store/memory.go: In-memory implementation
  - store/sqlite (repo root): SQLite implementation
  - driver.go: The only writer of SnapshotStore
*/
package budget

import "context"

// =============================================================================
// SOURCE STORE - Read-only raw facts
// =============================================================================

// SourceStore exposes the raw facts the engine consumes. Implementations
// scope every query by owner; references that cross owners must never be
// observable through this interface.
type SourceStore interface {
	// Settings returns the owner's cycle configuration.
	// Returns ErrSettingsNotFound when the owner has none.
	Settings(ctx context.Context, owner OwnerID) (Settings, error)

	// ExpenseCategories returns the owner's categories of kind expense,
	// including children. Other kinds are excluded upstream.
	ExpenseCategories(ctx context.Context, owner OwnerID) ([]Category, error)

	// AllocationsForPeriod returns the budget rows keyed to one period start.
	AllocationsForPeriod(ctx context.Context, owner OwnerID, periodStart Date) ([]Allocation, error)

	// TransactionsInRange returns transactions with date in [from, to).
	TransactionsInRange(ctx context.Context, owner OwnerID, from, to Date) ([]Transaction, error)

	// EarliestActivity returns the earliest date with any data: the earliest
	// budget period start or the earliest transaction date, whichever comes
	// first. Nil when the owner has no data at all.
	EarliestActivity(ctx context.Context, owner OwnerID) (*Date, error)
}

// =============================================================================
// SNAPSHOT STORE - Period-indexed derived state
// =============================================================================

// SnapshotStore persists aggregator output. Not a source of truth; a
// materialized cache rebuildable from SourceStore at any time.
type SnapshotStore interface {
	// ReplaceCycle atomically swaps all rows for cycle.PeriodStart: existing
	// cycle-level and category-level rows are deleted, then the fresh set is
	// inserted.
	ReplaceCycle(ctx context.Context, owner OwnerID, cycle CycleSnapshot, rows []CategoryCycleSnapshot) error

	// CycleAt returns the cycle-level row for a period start, or
	// ErrSnapshotNotFound.
	CycleAt(ctx context.Context, owner OwnerID, periodStart Date) (*CycleSnapshot, error)

	// CategoryRowsAt returns the category-level rows for a period start,
	// ordered by category id. Empty (not an error) when none exist.
	CategoryRowsAt(ctx context.Context, owner OwnerID, periodStart Date) ([]CategoryCycleSnapshot, error)

	// CyclesAfter returns cycle-level rows with period start strictly after
	// the given date, ascending. Used for forward propagation.
	CyclesAfter(ctx context.Context, owner OwnerID, periodStart Date) ([]CycleSnapshot, error)

	// ListCycles pages cycle-level rows by period start descending. The
	// cursor is the period start the page begins at (inclusive); nextCursor
	// is the period start of the first excluded row when more rows exist.
	ListCycles(ctx context.Context, owner OwnerID, limit int, cursor *Date) (items []CycleSnapshot, nextCursor *Date, err error)
}
