/*
driver.go - Reconciliation driver

PURPOSE:
  Orchestrates snapshot maintenance on top of the pure aggregator:

    EnsureSnapshots      full rebuild from the earliest data through a target
                         cycle, threading carryover forward cycle by cycle
    SnapshotSingleCycle  cheap refresh of exactly one cycle, reusing the
                         previous cycle's persisted running carryover
    AddManualCycle       backfill a historical cycle from user-entered spend,
                         then patch the carryover chain forward through every
                         later snapshot

FORWARD PROPAGATION:
  Editing a past cycle changes the carryover entering every later cycle.
  The later cycles' own budgets and transactions have not changed, so their
  budgetBase/spent/carryoverOut are left untouched; only carryoverAppliedIn,
  carryoverRunningTotal and the cycle-level carryover totals are recomputed
  from the corrected chain.

FAILURE SEMANTICS:
  All validation happens before the first write. Each cycle's replacement is
  atomic in the store; a caller that fails mid-walk re-invokes
  EnsureSnapshots, which is safe because rebuilds are idempotent per cycle.

CONCURRENCY:
  One driver call per owner at a time. The host serializes mutations per
  owner; the driver itself takes no locks.

SEE ALSO:
  - aggregate.go: The per-cycle computation
  - store.go: SourceStore / SnapshotStore contracts
*/
package budget

import (
	"context"
	"math"
)

// =============================================================================
// DRIVER
// =============================================================================

// Driver composes the resolver, aggregator and stores into the three
// mutating entry points. It is the only writer of the SnapshotStore.
type Driver struct {
	Source    SourceStore
	Snapshots SnapshotStore

	// Now supplies "today" for current-cycle resolution. Overridable in
	// tests; defaults to Today.
	Now func() Date
}

func NewDriver(source SourceStore, snapshots SnapshotStore) *Driver {
	return &Driver{Source: source, Snapshots: snapshots, Now: Today}
}

// =============================================================================
// REBUILD-THROUGH
// =============================================================================

// EnsureSnapshots rebuilds every cycle from the earliest cycle with any data
// through the cycle containing through (default: today), inclusive. Walking
// strictly forward guarantees each cycle consumes an already-corrected
// carryover map; the walk starts with an empty map because nothing precedes
// the first cycle.
//
// No-op when the owner has no budgets and no transactions. Idempotent:
// unchanged inputs produce identical snapshot rows.
func (d *Driver) EnsureSnapshots(ctx context.Context, owner OwnerID, through *Date) error {
	settings, err := d.Source.Settings(ctx, owner)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	earliest, err := d.Source.EarliestActivity(ctx, owner)
	if err != nil {
		return err
	}
	if earliest == nil {
		return nil
	}

	target := d.Now()
	if through != nil {
		target = *through
	}
	targetPeriod := settings.PeriodContaining(target)

	current := settings.PeriodContaining(*earliest)
	carryover := map[string]float64{}
	for current.Start.BeforeOrEqual(targetPeriod.Start) {
		result, err := d.computeCycle(ctx, owner, current, carryover)
		if err != nil {
			return err
		}
		if err := d.Snapshots.ReplaceCycle(ctx, owner, result.Cycle, result.Categories); err != nil {
			return err
		}
		carryover = result.CarryoverByCategory()
		current = current.NextPeriod()
	}
	return nil
}

// =============================================================================
// REBUILD-SINGLE
// =============================================================================

// SnapshotSingleCycle recomputes exactly the cycle containing periodStart.
// It trusts the previous cycle's persisted running carryover instead of
// walking from the beginning, which makes it the cheap path for refreshing
// today's in-progress cycle after new transactions land.
func (d *Driver) SnapshotSingleCycle(ctx context.Context, owner OwnerID, periodStart Date) error {
	settings, err := d.Source.Settings(ctx, owner)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	period := settings.PeriodContaining(periodStart)
	carryover, err := d.persistedCarryoverBefore(ctx, owner, period)
	if err != nil {
		return err
	}

	result, err := d.computeCycle(ctx, owner, period, carryover)
	if err != nil {
		return err
	}
	return d.Snapshots.ReplaceCycle(ctx, owner, result.Cycle, result.Categories)
}

// =============================================================================
// MANUAL HISTORICAL ENTRY
// =============================================================================

// AddManualCycle backfills a cycle that predates automated tracking from
// per-category spent amounts. Entries are all-or-nothing: one finite
// non-negative value for every expense category existing at entry time, no
// unknown ids. The period must lie strictly before the current cycle.
//
// After persisting the entered cycle, every later snapshot's carryover chain
// is patched forward in ascending order.
func (d *Driver) AddManualCycle(ctx context.Context, owner OwnerID, periodStart Date, entries map[string]float64) error {
	settings, err := d.Source.Settings(ctx, owner)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	period := settings.PeriodContaining(periodStart)
	current := settings.PeriodContaining(d.Now())
	if !period.Start.Before(current.Start) {
		return ErrNotPastPeriod
	}

	categories, err := d.Source.ExpenseCategories(ctx, owner)
	if err != nil {
		return err
	}
	if err := validateManualEntries(categories, entries); err != nil {
		return err
	}

	// Entering carryover is looked up from the previous cycle's persisted
	// rows, not recomputed.
	carryover, err := d.persistedCarryoverBefore(ctx, owner, period)
	if err != nil {
		return err
	}

	allocations, err := d.Source.AllocationsForPeriod(ctx, owner, period.Start)
	if err != nil {
		return err
	}

	result := AggregateManualCycle(period, categories, allocations, entries, carryover)
	if err := d.Snapshots.ReplaceCycle(ctx, owner, result.Cycle, result.Categories); err != nil {
		return err
	}

	return d.propagateForward(ctx, owner, period.Start, result.CarryoverByCategory())
}

func validateManualEntries(categories []Category, entries map[string]float64) error {
	if len(categories) == 0 {
		return ErrNoCategories
	}

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		spent, ok := entries[c.ID]
		if !ok {
			return &EntryError{CategoryID: c.ID, Err: ErrMissingCategoryEntry}
		}
		if spent < 0 || math.IsNaN(spent) || math.IsInf(spent, 0) {
			return &EntryError{CategoryID: c.ID, Err: ErrInvalidSpentValue}
		}
	}
	for id := range entries {
		if !known[id] {
			return &EntryError{CategoryID: id, Err: ErrUnknownCategory}
		}
	}
	return nil
}

// propagateForward re-walks every snapshot after editedStart in ascending
// order, rewriting only the carryover-chain fields. Categories present in
// the chain but absent from a later cycle's rows drop out with carryover 0,
// per the chain invariant.
func (d *Driver) propagateForward(ctx context.Context, owner OwnerID, editedStart Date, carryover map[string]float64) error {
	later, err := d.Snapshots.CyclesAfter(ctx, owner, editedStart)
	if err != nil {
		return err
	}

	for _, cycle := range later {
		rows, err := d.Snapshots.CategoryRowsAt(ctx, owner, cycle.PeriodStart)
		if err != nil {
			return err
		}

		for i := range rows {
			in := carryover[rows[i].CategoryID]
			rows[i].CarryoverAppliedIn = in
			rows[i].CarryoverRunningTotal = in + rows[i].CarryoverOut
		}
		cycle.CarryoverPositiveTotal, cycle.CarryoverNegativeTotal, cycle.CarryoverNetTotal = CarryoverTotals(rows)

		if err := d.Snapshots.ReplaceCycle(ctx, owner, cycle, rows); err != nil {
			return err
		}

		next := make(map[string]float64, len(rows))
		for _, row := range rows {
			next[row.CategoryID] = row.CarryoverRunningTotal
		}
		carryover = next
	}
	return nil
}

// =============================================================================
// SHARED PLUMBING
// =============================================================================

// computeCycle loads one cycle's raw facts and runs the aggregator.
func (d *Driver) computeCycle(ctx context.Context, owner OwnerID, period Period, carryover map[string]float64) (CycleResult, error) {
	categories, err := d.Source.ExpenseCategories(ctx, owner)
	if err != nil {
		return CycleResult{}, err
	}
	allocations, err := d.Source.AllocationsForPeriod(ctx, owner, period.Start)
	if err != nil {
		return CycleResult{}, err
	}
	transactions, err := d.Source.TransactionsInRange(ctx, owner, period.Start, period.End)
	if err != nil {
		return CycleResult{}, err
	}

	return AggregateCycle(CycleInput{
		Period:       period,
		Categories:   categories,
		Allocations:  allocations,
		Transactions: transactions,
		CarryoverIn:  carryover,
	}), nil
}

// persistedCarryoverBefore reads the running totals of the cycle preceding
// period. Empty map when that cycle was never snapshotted (first cycle, or
// a gap the caller accepts).
func (d *Driver) persistedCarryoverBefore(ctx context.Context, owner OwnerID, period Period) (map[string]float64, error) {
	prev := period.PreviousPeriod()
	rows, err := d.Snapshots.CategoryRowsAt(ctx, owner, prev.Start)
	if err != nil {
		return nil, err
	}
	carryover := make(map[string]float64, len(rows))
	for _, row := range rows {
		carryover[row.CategoryID] = row.CarryoverRunningTotal
	}
	return carryover, nil
}
