/*
Package budget implements the budget cycle engine.

PURPOSE:
  This package contains the types and algorithms for period-indexed budget
  reconciliation: tiling time into fixed-length cycles from an anchor date,
  computing per-category and per-cycle totals, and threading carryover from
  cycle to cycle so that edits to past cycles can be propagated forward.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar day (the only time granularity the engine knows)
  - Settings: Cycle length + anchor date, passed explicitly into every call
  - Category: Budget category with rollover mode and optional parent
  - Allocation: Budgeted amount for one category in one cycle
  - Transaction: Raw ledger fact (read-only input to the engine)
  - CycleSnapshot / CategoryCycleSnapshot: Materialized aggregator output

DESIGN PRINCIPLES:
  1. Purity: aggregation is a pure function of its inputs; all I/O lives
     behind the SourceStore/SnapshotStore interfaces
  2. Disposability: snapshots are fully rebuildable from raw facts
  3. IEEE-754: money is float64 throughout; no intermediate rounding, so the
     memory and SQLite adapters produce bit-identical results
  4. No ambient state: Settings is a value, never a global

SEE ALSO:
  - period.go: Cycle tiling from the anchor date
  - rollover.go: Carryover policy per rollover mode
  - aggregate.go: Per-cycle computation
  - driver.go: Rebuild orchestration and forward propagation
*/
package budget

import "time"

// =============================================================================
// DATE - Day-granular time point
// =============================================================================

// Date is a calendar day, stored as UTC midnight. All engine arithmetic is
// day-granular; anything finer belongs to the collaborators that feed us.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.normalize().AddDate(0, 0, n)} }

func (d Date) IsZero() bool { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format(dateLayout) }

// DaysBetween returns the whole-day distance from one date to another.
// Negative when to is before from.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// OwnerID scopes every read and write. An owner is a device, user, or family;
// the engine never mixes data across owners.
type OwnerID string

// =============================================================================
// SETTINGS - Cycle tiling configuration
// =============================================================================

// Settings defines how time is tiled into cycles for one owner.
// Changing settings affects future period resolution only; it never rewrites
// snapshots already persisted.
type Settings struct {
	CycleLengthDays int
	AnchorDate      Date
}

// Validate rejects settings the resolver cannot work with.
func (s Settings) Validate() error {
	if s.CycleLengthDays < 1 {
		return ErrInvalidCycleLength
	}
	if s.AnchorDate.IsZero() {
		return ErrInvalidAnchorDate
	}
	return nil
}

// =============================================================================
// CATEGORY
// =============================================================================

type RolloverMode string

const (
	RolloverNone     RolloverMode = "none"     // remainder never carries
	RolloverPositive RolloverMode = "positive" // only surplus carries
	RolloverNegative RolloverMode = "negative" // only deficit carries
	RolloverBoth     RolloverMode = "both"     // remainder carries unchanged
)

// ValidRolloverMode reports whether m is one of the four known modes.
func ValidRolloverMode(m RolloverMode) bool {
	switch m {
	case RolloverNone, RolloverPositive, RolloverNegative, RolloverBoth:
		return true
	}
	return false
}

type CategoryKind string

const (
	KindExpense  CategoryKind = "expense"
	KindIncome   CategoryKind = "income"
	KindTransfer CategoryKind = "transfer"
)

// Category is a budget category. Only expense categories participate in
// budgeting and carryover; income/transfer kinds are excluded upstream.
// Hierarchy is one level deep: a category either has no parent or its parent
// is itself top-level.
type Category struct {
	ID           string
	Name         string
	Kind         CategoryKind
	RolloverMode RolloverMode
	ParentID     string // empty for top-level categories

	// CarryoverAdjustment is a manual one-off nudge owned by the user.
	// It is a display-time overlay on the running total and is never part
	// of the persisted carryover chain, so recomputation cannot clobber it.
	CarryoverAdjustment float64
}

// IsTopLevel reports whether the category has no parent.
func (c Category) IsTopLevel() bool { return c.ParentID == "" }

// =============================================================================
// RAW FACTS - read-only inputs to the engine
// =============================================================================

// Allocation is a budgeted amount for one category in one cycle.
// Cycles without a row imply amount 0.
type Allocation struct {
	CategoryID  string
	PeriodStart Date
	Amount      float64
}

// Transaction is a raw ledger fact. The engine only ever reads transactions;
// it never mutates them.
type Transaction struct {
	ID         string
	Date       Date
	Amount     float64
	CategoryID string // empty = uncategorized
}

// =============================================================================
// SNAPSHOTS - Materialized aggregator output
// =============================================================================

// CycleSnapshot is the cycle-level record, keyed by PeriodStart. Derived and
// fully replaceable: every rebuild of a cycle deletes and reinserts it.
type CycleSnapshot struct {
	PeriodStart      Date
	PeriodEnd        Date
	PeriodLengthDays int

	TotalBudgetBase float64
	TotalSpent      float64
	OverUnderBase   float64 // TotalBudgetBase - TotalSpent

	CarryoverPositiveTotal float64 // sum of category running totals > 0
	CarryoverNegativeTotal float64 // sum of category running totals < 0
	CarryoverNetTotal      float64
}

// CategoryCycleSnapshot is the per-category record, keyed by
// (PeriodStart, CategoryID). RolloverMode and CategoryName are captured at
// computation time so history survives later category edits.
//
// CarryoverRunningTotal is the single value threaded into the next cycle's
// CarryoverAppliedIn for the same category. Categories absent from a cycle's
// snapshot enter the next cycle with carryover 0.
type CategoryCycleSnapshot struct {
	PeriodStart  Date
	CategoryID   string
	CategoryName string
	RolloverMode RolloverMode

	BudgetBase    float64
	Spent         float64
	RemainingBase float64 // BudgetBase - Spent

	CarryoverAppliedIn    float64 // previous cycle's running total
	CarryoverOut          float64 // this cycle's contribution per rollover mode
	CarryoverRunningTotal float64 // CarryoverAppliedIn + CarryoverOut
}
