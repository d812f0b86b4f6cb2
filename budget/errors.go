/*
errors.go - Centralized error types for the budget engine

PURPOSE:
  All engine error types in one place. Storage adapters and the API layer
  wrap these with additional context and use errors.Is to classify them.

ERROR CATEGORIES:
  1. Validation errors - rejected before any write
  2. Consistency errors - references outside the owner's scope
  3. Not-found errors - missing settings or snapshots

The engine itself produces no transient/retryable errors: all of its work is
local computation over already-materialized data.
*/
package budget

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidCycleLength is returned for settings with cycleLengthDays < 1.
	ErrInvalidCycleLength = errors.New("cycle length must be at least 1 day")

	// ErrInvalidAnchorDate is returned when the anchor date is missing.
	ErrInvalidAnchorDate = errors.New("anchor date is required")

	// ErrInvalidDate is returned for dates that are not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")

	// ErrSettingsNotFound is returned when an owner has no budget settings.
	ErrSettingsNotFound = errors.New("budget settings not found")

	// ErrNotPastPeriod is returned when a manual entry targets the current
	// cycle or a future one. Manual entries backfill history only.
	ErrNotPastPeriod = errors.New("manual entry requires a period before the current cycle")

	// ErrNoCategories is returned when a manual entry is attempted with no
	// expense categories defined; an empty entry would silently seed the
	// carryover chain.
	ErrNoCategories = errors.New("no expense categories to enter")

	// ErrMissingCategoryEntry is returned when a manual entry omits a spent
	// amount for an existing expense category. Entry is all-or-nothing.
	ErrMissingCategoryEntry = errors.New("manual entry missing a category")

	// ErrInvalidSpentValue is returned for negative or non-finite spent values.
	ErrInvalidSpentValue = errors.New("spent value must be finite and non-negative")

	// ErrInvalidRolloverMode is returned for rollover modes outside
	// none/positive/negative/both.
	ErrInvalidRolloverMode = errors.New("invalid rollover mode")

	// ErrUnknownCategory is returned when a reference points at a category
	// that does not exist in the requesting owner's scope. Rejected rather
	// than skipped to prevent cross-tenant leakage.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrSnapshotNotFound is returned by point reads for cycles that have
	// never been snapshotted.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// EntryError pinpoints which category made a manual entry invalid.
type EntryError struct {
	CategoryID string
	Err        error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%v: category %s", e.Err, e.CategoryID)
}

func (e *EntryError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
// These map to HTTP 400 in the API layer.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCycleLength) ||
		errors.Is(err, ErrInvalidAnchorDate) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrNotPastPeriod) ||
		errors.Is(err, ErrNoCategories) ||
		errors.Is(err, ErrMissingCategoryEntry) ||
		errors.Is(err, ErrInvalidSpentValue) ||
		errors.Is(err, ErrInvalidRolloverMode) ||
		errors.Is(err, ErrUnknownCategory)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSettingsNotFound) ||
		errors.Is(err, ErrSnapshotNotFound)
}
