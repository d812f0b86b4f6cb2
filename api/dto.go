/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the internal
  domain model from the external contract. All dates are ISO calendar dates
  (YYYY-MM-DD); all money values are floating-point units in the owner's
  single working currency.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

DISPLAY OVERLAY:
  CategorySnapshotDTO carries carryover_adjusted_total: the stored running
  total plus the category's manual carryover adjustment. The adjustment is
  applied here, at display time, and is never written into the persisted
  carryover chain.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/warp/budget-engine/budget"

// =============================================================================
// SETTINGS
// =============================================================================

type SettingsDTO struct {
	CycleLengthDays int    `json:"cycle_length_days"`
	AnchorDate      string `json:"anchor_date"`
}

// =============================================================================
// CATEGORIES
// =============================================================================

type CategoryDTO struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Kind                string  `json:"kind"`
	RolloverMode        string  `json:"rollover_mode"`
	ParentID            string  `json:"parent_id,omitempty"`
	CarryoverAdjustment float64 `json:"carryover_adjustment,omitempty"`
}

func categoryDTO(c budget.Category) CategoryDTO {
	return CategoryDTO{
		ID:                  c.ID,
		Name:                c.Name,
		Kind:                string(c.Kind),
		RolloverMode:        string(c.RolloverMode),
		ParentID:            c.ParentID,
		CarryoverAdjustment: c.CarryoverAdjustment,
	}
}

// =============================================================================
// BUDGETS & TRANSACTIONS
// =============================================================================

type AllocationDTO struct {
	CategoryID  string  `json:"category_id"`
	PeriodStart string  `json:"period_start"`
	Amount      float64 `json:"amount"`
}

type CreateTransactionRequest struct {
	ID         string  `json:"id,omitempty"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	CategoryID string  `json:"category_id,omitempty"`
}

type TransactionDTO struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	CategoryID string  `json:"category_id,omitempty"`
}

// =============================================================================
// CYCLES
// =============================================================================

type CycleSummaryDTO struct {
	PeriodStart      string `json:"period_start"`
	PeriodEnd        string `json:"period_end"`
	PeriodLengthDays int    `json:"period_length_days"`

	TotalBudgetBase float64 `json:"total_budget_base"`
	TotalSpent      float64 `json:"total_spent"`
	OverUnderBase   float64 `json:"over_under_base"`

	CarryoverPositiveTotal float64 `json:"carryover_positive_total"`
	CarryoverNegativeTotal float64 `json:"carryover_negative_total"`
	CarryoverNetTotal      float64 `json:"carryover_net_total"`
}

func cycleSummaryDTO(c budget.CycleSnapshot) CycleSummaryDTO {
	return CycleSummaryDTO{
		PeriodStart:            c.PeriodStart.String(),
		PeriodEnd:              c.PeriodEnd.String(),
		PeriodLengthDays:       c.PeriodLengthDays,
		TotalBudgetBase:        c.TotalBudgetBase,
		TotalSpent:             c.TotalSpent,
		OverUnderBase:          c.OverUnderBase,
		CarryoverPositiveTotal: c.CarryoverPositiveTotal,
		CarryoverNegativeTotal: c.CarryoverNegativeTotal,
		CarryoverNetTotal:      c.CarryoverNetTotal,
	}
}

type CategorySnapshotDTO struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	RolloverMode string `json:"rollover_mode"`

	BudgetBase    float64 `json:"budget_base"`
	Spent         float64 `json:"spent"`
	RemainingBase float64 `json:"remaining_base"`

	CarryoverAppliedIn    float64 `json:"carryover_applied_in"`
	CarryoverOut          float64 `json:"carryover_out"`
	CarryoverRunningTotal float64 `json:"carryover_running_total"`

	// Stored running total plus the category's manual adjustment.
	CarryoverAdjustedTotal float64 `json:"carryover_adjusted_total"`
}

type ListCyclesResponse struct {
	Items      []CycleSummaryDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type CycleDetailResponse struct {
	Cycle      *CycleSummaryDTO      `json:"cycle"`
	Categories []CategorySnapshotDTO `json:"categories"`
}

// =============================================================================
// MUTATING REQUESTS
// =============================================================================

type RebuildRequest struct {
	Through string `json:"through,omitempty"` // YYYY-MM-DD; default today
}

type ManualEntryDTO struct {
	CategoryID string  `json:"category_id"`
	Spent      float64 `json:"spent"`
}

type ManualCycleRequest struct {
	PeriodStart string           `json:"period_start"`
	Entries     []ManualEntryDTO `json:"entries"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
