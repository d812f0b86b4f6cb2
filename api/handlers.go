/*
handlers.go - HTTP API handlers for the budget cycle engine

PURPOSE:
  Exposes the engine and its raw-fact storage via REST. Handlers parse and
  validate HTTP input, delegate to the store or the reconciliation driver,
  and serialize responses.

ENDPOINTS:
  Settings:
    GET    /api/settings                   Cycle configuration
    PUT    /api/settings                   Upsert cycle configuration

  Categories:
    GET    /api/categories                 List all categories
    POST   /api/categories                 Create/update category
    DELETE /api/categories/{id}            Delete (cascades budgets)

  Budgets & transactions (raw facts; the engine reads, never writes):
    GET    /api/budgets[?period_start=]    Budget rows
    PUT    /api/budgets                    Upsert one budget row
    GET    /api/transactions               Recent transactions
    POST   /api/transactions               Append a transaction

  Cycles (engine output and entry points):
    GET    /api/cycles?limit=&cursor=      Page snapshots, newest first
    GET    /api/cycles/{periodStart}       One cycle + category rows
    POST   /api/cycles/rebuild             Rebuild-through (ensureSnapshots)
    POST   /api/cycles/{periodStart}/rebuild  Single-cycle refresh
    POST   /api/cycles/manual              Manual historical entry

OWNER SCOPING:
  The owner comes from the X-Owner-ID header (default "default"). Every
  store call is scoped by it; the engine itself serializes per owner.

ERROR HANDLING:
  - 400: budget.IsValidation errors (descriptive reason in body)
  - 404: budget.IsNotFound errors
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
  - scenarios.go: Demo data seeding
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Driver *budget.Driver
}

// NewHandler creates a handler backed by the SQLite store; the store serves
// as both the source of raw facts and the snapshot store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Driver: budget.NewDriver(store, store),
	}
}

const defaultOwner = budget.OwnerID("default")

func ownerFrom(r *http.Request) budget.OwnerID {
	if o := r.Header.Get("X-Owner-ID"); o != "" {
		return budget.OwnerID(o)
	}
	return defaultOwner
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.Settings(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsDTO{
		CycleLengthDays: settings.CycleLengthDays,
		AnchorDate:      settings.AnchorDate.String(),
	})
}

func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	anchor, err := budget.ParseDate(req.AnchorDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid anchor_date (use YYYY-MM-DD)", err)
		return
	}

	settings := budget.Settings{CycleLengthDays: req.CycleLengthDays, AnchorDate: anchor}
	if err := h.Store.PutSettings(r.Context(), ownerFrom(r), settings); err != nil {
		writeDomainError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.ListCategories(r.Context(), ownerFrom(r))
	if err != nil {
		writeDomainError(w, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = categoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Category id and name are required", nil)
		return
	}

	c := budget.Category{
		ID:                  req.ID,
		Name:                req.Name,
		Kind:                budget.CategoryKind(req.Kind),
		RolloverMode:        budget.RolloverMode(req.RolloverMode),
		ParentID:            req.ParentID,
		CarryoverAdjustment: req.CarryoverAdjustment,
	}
	if err := h.Store.SaveCategory(r.Context(), ownerFrom(r), c); err != nil {
		writeDomainError(w, "Failed to save category", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteCategory(r.Context(), ownerFrom(r), id); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// BUDGET & TRANSACTION HANDLERS
// =============================================================================

func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)

	var (
		allocations []budget.Allocation
		err         error
	)
	if start := r.URL.Query().Get("period_start"); start != "" {
		var periodStart budget.Date
		if periodStart, err = budget.ParseDate(start); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period_start (use YYYY-MM-DD)", err)
			return
		}
		allocations, err = h.Store.AllocationsForPeriod(r.Context(), owner, periodStart)
	} else {
		allocations, err = h.Store.ListAllocations(r.Context(), owner)
	}
	if err != nil {
		writeDomainError(w, "Failed to list budgets", err)
		return
	}

	dtos := make([]AllocationDTO, len(allocations))
	for i, a := range allocations {
		dtos[i] = AllocationDTO{
			CategoryID:  a.CategoryID,
			PeriodStart: a.PeriodStart.String(),
			Amount:      a.Amount,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req AllocationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	periodStart, err := budget.ParseDate(req.PeriodStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_start (use YYYY-MM-DD)", err)
		return
	}

	a := budget.Allocation{CategoryID: req.CategoryID, PeriodStart: periodStart, Amount: req.Amount}
	if err := h.Store.UpsertAllocation(r.Context(), ownerFrom(r), a); err != nil {
		writeDomainError(w, "Failed to save budget", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 100)
	transactions, err := h.Store.ListTransactions(r.Context(), ownerFrom(r), limit)
	if err != nil {
		writeDomainError(w, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(transactions))
	for i, tx := range transactions {
		dtos[i] = TransactionDTO{
			ID:         tx.ID,
			Date:       tx.Date.String(),
			Amount:     tx.Amount,
			CategoryID: tx.CategoryID,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := budget.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	tx := budget.Transaction{ID: req.ID, Date: date, Amount: req.Amount, CategoryID: req.CategoryID}
	if err := h.Store.AddTransaction(r.Context(), ownerFrom(r), tx); err != nil {
		writeDomainError(w, "Failed to add transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// CYCLE HANDLERS
// =============================================================================

func (h *Handler) ListCycles(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 12)

	var cursor *budget.Date
	if c := r.URL.Query().Get("cursor"); c != "" {
		d, err := budget.ParseDate(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid cursor (use YYYY-MM-DD)", err)
			return
		}
		cursor = &d
	}

	items, next, err := h.Store.ListCycles(r.Context(), ownerFrom(r), limit, cursor)
	if err != nil {
		writeDomainError(w, "Failed to list cycles", err)
		return
	}

	resp := ListCyclesResponse{Items: make([]CycleSummaryDTO, len(items))}
	for i, c := range items {
		resp.Items[i] = cycleSummaryDTO(c)
	}
	if next != nil {
		resp.NextCursor = next.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetCycleDetail(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r)
	periodStart, err := budget.ParseDate(chi.URLParam(r, "periodStart"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period start (use YYYY-MM-DD)", err)
		return
	}

	resp := CycleDetailResponse{Categories: []CategorySnapshotDTO{}}

	cycle, err := h.Store.CycleAt(r.Context(), owner, periodStart)
	if err != nil && !budget.IsNotFound(err) {
		writeDomainError(w, "Failed to load cycle", err)
		return
	}
	if cycle != nil {
		dto := cycleSummaryDTO(*cycle)
		resp.Cycle = &dto
	}

	rows, err := h.Store.CategoryRowsAt(r.Context(), owner, periodStart)
	if err != nil {
		writeDomainError(w, "Failed to load cycle categories", err)
		return
	}

	adjustments, err := h.carryoverAdjustments(r, owner)
	if err != nil {
		writeDomainError(w, "Failed to load categories", err)
		return
	}

	for _, row := range rows {
		resp.Categories = append(resp.Categories, CategorySnapshotDTO{
			CategoryID:             row.CategoryID,
			CategoryName:           row.CategoryName,
			RolloverMode:           string(row.RolloverMode),
			BudgetBase:             row.BudgetBase,
			Spent:                  row.Spent,
			RemainingBase:          row.RemainingBase,
			CarryoverAppliedIn:     row.CarryoverAppliedIn,
			CarryoverOut:           row.CarryoverOut,
			CarryoverRunningTotal:  row.CarryoverRunningTotal,
			CarryoverAdjustedTotal: row.CarryoverRunningTotal + adjustments[row.CategoryID],
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// carryoverAdjustments maps category id to its manual adjustment, the
// display-time overlay on running totals.
func (h *Handler) carryoverAdjustments(r *http.Request, owner budget.OwnerID) (map[string]float64, error) {
	categories, err := h.Store.ListCategories(r.Context(), owner)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(categories))
	for _, c := range categories {
		if c.CarryoverAdjustment != 0 {
			out[c.ID] = c.CarryoverAdjustment
		}
	}
	return out, nil
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	var through *budget.Date
	if req.Through != "" {
		d, err := budget.ParseDate(req.Through)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid through date (use YYYY-MM-DD)", err)
			return
		}
		through = &d
	}

	if err := h.Driver.EnsureSnapshots(r.Context(), ownerFrom(r), through); err != nil {
		writeDomainError(w, "Rebuild failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RebuildSingle(w http.ResponseWriter, r *http.Request) {
	periodStart, err := budget.ParseDate(chi.URLParam(r, "periodStart"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period start (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Driver.SnapshotSingleCycle(r.Context(), ownerFrom(r), periodStart); err != nil {
		writeDomainError(w, "Rebuild failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) AddManualCycle(w http.ResponseWriter, r *http.Request) {
	var req ManualCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	periodStart, err := budget.ParseDate(req.PeriodStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_start (use YYYY-MM-DD)", err)
		return
	}

	entries := make(map[string]float64, len(req.Entries))
	for _, e := range req.Entries {
		entries[e.CategoryID] = e.Spent
	}

	if err := h.Driver.AddManualCycle(r.Context(), ownerFrom(r), periodStart, entries); err != nil {
		writeDomainError(w, "Manual entry rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// ResetDatabase clears everything (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parseIntQuery(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, msg string, err error) {
	switch {
	case budget.IsValidation(err):
		writeError(w, http.StatusBadRequest, msg, err)
	case budget.IsNotFound(err):
		writeError(w, http.StatusNotFound, msg, err)
	default:
		writeError(w, http.StatusInternalServerError, msg, err)
	}
}
