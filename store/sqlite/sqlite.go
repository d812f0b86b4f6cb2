/*
Package sqlite provides the SQLite-backed implementation of the budget
engine's storage interfaces.

PURPOSE:
  Implements budget.SourceStore and budget.SnapshotStore on an embedded
  database, and additionally hosts the raw-fact tables (settings,
  categories, budgets, transactions) that external collaborators write.
  The in-memory adapter in budget/store covers the same interfaces for the
  offline/testing path; because every computation happens in the shared
  budget package, the two adapters yield bit-identical snapshots.

KEY TABLES:
  budget_settings:          One row per owner (cycle length + anchor date)
  categories:               Category tree (one level), rollover config
  budgets:                  (owner, category, period_start) -> amount
  transactions:             Raw ledger facts; the engine only reads these
  cycle_snapshots:          Cycle-level derived rows, keyed by period_start
  category_cycle_snapshots: Category-level derived rows

REPLACEMENT CONTRACT:
  ReplaceCycle deletes both snapshot tables' rows for the period and inserts
  the fresh set inside one database transaction, so a cycle is never visible
  half-replaced and rebuilds are idempotent rather than additive.

OWNER SCOPING:
  Every table carries owner_id and every query filters on it. Writes that
  reference a category outside the owner's scope fail with
  budget.ErrUnknownCategory instead of being silently skipped.

WAL MODE:
  Opened with WAL and foreign keys on, as in any multi-reader deployment.

SEE ALSO:
  - budget/store.go: Interface contracts
  - budget/store/memory.go: In-memory twin
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/budget-engine/budget"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budget_settings (
		owner_id TEXT PRIMARY KEY,
		cycle_length_days INTEGER NOT NULL,
		anchor_date TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		owner_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'expense',
		rollover_mode TEXT NOT NULL DEFAULT 'none',
		parent_id TEXT,
		carryover_adjustment REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		PRIMARY KEY (owner_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_categories_parent
		ON categories(owner_id, parent_id);

	CREATE TABLE IF NOT EXISTS budgets (
		owner_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		amount REAL NOT NULL,
		PRIMARY KEY (owner_id, category_id, period_start)
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_period
		ON budgets(owner_id, period_start);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		date TEXT NOT NULL,
		amount REAL NOT NULL,
		category_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: range reads per cycle during rebuilds
	CREATE INDEX IF NOT EXISTS idx_transactions_owner_date
		ON transactions(owner_id, date);

	CREATE TABLE IF NOT EXISTS cycle_snapshots (
		owner_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		period_length_days INTEGER NOT NULL,
		total_budget_base REAL NOT NULL,
		total_spent REAL NOT NULL,
		over_under_base REAL NOT NULL,
		carryover_positive_total REAL NOT NULL,
		carryover_negative_total REAL NOT NULL,
		carryover_net_total REAL NOT NULL,
		PRIMARY KEY (owner_id, period_start)
	);

	CREATE TABLE IF NOT EXISTS category_cycle_snapshots (
		owner_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		category_id TEXT NOT NULL,
		category_name TEXT NOT NULL,
		rollover_mode TEXT NOT NULL,
		budget_base REAL NOT NULL,
		spent REAL NOT NULL,
		remaining_base REAL NOT NULL,
		carryover_applied_in REAL NOT NULL,
		carryover_out REAL NOT NULL,
		carryover_running_total REAL NOT NULL,
		PRIMARY KEY (owner_id, period_start, category_id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SETTINGS
// =============================================================================

// PutSettings validates and upserts the owner's cycle configuration.
// Changing settings never rewrites already-persisted snapshots.
func (s *Store) PutSettings(ctx context.Context, owner budget.OwnerID, settings budget.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO budget_settings (owner_id, cycle_length_days, anchor_date, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			cycle_length_days = excluded.cycle_length_days,
			anchor_date = excluded.anchor_date,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		owner, settings.CycleLengthDays, settings.AnchorDate.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Settings implements budget.SourceStore.
func (s *Store) Settings(ctx context.Context, owner budget.OwnerID) (budget.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		cycleLength int
		anchor      string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT cycle_length_days, anchor_date FROM budget_settings WHERE owner_id = ?",
		owner,
	).Scan(&cycleLength, &anchor)

	if err == sql.ErrNoRows {
		return budget.Settings{}, budget.ErrSettingsNotFound
	}
	if err != nil {
		return budget.Settings{}, err
	}

	anchorDate, err := budget.ParseDate(anchor)
	if err != nil {
		return budget.Settings{}, err
	}
	return budget.Settings{CycleLengthDays: cycleLength, AnchorDate: anchorDate}, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

// SaveCategory creates or updates a category. A non-empty parent must exist
// for the same owner and be top-level.
func (s *Store) SaveCategory(ctx context.Context, owner budget.OwnerID, c budget.Category) error {
	if c.RolloverMode == "" {
		c.RolloverMode = budget.RolloverNone
	}
	if !budget.ValidRolloverMode(c.RolloverMode) {
		return budget.ErrInvalidRolloverMode
	}
	if c.Kind == "" {
		c.Kind = budget.KindExpense
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ParentID != "" {
		var parentParent sql.NullString
		err := s.db.QueryRowContext(ctx,
			"SELECT parent_id FROM categories WHERE owner_id = ? AND id = ?",
			owner, c.ParentID,
		).Scan(&parentParent)
		if err == sql.ErrNoRows || (err == nil && parentParent.String != "") {
			return budget.ErrUnknownCategory
		}
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO categories (owner_id, id, name, kind, rollover_mode, parent_id, carryover_adjustment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			rollover_mode = excluded.rollover_mode,
			parent_id = excluded.parent_id,
			carryover_adjustment = excluded.carryover_adjustment
	`
	_, err := s.db.ExecContext(ctx, query,
		owner, c.ID, c.Name, c.Kind, c.RolloverMode,
		nullString(c.ParentID), c.CarryoverAdjustment,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// DeleteCategory removes a category, cascades its budget rows, and detaches
// its children.
func (s *Store) DeleteCategory(ctx context.Context, owner budget.OwnerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE owner_id = ? AND id = ?", owner, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return budget.ErrUnknownCategory
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE categories SET parent_id = NULL WHERE owner_id = ? AND parent_id = ?", owner, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM budgets WHERE owner_id = ? AND category_id = ?", owner, id); err != nil {
		return err
	}

	return tx.Commit()
}

// ListCategories returns all of the owner's categories, every kind, ordered
// by id.
func (s *Store) ListCategories(ctx context.Context, owner budget.OwnerID) ([]budget.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCategories(ctx,
		`SELECT id, name, kind, rollover_mode, parent_id, carryover_adjustment
		 FROM categories WHERE owner_id = ? ORDER BY id`, owner)
}

// ExpenseCategories implements budget.SourceStore.
func (s *Store) ExpenseCategories(ctx context.Context, owner budget.OwnerID) ([]budget.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCategories(ctx,
		`SELECT id, name, kind, rollover_mode, parent_id, carryover_adjustment
		 FROM categories WHERE owner_id = ? AND kind = 'expense' ORDER BY id`, owner)
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]budget.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []budget.Category
	for rows.Next() {
		var (
			c        budget.Category
			parentID sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.RolloverMode, &parentID, &c.CarryoverAdjustment); err != nil {
			return nil, err
		}
		c.ParentID = parentID.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// =============================================================================
// BUDGETS
// =============================================================================

// UpsertAllocation sets the budget base for (category, period). The category
// must exist in the owner's scope.
func (s *Store) UpsertAllocation(ctx context.Context, owner budget.OwnerID, a budget.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE owner_id = ? AND id = ?",
		owner, a.CategoryID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return budget.ErrUnknownCategory
	}

	query := `
		INSERT INTO budgets (owner_id, category_id, period_start, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, category_id, period_start) DO UPDATE SET
			amount = excluded.amount
	`
	_, err = s.db.ExecContext(ctx, query, owner, a.CategoryID, a.PeriodStart.String(), a.Amount)
	return err
}

// AllocationsForPeriod implements budget.SourceStore.
func (s *Store) AllocationsForPeriod(ctx context.Context, owner budget.OwnerID, periodStart budget.Date) ([]budget.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAllocations(ctx,
		`SELECT category_id, period_start, amount FROM budgets
		 WHERE owner_id = ? AND period_start = ? ORDER BY category_id`,
		owner, periodStart.String())
}

// ListAllocations returns every budget row for the owner, ordered by period
// then category.
func (s *Store) ListAllocations(ctx context.Context, owner budget.OwnerID) ([]budget.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAllocations(ctx,
		`SELECT category_id, period_start, amount FROM budgets
		 WHERE owner_id = ? ORDER BY period_start, category_id`, owner)
}

func (s *Store) queryAllocations(ctx context.Context, query string, args ...any) ([]budget.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var allocations []budget.Allocation
	for rows.Next() {
		var (
			a     budget.Allocation
			start string
		)
		if err := rows.Scan(&a.CategoryID, &start, &a.Amount); err != nil {
			return nil, err
		}
		if a.PeriodStart, err = budget.ParseDate(start); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// AddTransaction appends a raw ledger fact. IDs are assigned when absent; a
// non-empty category reference must resolve within the owner's scope.
func (s *Store) AddTransaction(ctx context.Context, owner budget.OwnerID, tx budget.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.CategoryID != "" {
		var exists int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM categories WHERE owner_id = ? AND id = ?",
			owner, tx.CategoryID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return budget.ErrUnknownCategory
		}
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, date, amount, category_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, owner, tx.Date.String(), tx.Amount, nullString(tx.CategoryID),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		// Same id re-submitted; the ledger already has the fact.
		return nil
	}
	return err
}

// TransactionsInRange implements budget.SourceStore: date in [from, to).
func (s *Store) TransactionsInRange(ctx context.Context, owner budget.OwnerID, from, to budget.Date) ([]budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTransactions(ctx,
		`SELECT id, date, amount, category_id FROM transactions
		 WHERE owner_id = ? AND date >= ? AND date < ?
		 ORDER BY date, id`,
		owner, from.String(), to.String())
}

// ListTransactions returns the owner's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, owner budget.OwnerID, limit int) ([]budget.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	return s.queryTransactions(ctx,
		`SELECT id, date, amount, category_id FROM transactions
		 WHERE owner_id = ? ORDER BY date DESC, id LIMIT ?`,
		owner, limit)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]budget.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []budget.Transaction
	for rows.Next() {
		var (
			tx         budget.Transaction
			date       string
			categoryID sql.NullString
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Amount, &categoryID); err != nil {
			return nil, err
		}
		if tx.Date, err = budget.ParseDate(date); err != nil {
			return nil, err
		}
		tx.CategoryID = categoryID.String
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// EarliestActivity implements budget.SourceStore.
func (s *Store) EarliestActivity(ctx context.Context, owner budget.OwnerID) (*budget.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var earliest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(d) FROM (
			SELECT MIN(period_start) AS d FROM budgets WHERE owner_id = ?
			UNION ALL
			SELECT MIN(date) AS d FROM transactions WHERE owner_id = ?
		)`,
		owner, owner,
	).Scan(&earliest)
	if err != nil {
		return nil, err
	}
	if !earliest.Valid {
		return nil, nil
	}

	d, err := budget.ParseDate(earliest.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// =============================================================================
// SNAPSHOT STORE (budget.SnapshotStore interface)
// =============================================================================

// ReplaceCycle swaps all snapshot rows for one period inside a single
// database transaction.
func (s *Store) ReplaceCycle(ctx context.Context, owner budget.OwnerID, cycle budget.CycleSnapshot, rows []budget.CategoryCycleSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	key := cycle.PeriodStart.String()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cycle_snapshots WHERE owner_id = ? AND period_start = ?", owner, key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM category_cycle_snapshots WHERE owner_id = ? AND period_start = ?", owner, key); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cycle_snapshots
		(owner_id, period_start, period_end, period_length_days, total_budget_base,
		 total_spent, over_under_base, carryover_positive_total, carryover_negative_total,
		 carryover_net_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner, key, cycle.PeriodEnd.String(), cycle.PeriodLengthDays,
		cycle.TotalBudgetBase, cycle.TotalSpent, cycle.OverUnderBase,
		cycle.CarryoverPositiveTotal, cycle.CarryoverNegativeTotal, cycle.CarryoverNetTotal,
	); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_cycle_snapshots
			(owner_id, period_start, category_id, category_name, rollover_mode,
			 budget_base, spent, remaining_base, carryover_applied_in, carryover_out,
			 carryover_running_total)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			owner, key, row.CategoryID, row.CategoryName, row.RolloverMode,
			row.BudgetBase, row.Spent, row.RemainingBase,
			row.CarryoverAppliedIn, row.CarryoverOut, row.CarryoverRunningTotal,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CycleAt returns the cycle-level row for a period start.
func (s *Store) CycleAt(ctx context.Context, owner budget.OwnerID, periodStart budget.Date) (*budget.CycleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cycles, err := s.queryCycles(ctx,
		cycleSelect+" WHERE owner_id = ? AND period_start = ?",
		owner, periodStart.String())
	if err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return nil, budget.ErrSnapshotNotFound
	}
	return &cycles[0], nil
}

// CategoryRowsAt returns the category-level rows for a period start, ordered
// by category id.
func (s *Store) CategoryRowsAt(ctx context.Context, owner budget.OwnerID, periodStart budget.Date) ([]budget.CategoryCycleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT period_start, category_id, category_name, rollover_mode, budget_base,
		       spent, remaining_base, carryover_applied_in, carryover_out,
		       carryover_running_total
		FROM category_cycle_snapshots
		WHERE owner_id = ? AND period_start = ?
		ORDER BY category_id`,
		owner, periodStart.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query category snapshots: %w", err)
	}
	defer rows.Close()

	var out []budget.CategoryCycleSnapshot
	for rows.Next() {
		var (
			row   budget.CategoryCycleSnapshot
			start string
		)
		if err := rows.Scan(&start, &row.CategoryID, &row.CategoryName, &row.RolloverMode,
			&row.BudgetBase, &row.Spent, &row.RemainingBase,
			&row.CarryoverAppliedIn, &row.CarryoverOut, &row.CarryoverRunningTotal); err != nil {
			return nil, err
		}
		if row.PeriodStart, err = budget.ParseDate(start); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CyclesAfter returns cycle rows with period_start strictly after the given
// date, ascending.
func (s *Store) CyclesAfter(ctx context.Context, owner budget.OwnerID, periodStart budget.Date) ([]budget.CycleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCycles(ctx,
		cycleSelect+" WHERE owner_id = ? AND period_start > ? ORDER BY period_start ASC",
		owner, periodStart.String())
}

// ListCycles pages cycle rows by period_start descending. nextCursor is the
// period start of the first excluded row; passing it back starts the next
// page at that row (the cursor is inclusive).
func (s *Store) ListCycles(ctx context.Context, owner budget.OwnerID, limit int, cursor *budget.Date) ([]budget.CycleSnapshot, *budget.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	var (
		cycles []budget.CycleSnapshot
		err    error
	)
	// Fetch one extra row to learn whether another page exists.
	if cursor != nil {
		cycles, err = s.queryCycles(ctx,
			cycleSelect+" WHERE owner_id = ? AND period_start <= ? ORDER BY period_start DESC LIMIT ?",
			owner, cursor.String(), limit+1)
	} else {
		cycles, err = s.queryCycles(ctx,
			cycleSelect+" WHERE owner_id = ? ORDER BY period_start DESC LIMIT ?",
			owner, limit+1)
	}
	if err != nil {
		return nil, nil, err
	}

	if len(cycles) <= limit {
		return cycles, nil, nil
	}
	next := cycles[limit].PeriodStart
	return cycles[:limit], &next, nil
}

const cycleSelect = `
	SELECT period_start, period_end, period_length_days, total_budget_base,
	       total_spent, over_under_base, carryover_positive_total,
	       carryover_negative_total, carryover_net_total
	FROM cycle_snapshots`

func (s *Store) queryCycles(ctx context.Context, query string, args ...any) ([]budget.CycleSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle snapshots: %w", err)
	}
	defer rows.Close()

	var cycles []budget.CycleSnapshot
	for rows.Next() {
		var (
			c          budget.CycleSnapshot
			start, end string
		)
		if err := rows.Scan(&start, &end, &c.PeriodLengthDays, &c.TotalBudgetBase,
			&c.TotalSpent, &c.OverUnderBase, &c.CarryoverPositiveTotal,
			&c.CarryoverNegativeTotal, &c.CarryoverNetTotal); err != nil {
			return nil, err
		}
		if c.PeriodStart, err = budget.ParseDate(start); err != nil {
			return nil, err
		}
		if c.PeriodEnd, err = budget.ParseDate(end); err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"category_cycle_snapshots", "cycle_snapshots",
		"transactions", "budgets", "categories", "budget_settings",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
