// Package store provides in-memory implementations of the budget engine's
// storage interfaces. This is the offline/testing adapter; the durable
// SQLite adapter lives in store/sqlite at the repository root. Both feed the
// same engine and must yield bit-identical snapshots for identical inputs.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// MEMORY STORE - SourceStore + SnapshotStore in one
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	settings     map[budget.OwnerID]budget.Settings
	categories   map[budget.OwnerID]map[string]budget.Category
	allocations  map[budget.OwnerID]map[allocKey]budget.Allocation
	transactions map[budget.OwnerID][]budget.Transaction
	cycles       map[budget.OwnerID]map[string]budget.CycleSnapshot
	rows         map[budget.OwnerID]map[string][]budget.CategoryCycleSnapshot
}

type allocKey struct {
	CategoryID  string
	PeriodStart string
}

func NewMemory() *Memory {
	return &Memory{
		settings:     make(map[budget.OwnerID]budget.Settings),
		categories:   make(map[budget.OwnerID]map[string]budget.Category),
		allocations:  make(map[budget.OwnerID]map[allocKey]budget.Allocation),
		transactions: make(map[budget.OwnerID][]budget.Transaction),
		cycles:       make(map[budget.OwnerID]map[string]budget.CycleSnapshot),
		rows:         make(map[budget.OwnerID]map[string][]budget.CategoryCycleSnapshot),
	}
}

// =============================================================================
// RAW FACT WRITES - the "external collaborator" surface
// =============================================================================

// PutSettings validates and stores the owner's cycle configuration.
func (m *Memory) PutSettings(_ context.Context, owner budget.OwnerID, s budget.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[owner] = s
	return nil
}

// SaveCategory creates or updates a category. A non-empty parent must exist,
// belong to the same owner, and be top-level (hierarchy is one level deep).
func (m *Memory) SaveCategory(_ context.Context, owner budget.OwnerID, c budget.Category) error {
	if c.RolloverMode == "" {
		c.RolloverMode = budget.RolloverNone
	}
	if !budget.ValidRolloverMode(c.RolloverMode) {
		return budget.ErrInvalidRolloverMode
	}
	if c.Kind == "" {
		c.Kind = budget.KindExpense
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cats := m.categories[owner]
	if cats == nil {
		cats = make(map[string]budget.Category)
		m.categories[owner] = cats
	}
	if c.ParentID != "" {
		parent, ok := cats[c.ParentID]
		if !ok || !parent.IsTopLevel() {
			return budget.ErrUnknownCategory
		}
	}
	cats[c.ID] = c
	return nil
}

// DeleteCategory removes a category, its budget rows, and its children's
// parent links. Cascade is a storage concern, not the engine's.
func (m *Memory) DeleteCategory(_ context.Context, owner budget.OwnerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cats := m.categories[owner]
	if _, ok := cats[id]; !ok {
		return budget.ErrUnknownCategory
	}
	delete(cats, id)
	for cid, c := range cats {
		if c.ParentID == id {
			c.ParentID = ""
			cats[cid] = c
		}
	}
	for k := range m.allocations[owner] {
		if k.CategoryID == id {
			delete(m.allocations[owner], k)
		}
	}
	return nil
}

// UpsertAllocation sets the budget base for (category, period). The category
// must exist in the owner's scope; cross-owner references are rejected, not
// skipped.
func (m *Memory) UpsertAllocation(_ context.Context, owner budget.OwnerID, a budget.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[owner][a.CategoryID]; !ok {
		return budget.ErrUnknownCategory
	}
	allocs := m.allocations[owner]
	if allocs == nil {
		allocs = make(map[allocKey]budget.Allocation)
		m.allocations[owner] = allocs
	}
	allocs[allocKey{CategoryID: a.CategoryID, PeriodStart: a.PeriodStart.String()}] = a
	return nil
}

// AddTransaction appends a raw ledger fact. A non-empty category reference
// must resolve within the owner's scope.
func (m *Memory) AddTransaction(_ context.Context, owner budget.OwnerID, tx budget.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.CategoryID != "" {
		if _, ok := m.categories[owner][tx.CategoryID]; !ok {
			return budget.ErrUnknownCategory
		}
	}
	txs := m.transactions[owner]

	// Keep the slice ordered by date so range reads stay deterministic.
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].Date.After(tx.Date)
	})
	txs = append(txs, budget.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	m.transactions[owner] = txs
	return nil
}

// =============================================================================
// SOURCE STORE (budget.SourceStore interface)
// =============================================================================

func (m *Memory) Settings(_ context.Context, owner budget.OwnerID) (budget.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[owner]
	if !ok {
		return budget.Settings{}, budget.ErrSettingsNotFound
	}
	return s, nil
}

func (m *Memory) ExpenseCategories(_ context.Context, owner budget.OwnerID) ([]budget.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []budget.Category
	for _, c := range m.categories[owner] {
		if c.Kind == budget.KindExpense {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AllocationsForPeriod(_ context.Context, owner budget.OwnerID, periodStart budget.Date) ([]budget.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []budget.Allocation
	for k, a := range m.allocations[owner] {
		if k.PeriodStart == periodStart.String() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (m *Memory) TransactionsInRange(_ context.Context, owner budget.OwnerID, from, to budget.Date) ([]budget.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []budget.Transaction
	for _, tx := range m.transactions[owner] {
		if tx.Date.AfterOrEqual(from) && tx.Date.Before(to) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *Memory) EarliestActivity(_ context.Context, owner budget.OwnerID) (*budget.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var earliest *budget.Date
	consider := func(d budget.Date) {
		if earliest == nil || d.Before(*earliest) {
			copied := d
			earliest = &copied
		}
	}
	for _, a := range m.allocations[owner] {
		consider(a.PeriodStart)
	}
	for _, tx := range m.transactions[owner] {
		consider(tx.Date)
	}
	return earliest, nil
}

// =============================================================================
// SNAPSHOT STORE (budget.SnapshotStore interface)
// =============================================================================

func (m *Memory) ReplaceCycle(_ context.Context, owner budget.OwnerID, cycle budget.CycleSnapshot, rows []budget.CategoryCycleSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cycles := m.cycles[owner]
	if cycles == nil {
		cycles = make(map[string]budget.CycleSnapshot)
		m.cycles[owner] = cycles
	}
	byPeriod := m.rows[owner]
	if byPeriod == nil {
		byPeriod = make(map[string][]budget.CategoryCycleSnapshot)
		m.rows[owner] = byPeriod
	}

	key := cycle.PeriodStart.String()
	cycles[key] = cycle
	copied := make([]budget.CategoryCycleSnapshot, len(rows))
	copy(copied, rows)
	sort.Slice(copied, func(i, j int) bool { return copied[i].CategoryID < copied[j].CategoryID })
	byPeriod[key] = copied
	return nil
}

func (m *Memory) CycleAt(_ context.Context, owner budget.OwnerID, periodStart budget.Date) (*budget.CycleSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cycle, ok := m.cycles[owner][periodStart.String()]
	if !ok {
		return nil, budget.ErrSnapshotNotFound
	}
	return &cycle, nil
}

func (m *Memory) CategoryRowsAt(_ context.Context, owner budget.OwnerID, periodStart budget.Date) ([]budget.CategoryCycleSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.rows[owner][periodStart.String()]
	out := make([]budget.CategoryCycleSnapshot, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *Memory) CyclesAfter(_ context.Context, owner budget.OwnerID, periodStart budget.Date) ([]budget.CycleSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []budget.CycleSnapshot
	for _, cycle := range m.cycles[owner] {
		if cycle.PeriodStart.After(periodStart) {
			out = append(out, cycle)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

func (m *Memory) ListCycles(_ context.Context, owner budget.OwnerID, limit int, cursor *budget.Date) ([]budget.CycleSnapshot, *budget.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// The cursor is the period start the next page begins at (inclusive).
	var all []budget.CycleSnapshot
	for _, cycle := range m.cycles[owner] {
		if cursor != nil && cycle.PeriodStart.After(*cursor) {
			continue
		}
		all = append(all, cycle)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PeriodStart.After(all[j].PeriodStart) })

	if limit <= 0 {
		limit = 50
	}
	if limit >= len(all) {
		return all, nil, nil
	}
	next := all[limit].PeriodStart
	return all[:limit], &next, nil
}
