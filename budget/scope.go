package budget

// =============================================================================
// CATEGORY SCOPES - Hierarchy resolved once per rebuild
// =============================================================================

// Scope is the set of category IDs whose spend attributes to one category:
// the category itself plus its direct children. Hierarchy is one level deep,
// so no recursion is needed.
type Scope map[string]bool

// ScopeIndex holds resolved scopes for a category set. Built once per rebuild
// from an adjacency map keyed by parent id; the aggregator then answers
// "does this transaction count against this category" with a map lookup
// instead of walking the hierarchy at read time.
type ScopeIndex struct {
	scopes  map[string]Scope
	byID    map[string]Category
	expense map[string]bool // ids (any level) whose kind is expense
}

// BuildScopes resolves the one-level parent/child relation into explicit
// scope sets. Categories of kind other than expense get no scope; they are
// excluded entirely from budget arithmetic.
func BuildScopes(categories []Category) *ScopeIndex {
	idx := &ScopeIndex{
		scopes:  make(map[string]Scope, len(categories)),
		byID:    make(map[string]Category, len(categories)),
		expense: make(map[string]bool, len(categories)),
	}

	for _, c := range categories {
		idx.byID[c.ID] = c
		if c.Kind == KindExpense {
			idx.expense[c.ID] = true
			idx.scopes[c.ID] = Scope{c.ID: true}
		}
	}

	// Adjacency pass: attach each child to its parent's scope.
	for _, c := range categories {
		if c.Kind != KindExpense || c.ParentID == "" {
			continue
		}
		if parent, ok := idx.scopes[c.ParentID]; ok {
			parent[c.ID] = true
		}
	}

	return idx
}

// ScopeOf returns the scope set for an expense category, or nil for unknown
// or non-expense ids.
func (idx *ScopeIndex) ScopeOf(categoryID string) Scope {
	return idx.scopes[categoryID]
}

// IsExpense reports whether the id resolves to an expense category.
func (idx *ScopeIndex) IsExpense(categoryID string) bool {
	return idx.expense[categoryID]
}

// Category returns the category for an id, if known.
func (idx *ScopeIndex) Category(categoryID string) (Category, bool) {
	c, ok := idx.byID[categoryID]
	return c, ok
}
