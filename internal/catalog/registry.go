package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the in-memory set of catalog tables, keyed by Table.Key.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table
}

// NewRegistry creates a registry holding tables.
func NewRegistry(tables ...Table) (*Registry, error) {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a table. It fails if the key is already taken.
func (r *Registry) Register(t Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[t.Key]; exists {
		return fmt.Errorf("table already registered: %s", t.Key)
	}
	r.tables[t.Key] = t
	return nil
}

// Replace swaps the whole table set, as after re-reading the catalog file.
func (r *Registry) Replace(tables []Table) error {
	if err := Validate(tables); err != nil {
		return err
	}
	next := make(map[string]Table, len(tables))
	for _, t := range tables {
		next[t.Key] = t
	}

	r.mu.Lock()
	r.tables = next
	r.mu.Unlock()
	return nil
}

// Get returns a table by key.
// Returns false if not found.
func (r *Registry) Get(key string) (Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[key]
	return t, ok
}

// All returns all tables sorted by key.
func (r *Registry) All() []Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Table, 0, len(r.tables))
	for _, t := range r.tables {
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Refreshing returns the tables the scheduler keeps loaded, sorted by key.
func (r *Registry) Refreshing() []Table {
	var result []Table
	for _, t := range r.All() {
		if t.Refreshes() {
			result = append(result, t)
		}
	}
	return result
}

// Count returns the number of registered tables.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}
