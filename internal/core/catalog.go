package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Catalog holds loaded tables by ID. It is safe for concurrent use; the
// tables themselves are immutable.
type Catalog struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*Table
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[uuid.UUID]*Table)}
}

// Add registers a table under its ID.
// Returns an error if a table with the same ID is already present.
func (c *Catalog) Add(t *Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[t.ID]; exists {
		return fmt.Errorf("table already registered: %s", t.ID)
	}
	c.tables[t.ID] = t
	return nil
}

// Get returns a table by ID.
// Returns false if not found.
func (c *Catalog) Get(id uuid.UUID) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[id]
	return t, ok
}

// Remove deletes a table and reports whether it was present.
func (c *Catalog) Remove(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.tables[id]
	delete(c.tables, id)
	return ok
}

// All returns every table, oldest load first.
func (c *Catalog) All() []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Table, 0, len(c.tables))
	for _, t := range c.tables {
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].LoadedAt.Equal(result[j].LoadedAt) {
			return result[i].LoadedAt.Before(result[j].LoadedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result
}

// Count returns the number of tables.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
