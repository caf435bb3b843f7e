package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle state of a Processor.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoaded   State = "loaded"
)

// Processor owns one source file and the table most recently loaded from it.
//
// It starts Unloaded. A successful Load moves it to Loaded; loading again
// replaces the table. A failed Load leaves the previous state untouched.
// Filter is only valid once Loaded.
type Processor struct {
	path   string
	loader *Loader

	mu    sync.RWMutex
	table *Table
}

// NewProcessor creates an unloaded processor for path. A nil loader means
// DefaultLoader.
func NewProcessor(path string, loader *Loader) *Processor {
	if loader == nil {
		loader = DefaultLoader()
	}
	return &Processor{path: path, loader: loader}
}

// Path returns the source path.
func (p *Processor) Path() string { return p.path }

// State reports whether a table has been loaded.
func (p *Processor) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.table == nil {
		return StateUnloaded
	}
	return StateLoaded
}

// Table returns the loaded table, or nil while Unloaded.
func (p *Processor) Table() *Table {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table
}

// Load reads the source and makes the result the current table.
func (p *Processor) Load(ctx context.Context) (*Table, error) {
	t, err := p.loader.Load(ctx, p.path)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.table = t
	p.mu.Unlock()

	return t, nil
}

// Filter applies constraints to the current table.
// Returns ErrNotLoaded before a successful Load.
func (p *Processor) Filter(columns []string, values []Value, opts Options) (*Table, error) {
	t := p.Table()
	if t == nil {
		return nil, fmt.Errorf("filter %s: %w", p.path, ErrNotLoaded)
	}

	start := time.Now()
	out, err := Filter(t, columns, values, opts)
	if err != nil {
		return nil, err
	}

	p.loader.logger().Debug("dataset filtered",
		"table_id", t.ID.String(),
		"constraints", len(columns),
		"rows_in", t.NumRows(),
		"rows_out", out.NumRows(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// LogValue implements slog.LogValuer.
func (p *Processor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", p.path),
		slog.String("state", string(p.State())),
	)
}
