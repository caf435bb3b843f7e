package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ContextCheckInterval is how often (in rows) loading checks for cancellation.
// Values below 1 check on every row.
var ContextCheckInterval = 100

// Loader reads delimited text into a Table.
// The zero value reads comma-separated input without coercions.
type Loader struct {
	// Delimiter separates fields (default ',').
	Delimiter rune

	// Coercions are applied to the columns they name, when present.
	Coercions []Coercion

	// MaxBytes rejects larger files when positive.
	MaxBytes int64

	// Logger receives the load summary (default slog.Default()).
	Logger *slog.Logger
}

// DefaultLoader returns a comma-separated loader with DefaultCoercions.
func DefaultLoader() *Loader {
	return &Loader{Delimiter: ',', Coercions: DefaultCoercions()}
}

// Load reads the file at path with DefaultLoader.
func Load(path string) (*Table, error) {
	return DefaultLoader().Load(context.Background(), path)
}

// Load reads the file at path.
// Returns an error wrapping ErrSourceNotFound if the file cannot be opened or read.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, path, err)
	}
	defer f.Close()

	var size int64
	if st, err := f.Stat(); err == nil {
		if st.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
		}
		size = st.Size()
	}
	if l.MaxBytes > 0 && size > l.MaxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, size, l.MaxBytes)
	}

	return l.read(ctx, f, path, size)
}

// LoadReader reads delimited text from r. name identifies the source in
// errors and logs.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, name string) (*Table, error) {
	if l.MaxBytes > 0 {
		r = io.LimitReader(r, l.MaxBytes+1)
	}
	return l.read(ctx, r, name, 0)
}

func (l *Loader) read(ctx context.Context, src io.Reader, name string, size int64) (*Table, error) {
	start := time.Now()
	decoded, counter := wrapSource(src, size)

	r := csv.NewReader(decoded)
	if l.Delimiter != 0 {
		r.Comma = l.Delimiter
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	if err != nil {
		return nil, readError(name, err)
	}

	every := max(ContextCheckInterval, 1)
	var records [][]string
	for n := 1; ; n++ {
		if n%every == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("load %s: %w", name, err)
			}
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(name, err)
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%w: %s line %d: %d fields, header has %d",
				ErrInvalidCSV, name, line, len(record), len(header))
		}
		if l.MaxBytes > 0 && counter.BytesRead > l.MaxBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, name, l.MaxBytes)
		}

		records = append(records, record)
	}
	if l.MaxBytes > 0 && counter.BytesRead > l.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, name, l.MaxBytes)
	}

	coercions := coercionIndex(l.Coercions)
	built := make([]Column, len(header))
	missing := make(map[string]int)
	for i, colName := range header {
		c, ok := coercions[colName]
		if !ok {
			built[i] = textColumn(colName, i, records)
			continue
		}
		col, bad := coerceColumn(colName, i, records, c)
		built[i] = col
		if bad > 0 {
			missing[colName] = bad
		}
	}

	t, err := NewTable(built...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	t.ID = uuid.New()
	t.Source = name
	t.LoadedAt = time.Now()

	logger := l.logger().With("table_id", t.ID.String(), "source", name)
	for colName, n := range missing {
		logger.Warn("cells coerced to missing", "column", colName, "cells", n)
	}
	logger.Info("dataset loaded",
		"rows", t.NumRows(),
		"columns", t.NumColumns(),
		"bytes", counter.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return t, nil
}

// textColumn keeps field pos of every record as literal text. Records too
// short to have the field get Missing.
func textColumn(name string, pos int, records [][]string) Column {
	cells := make([]Value, len(records))
	for i, record := range records {
		if pos >= len(record) {
			continue
		}
		cells[i] = Text(record[pos])
	}
	return Column{Name: name, Kind: KindText, Cells: cells}
}

// coerceColumn parses field pos of every record with c.Parse. Cells that fail
// become Missing; the count of such non-blank cells is returned.
func coerceColumn(name string, pos int, records [][]string, c Coercion) (Column, int) {
	cells := make([]Value, len(records))
	bad := 0
	for i, record := range records {
		if pos >= len(record) {
			continue
		}
		v, ok := c.Parse(record[pos])
		if !ok || v.IsMissing() {
			if CleanCell(record[pos]) != "" {
				bad++
			}
			continue
		}
		cells[i] = v
	}
	return Column{Name: name, Kind: c.Kind, Cells: cells}, bad
}

// readError classifies an encoding/csv error: malformed input is
// ErrInvalidCSV, anything else is an I/O failure on the source.
func readError(name string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCSV, name, err)
	}
	return fmt.Errorf("%w: read %s: %w", ErrSourceNotFound, name, err)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
