// Package render writes filtered tables as CSV, JSON, or an HTML fragment.
// It is shared by the CLI and the HTTP server.
package render

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/csvfilter/internal/core"
	"github.com/a-h/templ"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat resolves a format name. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want csv, json or html)", s)
	}
}

// ContentType returns the HTTP Content-Type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Write renders t to w in format f.
func Write(ctx context.Context, w io.Writer, t *core.Table, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t, ',')
	case FormatHTML:
		return ResultTable(t).Render(ctx, w)
	default:
		return WriteJSON(w, t)
	}
}

// WriteCSV writes the header row followed by every row of t. Missing cells
// are written as empty fields.
func WriteCSV(w io.Writer, t *core.Table, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}

	if err := csvWriter.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, t.NumColumns())
	for i := 0; i < t.NumRows(); i++ {
		for c, v := range t.Row(i) {
			record[c] = v.String()
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// TableSummary describes a table without its rows.
type TableSummary struct {
	ID       string       `json:"id"`
	Source   string       `json:"source"`
	LoadedAt string       `json:"loaded_at"`
	Rows     int          `json:"rows"`
	Columns  []ColumnInfo `json:"columns"`
}

// TableData is the JSON form of a table with its rows. Missing cells encode
// as null, numbers as JSON numbers and instants as RFC 3339 strings.
type TableData struct {
	TableSummary
	Data []map[string]any `json:"data"`
}

// Summarize describes t.
func Summarize(t *core.Table) TableSummary {
	names := t.ColumnNames()
	cols := make([]ColumnInfo, len(names))
	for i, name := range names {
		kind, _ := t.ColumnKind(name)
		cols[i] = ColumnInfo{Name: name, Kind: kind.String()}
	}
	return TableSummary{
		ID:       t.ID.String(),
		Source:   t.Source,
		LoadedAt: t.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Rows:     t.NumRows(),
		Columns:  cols,
	}
}

// Data converts t into its JSON form.
func Data(t *core.Table) TableData {
	names := t.ColumnNames()
	rows := make([]map[string]any, t.NumRows())
	for i := range rows {
		row := make(map[string]any, len(names))
		for c, v := range t.Row(i) {
			row[names[c]] = jsonValue(v)
		}
		rows[i] = row
	}
	return TableData{TableSummary: Summarize(t), Data: rows}
}

// WriteJSON encodes t with its rows.
func WriteJSON(w io.Writer, t *core.Table) error {
	return json.NewEncoder(w).Encode(Data(t))
}

func jsonValue(v core.Value) any {
	switch v.Kind() {
	case core.KindMissing:
		return nil
	case core.KindNumber:
		f, _ := v.AsNumber()
		return f
	default:
		return v.String()
	}
}

// ResultTable renders t as an HTML table fragment. Missing cells get the
// "missing" class.
func ResultTable(t *core.Table) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<table class="result" data-rows="`)
		fmt.Fprintf(&b, "%d", t.NumRows())
		b.WriteString(`"><thead><tr>`)
		for _, name := range t.ColumnNames() {
			kind, _ := t.ColumnKind(name)
			b.WriteString(`<th data-kind="`)
			b.WriteString(kind.String())
			b.WriteString(`">`)
			b.WriteString(templ.EscapeString(name))
			b.WriteString(`</th>`)
		}
		b.WriteString(`</tr></thead><tbody>`)

		for i := 0; i < t.NumRows(); i++ {
			if i%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			b.WriteString(`<tr>`)
			for _, v := range t.Row(i) {
				if v.IsMissing() {
					b.WriteString(`<td class="missing"></td>`)
					continue
				}
				b.WriteString(`<td>`)
				b.WriteString(templ.EscapeString(v.String()))
				b.WriteString(`</td>`)
			}
			b.WriteString(`</tr>`)
		}
		b.WriteString(`</tbody></table>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorAlert renders a user-facing error as an HTML fragment.
func ErrorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert"><p>`)
		b.WriteString(templ.EscapeString(msg.Message))
		b.WriteString(`</p>`)
		if msg.Action != "" {
			b.WriteString(`<p class="action">`)
			b.WriteString(templ.EscapeString(msg.Action))
			b.WriteString(`</p>`)
		}
		b.WriteString(`<code>`)
		b.WriteString(templ.EscapeString(msg.Code))
		b.WriteString(`</code></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
