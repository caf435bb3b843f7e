// Package core loads delimited text files into tables and filters their rows.
//
// This package is the heart of csvfilter, containing all domain logic
// independent of any UI or transport layer. It can be used by the CLI, the
// HTTP server, or tests without modification.
//
// # Loading
//
// [Loader.Load] reads a CSV file whose first row names the columns:
//
//  1. The source is wrapped to strip a UTF-8 BOM and sanitize invalid UTF-8
//  2. Rows are read with encoding/csv; short rows are padded with Missing
//  3. Columns named by a [Coercion] are parsed into numbers or instants;
//     unparseable cells become Missing instead of failing the load
//  4. Every other column keeps its literal text
//
// The default coercions treat "data" as temporal and "preço" as numeric:
//
//	loader := &core.Loader{
//	    Delimiter: ';',
//	    Coercions: core.CoercionsFor([]string{"data"}, []string{"preço", "frete"}),
//	}
//
// # Filtering
//
// [Filter] combines (column, value) constraints with logical AND. The
// comparison is chosen from the column kind and the target kind:
//
//   - text column, text target: equality after optional trimming and case folding
//   - number column, number target: |cell - target| <= FloatTol, or exact
//   - anything else: raw equality of variant and payload
//
// Missing cells never match. Filter never modifies its input and always
// returns a new [Table]:
//
//	out, err := core.Filter(t,
//	    []string{"estado", "preço"},
//	    core.Values("SP", 378.02),
//	    core.DefaultOptions().WithTolerance(0.01),
//	)
//
// # Serving
//
// Long-running callers keep tables in a [Catalog], bound concurrent loads
// with a [LoadLimiter] and drop stale tables with [Catalog.StartExpiry].
//
// # Error Handling
//
// Failures wrap sentinel errors ([ErrSourceNotFound], [ErrNotLoaded],
// [ErrArityMismatch], [ErrUnknownColumn], ...) for errors.Is. [MapError]
// maps them to user-friendly messages with support codes.
package core
