package core

// Well-known column roles coerced by DefaultCoercions.
const (
	DefaultTemporalColumn = "data"
	DefaultNumericColumn  = "preço"
)

// Parser converts a raw cell into a typed value. It reports false when the
// cell does not parse; the loader then stores Missing.
type Parser func(raw string) (Value, bool)

// Coercion declares that a column, when present, is parsed into Kind.
type Coercion struct {
	Column string
	Kind   Kind
	Parse  Parser
}

// NumericCoercion parses the named column with ParseNumber.
func NumericCoercion(column string) Coercion {
	return Coercion{Column: column, Kind: KindNumber, Parse: ParseNumber}
}

// TemporalCoercion parses the named column with ParseTemporal.
func TemporalCoercion(column string) Coercion {
	return Coercion{Column: column, Kind: KindTemporal, Parse: ParseTemporal}
}

// DefaultCoercions returns the temporal "data" and numeric "preço" roles.
func DefaultCoercions() []Coercion {
	return []Coercion{
		TemporalCoercion(DefaultTemporalColumn),
		NumericCoercion(DefaultNumericColumn),
	}
}

// CoercionsFor builds a coercion list from column names, temporal first.
func CoercionsFor(temporal, numeric []string) []Coercion {
	out := make([]Coercion, 0, len(temporal)+len(numeric))
	for _, c := range temporal {
		out = append(out, TemporalCoercion(c))
	}
	for _, c := range numeric {
		out = append(out, NumericCoercion(c))
	}
	return out
}

// coercionIndex maps column names to coercions. A later entry for the same
// column replaces an earlier one.
func coercionIndex(coercions []Coercion) map[string]Coercion {
	idx := make(map[string]Coercion, len(coercions))
	for _, c := range coercions {
		if c.Parse == nil {
			continue
		}
		idx[c.Column] = c
	}
	return idx
}
