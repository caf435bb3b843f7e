// Package core provides dataset loading and row filtering for delimited files.
// This package has no UI dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value. Columns use the same set to
// describe which comparison strategy applies to them.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindTemporal
	KindOther
)

// String returns a human-readable name for a kind.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTemporal:
		return "temporal"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single cell or filter target.
// The zero Value is Missing.
type Value struct {
	kind Kind
	text string
	num  float64
	at   time.Time
	raw  any
}

// Text returns a textual value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric value. Integers are widened to float64 by callers
// (see ValueOf).
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Temporal returns a temporal instant.
func Temporal(t time.Time) Value {
	return Value{kind: KindTemporal, at: t}
}

// Missing returns the missing marker.
func Missing() Value {
	return Value{}
}

// Other wraps an opaque value that only supports raw equality.
func Other(v any) Value {
	return Value{kind: KindOther, raw: v}
}

// ValueOf converts a Go literal into a Value.
//
//	string              -> Text
//	int*, uint*, float* -> Number
//	time.Time           -> Temporal
//	Value               -> itself
//	nil                 -> Missing
//	anything else       -> Other
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Missing()
	case Value:
		return x
	case string:
		return Text(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case time.Time:
		return Temporal(x)
	default:
		return Other(v)
	}
}

// Values converts a list of Go literals with ValueOf.
func Values(vs ...any) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = ValueOf(v)
	}
	return out
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// AsText returns the text payload.
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == KindText
}

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsTime returns the temporal payload.
func (v Value) AsTime() (time.Time, bool) {
	return v.at, v.kind == KindTemporal
}

// Raw returns the payload as an untyped Go value (nil for Missing).
func (v Value) Raw() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindTemporal:
		return v.at
	case KindOther:
		return v.raw
	default:
		return nil
	}
}

// Equal is raw equality: both values hold the same variant and the same
// payload. Missing is never equal to anything, itself included.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	case KindTemporal:
		return v.at.Equal(o.at)
	case KindOther:
		if v.raw == nil || o.raw == nil {
			return v.raw == nil && o.raw == nil
		}
		if !reflect.TypeOf(v.raw).Comparable() || !reflect.TypeOf(o.raw).Comparable() {
			return reflect.DeepEqual(v.raw, o.raw)
		}
		return v.raw == o.raw
	default:
		return false
	}
}

// String formats v for display. Missing renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return strconv.FormatFloat(v.num, 'g', -1, 64)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTemporal:
		if isMidnight(v.at) {
			return v.at.Format(time.DateOnly)
		}
		return v.at.Format(time.RFC3339Nano)
	case KindOther:
		return fmt.Sprint(v.raw)
	default:
		return ""
	}
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC
}

// Options are the comparison settings shared by every constraint of a filter.
type Options struct {
	// CaseInsensitive compares textual targets against text columns with
	// Unicode case folding.
	CaseInsensitive bool

	// Strip trims surrounding whitespace from text cells and textual targets.
	Strip bool

	// FloatTol is the maximum absolute difference for numeric matches.
	// nil means exact equality.
	FloatTol *float64

	// Parallel evaluates constraints concurrently. The result is identical
	// to sequential evaluation.
	Parallel bool
}

// DefaultOptions returns case-insensitive, whitespace-trimming, exact numeric
// comparison.
func DefaultOptions() Options {
	return Options{CaseInsensitive: true, Strip: true}
}

// WithTolerance returns a copy of o using tol as the numeric tolerance.
func (o Options) WithTolerance(tol float64) Options {
	o.FloatTol = &tol
	return o
}

// validate checks the numeric tolerance.
func (o Options) validate() error {
	if o.FloatTol == nil {
		return nil
	}
	if tol := *o.FloatTol; tol < 0 || math.IsNaN(tol) {
		return fmt.Errorf("%w: %v (must be a non-negative number)", ErrInvalidTolerance, tol)
	}
	return nil
}
