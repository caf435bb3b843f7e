package core

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// matcher reports whether a single cell satisfies a constraint.
type matcher func(cell Value) bool

// strategy builds the matcher for one constraint.
type strategy func(target Value, opts Options) matcher

// dispatchKey selects a strategy from the column kind and the target kind.
type dispatchKey struct {
	column Kind
	target Kind
}

// dispatch maps (column kind, target kind) to a comparison strategy. Pairs
// not listed use raw equality.
var dispatch = map[dispatchKey]strategy{
	{KindText, KindText}:     textMatcher,
	{KindText, KindNumber}:   textExactMatcher,
	{KindText, KindTemporal}: textExactMatcher,
	{KindText, KindOther}:    textExactMatcher,
	{KindNumber, KindNumber}: numberMatcher,
}

func strategyFor(column, target Kind) strategy {
	if s, ok := dispatch[dispatchKey{column, target}]; ok {
		return s
	}
	return rawMatcher
}

// textMatcher compares text cells against a textual target, optionally
// trimmed and case-folded.
func textMatcher(target Value, opts Options) matcher {
	want := target.text
	if opts.Strip {
		want = strings.TrimSpace(want)
	}

	if !opts.CaseInsensitive {
		return func(cell Value) bool {
			if cell.kind != KindText {
				return false
			}
			got := cell.text
			if opts.Strip {
				got = strings.TrimSpace(got)
			}
			return got == want
		}
	}

	// A Caser is stateful; each matcher owns one so matchers may run in
	// separate goroutines.
	fold := cases.Fold()
	want = fold.String(want)
	return func(cell Value) bool {
		if cell.kind != KindText {
			return false
		}
		got := cell.text
		if opts.Strip {
			got = strings.TrimSpace(got)
		}
		return fold.String(got) == want
	}
}

// textExactMatcher compares a text column against a non-textual target with
// exact equality against the optionally trimmed cell. A text cell never holds
// the same variant as such a target, so nothing matches.
func textExactMatcher(target Value, opts Options) matcher {
	return func(cell Value) bool {
		if cell.kind == KindText && opts.Strip {
			cell = Text(strings.TrimSpace(cell.text))
		}
		return cell.Equal(target)
	}
}

// numberMatcher compares numeric cells against a numeric target, within
// FloatTol when set. Missing cells never match.
func numberMatcher(target Value, opts Options) matcher {
	want := target.num
	if opts.FloatTol == nil {
		return func(cell Value) bool {
			return cell.kind == KindNumber && cell.num == want
		}
	}
	tol := *opts.FloatTol
	return func(cell Value) bool {
		return cell.kind == KindNumber && math.Abs(cell.num-want) <= tol
	}
}

// rawMatcher is the fallback: variant and payload must be equal, with no
// normalization.
func rawMatcher(target Value, _ Options) matcher {
	return func(cell Value) bool {
		return cell.Equal(target)
	}
}
