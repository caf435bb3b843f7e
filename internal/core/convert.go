package core

// convert.go turns raw CSV cells into typed values.
//
// These functions handle the messy reality of hand-edited CSV data:
//   - Multiple date formats (ISO, US, timestamps with or without zone)
//   - Currency symbols and thousand separators in numbers
//   - Accounting negatives "(123.45)"
//   - Excel formula prefixes (="value")
//
// Parsing is lenient in the sense that a bad cell never fails the load: the
// ToPg* helpers return Valid=false and the Parse* wrappers report false, which
// the loader records as Missing.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation. pgtype does not accept
// exponents, so ToPgNumeric expands those through strconv first.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// thousandsRegex matches a number whose commas are thousands separators.
// "1,234.5" passes, "378,02" does not.
var thousandsRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
	// Day-first layouts are tried only after the month-first ones fail,
	// so "15/01/2024" parses while "01/02/2024" stays January 2nd.
	dayFirstLayouts = []string{
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	dayFirstTwoDigitLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
)

// ToPgNumeric converts a string to pgtype.Numeric.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ToPgNumeric(s string) pgtype.Numeric {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Numeric{Valid: false}
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.TrimSpace(s)

	if strings.Contains(s, ",") {
		if !thousandsRegex.MatchString(s) {
			return pgtype.Numeric{Valid: false}
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{Valid: false}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err == nil {
		return n
	}

	// Scientific notation: "1.5e3" -> "1500"
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return pgtype.Numeric{Valid: false}
	}
	if err := n.Scan(strconv.FormatFloat(f, 'f', -1, 64)); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}

// ToPgTimestamp converts a string to pgtype.Timestamp.
// Accepts PostgreSQL text timestamps, RFC 3339, and the date layouts of
// ToPgDate (at midnight UTC).
func ToPgTimestamp(s string) pgtype.Timestamp {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Timestamp{Valid: false}
	}

	var ts pgtype.Timestamp
	if err := ts.Scan(s); err == nil && ts.Valid && ts.InfinityModifier == pgtype.Finite {
		return ts
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Timestamp{Time: t, Valid: true}
		}
	}

	if d := ToPgDate(s); d.Valid {
		return pgtype.Timestamp{Time: d.Time, Valid: true}
	}

	return pgtype.Timestamp{Valid: false}
}

// ToPgDate converts a string to pgtype.Date.
// Supports multiple date formats and handles 2-digit years with pivot.
// Slash, dash and dot dates are month-first unless that is impossible.
func ToPgDate(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{Valid: false}
	}

	// 4-digit years are unambiguous, try them first
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layouts := range [][]string{twoDigitYearLayouts, dayFirstTwoDigitLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				if t.Year() > pivotYear {
					t = t.AddDate(-100, 0, 0)
				}
				return pgtype.Date{Time: t, Valid: true}
			}
		}
	}

	return pgtype.Date{Valid: false}
}

// ParseNumber parses a cell into a Number value.
func ParseNumber(s string) (Value, bool) {
	n := ToPgNumeric(s)
	if !n.Valid {
		return Missing(), false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return Missing(), false
	}
	return Number(f.Float64), true
}

// ParseTemporal parses a cell into a Temporal value.
func ParseTemporal(s string) (Value, bool) {
	ts := ToPgTimestamp(s)
	if !ts.Valid {
		return Missing(), false
	}
	return Temporal(ts.Time), true
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
