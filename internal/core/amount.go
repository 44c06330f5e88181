// Package core holds the budget domain types and the amount cleaning rules
// shared by statement ingestion and the HTTP layer.
package core

import (
	"strconv"
	"strings"
)

// CleanAmount converts a raw statement cell into a signed decimal amount.
//
// Thousands separators and currency symbols are stripped; only digits, the
// decimal point and a minus sign survive. A value that still fails to parse
// resolves to zero rather than an error, so a malformed cell never drops a row.
//
// Examples:
//
//	CleanAmount("1,234.50")  -> 1234.5
//	CleanAmount("₹ 500.00")  -> 500
//	CleanAmount("(n/a)")     -> 0
func CleanAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return v
}
