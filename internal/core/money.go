// Package core provides the transaction model, amount parsing and the
// aggregation helpers shared by the ledger and its callers.
//
// This file contains functions for parsing user-entered amounts and
// formatting them for display.
package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxAmountInputLength matches the maxLength of the amount input.
const MaxAmountInputLength = 8

// ParseAmount converts user-entered numeric text to a positive decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and keeps
// every fractional digit; rounding is a display concern. Returns
// ErrInvalidAmount for empty, signed, zero, malformed or over-long input.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount(".5")    -> 0.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxAmountInputLength {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	digits := 0
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) || r > unicode.MaxASCII {
				return decimal.Zero, ErrInvalidAmount
			}
			digits++
		}
	}
	if digits == 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	normalized := parts[0]
	if normalized == "" {
		normalized = "0"
	}
	if len(parts) == 2 && parts[1] != "" {
		normalized += "." + parts[1]
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with exactly two decimal places, half away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
