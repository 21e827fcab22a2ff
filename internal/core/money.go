// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts as they appear in
// quarterly reporting spreadsheets and formatting them for display.
package core

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a spreadsheet or form amount to a nullable decimal.
//
// Blank input yields a null value. Thousands separators (space, non-breaking
// space, apostrophe) and a leading "R" currency marker are stripped. When both
// comma and dot appear the comma is a thousands separator; a lone comma is a
// decimal separator.
//
// Examples:
//
//	ParseAmount("1234.56")     -> 1234.56
//	ParseAmount("R 1,234.56")  -> 1234.56
//	ParseAmount("1 234,56")    -> 1234.56
//	ParseAmount("")            -> null
func ParseAmount(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	s = strings.TrimPrefix(s, "R")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	if s == "" || s == "-" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return decimal.NewNullDecimal(d), nil
}

// FormatRand formats an amount for display, e.g. "R 1 234 567.89".
// Null amounts render as a dash.
func FormatRand(v decimal.NullDecimal) string {
	if !v.Valid {
		return "–"
	}
	d := v.Decimal.Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := "R " + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// NullString renders a nullable decimal for CSV and storage; null is "".
func NullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
