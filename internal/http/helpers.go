package http

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"vulekamali/internal/core"
)

var templateFuncs = template.FuncMap{
	"rand":        core.FormatRand,
	"sphereLabel": sphereLabel,
	"quarter":     core.QuarterLabel,
	"date":        formatDate,
	"orDash":      orDash,
	"spentShare":  spentShare,
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sphereLabel(s core.Sphere) string {
	switch s {
	case core.National:
		return "National"
	case core.Provincial:
		return "Provincial"
	default:
		return string(s)
	}
}

func formatDate(d *core.Date) string {
	if d == nil || d.IsZero() {
		return "–"
	}
	return d.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "–"
	}
	return s
}

// spentShare is spent as a whole percentage of estimated, clamped to 0..100.
// Unknown or zero estimates give 0.
func spentShare(spent, estimated decimal.NullDecimal) int {
	if !spent.Valid || !estimated.Valid || !estimated.Decimal.IsPositive() {
		return 0
	}
	pct := spent.Decimal.Mul(decimal.NewFromInt(100)).Div(estimated.Decimal).Round(0).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return int(pct)
	}
}
