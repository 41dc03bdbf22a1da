package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Display formatting lives at this layer only; the core keeps full
// precision and rounding happens once, here.

// formatKRW renders a won amount rounded to whole units with thousands
// separators, e.g. "₩1,423,500".
func formatKRW(amount decimal.Decimal) string {
	return "₩" + groupThousands(amount.Round(0).StringFixed(0))
}

// formatUSD renders a dollar amount with two decimals, e.g. "$8.57".
func formatUSD(amount decimal.Decimal) string {
	s := amount.Round(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	out := "$" + groupThousands(intPart) + "." + fracPart
	if neg {
		return "-" + out
	}
	return out
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	out := b.String()
	if neg {
		return "-" + out
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
