package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmountCents parses a decimal amount string such as "156.50" or
// "1,234.5" into cents. At most two fraction digits are accepted.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.Index(s, "."); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("too many decimal places in amount %q", s)
	}
	// Pad fraction to exactly two digits.
	for len(frac) < 2 {
		frac += "0"
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	total := dollars*100 + cents
	if negative {
		total = -total
	}
	return total, nil
}

// FormatCents formats cents as a plain decimal string, e.g. 15650 -> "156.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// FormatCentsUSD formats cents with a dollar sign, e.g. 15650 -> "$156.50".
func FormatCentsUSD(cents int64) string {
	if cents < 0 {
		return "-$" + FormatCents(-cents)
	}
	return "$" + FormatCents(cents)
}

// RoundHalfUpCents converts a dollar amount to cents using half-up rounding.
func RoundHalfUpCents(dollars float64) int64 {
	return int64(math.Floor(dollars*100 + 0.5))
}
