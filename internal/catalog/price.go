package catalog

import (
	"strconv"
	"strings"
)

// ExtractPrice derives an integer price from a display string by discarding every
// non-digit character ("1.200 Lekë" => 1200). Strings without digits, or whose digit run
// does not fit in an int, yield 0.
func ExtractPrice(priceText string) int {
	var b strings.Builder
	for _, r := range priceText {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	price, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return price
}

// ParseLeadingInt reads an optionally signed integer from the start of raw, ignoring
// surrounding whitespace and any trailing non-digit characters ("12abc" => 12). It reports
// false when no digits are present or the value overflows.
func ParseLeadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	end := 0
	if s[0] == '-' || s[0] == '+' {
		end = 1
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	value, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return value, true
}
