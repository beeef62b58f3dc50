package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAbbreviatedCount converts scrape-sourced counts like "2.5M",
// "120k", "1,234" or "10k+" into integers. Empty input parses to zero;
// anything else unrecognizable is an error.
func ParseAbbreviatedCount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "+")

	multiplier := float64(1)
	switch {
	case strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "b"):
		multiplier = 1_000_000_000
		s = strings.TrimSuffix(s, "b")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable count %q: %w", s, err)
	}

	return int64(value * multiplier), nil
}
