package parse

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/antonw/duitbot/internal/domain"
)

// magnitudes maps suffix words to their multipliers. Indonesian forms
// (rb/ribu, jt/juta) are common in the phrasing this engine targets.
var magnitudes = map[string]int64{
	"k":       1_000,
	"rb":      1_000,
	"ribu":    1_000,
	"m":       1_000_000,
	"mil":     1_000_000,
	"million": 1_000_000,
	"jt":      1_000_000,
	"juta":    1_000_000,
	"b":       1_000_000_000,
	"billion": 1_000_000_000,
}

func isMagnitudeWord(word string) bool {
	_, ok := magnitudes[word]
	return ok
}

// ResolveAmount converts a numeric literal plus an optional magnitude
// suffix into an exact decimal value.
//
// A literal with exactly one separator and a three-digit trailing run is
// read as thousands grouping ("52.500" = 52500) unless a magnitude
// suffix follows, matching the domain convention that decimal amounts
// always carry an explicit suffix. Readings that stay plausible both
// ways set Ambiguous so the caller can confirm instead of guessing.
func ResolveAmount(literal, suffix string) (domain.AmountValue, error) {
	normalized, ambiguous, err := normalizeLiteral(literal, suffix)
	if err != nil {
		return domain.AmountValue{}, err
	}

	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return domain.AmountValue{}, fmt.Errorf("resolve amount %q: %w", literal, domain.ErrMalformedAmount)
	}

	if suffix != "" {
		mult, ok := magnitudes[strings.ToLower(suffix)]
		if !ok {
			return domain.AmountValue{}, fmt.Errorf("resolve amount: unknown suffix %q: %w", suffix, domain.ErrMalformedAmount)
		}
		value = value.Mul(decimal.NewFromInt(mult))
	}

	return domain.AmountValue{Amount: value, Ambiguous: ambiguous}, nil
}

// normalizeLiteral reduces a raw literal to a form decimal.NewFromString
// accepts, deciding between separator-as-grouping and separator-as-point.
func normalizeLiteral(literal, suffix string) (normalized string, ambiguous bool, err error) {
	if literal == "" {
		return "", false, fmt.Errorf("normalize literal: empty: %w", domain.ErrMalformedAmount)
	}
	for _, r := range literal {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return "", false, fmt.Errorf("normalize literal %q: %w", literal, domain.ErrMalformedAmount)
		}
	}

	dots := strings.Count(literal, ".")
	commas := strings.Count(literal, ",")

	switch {
	case dots > 0 && commas > 0:
		// Mixed separators: Western convention, commas group thousands.
		return strings.ReplaceAll(literal, ",", ""), false, nil
	case dots > 1:
		// "1.234.567" can only be grouping.
		return strings.ReplaceAll(literal, ".", ""), false, nil
	case commas > 1:
		return strings.ReplaceAll(literal, ",", ""), false, nil
	case dots == 1:
		return resolveSingleSeparator(literal, ".", suffix)
	case commas == 1:
		return resolveSingleSeparator(literal, ",", suffix)
	default:
		return literal, false, nil
	}
}

func resolveSingleSeparator(literal, sep, suffix string) (string, bool, error) {
	parts := strings.SplitN(literal, sep, 2)
	head, tail := parts[0], parts[1]
	if head == "" || tail == "" {
		return "", false, fmt.Errorf("resolve separator %q: %w", literal, domain.ErrMalformedAmount)
	}

	grouped := strings.ReplaceAll(literal, sep, "")
	point := head + "." + tail

	switch {
	case len(tail) == 3 && len(head) <= 3:
		if suffix == "" {
			// Bare three-digit group denotes thousands.
			return grouped, false, nil
		}
		// With a suffix the separator reads as a decimal point, but the
		// grouping reading is still plausible.
		return point, true, nil
	case len(tail) < 3:
		// Short trailing run reads as a decimal fraction. Without a
		// suffix that is outside the domain convention, so flag it.
		return point, suffix == "", nil
	default:
		// More than three trailing digits cannot be a grouping mark.
		return point, false, nil
	}
}
