package parser

import (
	"strconv"
	"strings"

	"github.com/ncxlabs/netconfd/pkg/schema"
)

// trimOctalLeadingZeros strips leading zeros from a decimal numeral
// without reinterpreting it as octal (spec.md §4.F "numbers... octal
// leading-zero tolerance"): strconv.ParseInt/ParseUint with base 10
// already do not treat a leading zero as an octal prefix, but a
// multi-digit "007" is otherwise syntactically unambiguous to strconv;
// this only matters for the sign-then-zeros case ("-007") where the
// leading zeros must be stripped before the numeral is otherwise plain.
func trimOctalLeadingZeros(lex string) string {
	neg := strings.HasPrefix(lex, "-")
	s := strings.TrimPrefix(lex, "-")
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if neg && trimmed != "0" {
		return "-" + trimmed
	}
	return trimmed
}

func parseIntLex(lex string, bitSize int) (int64, error) {
	return strconv.ParseInt(trimOctalLeadingZeros(lex), 10, bitSize)
}

func parseUintLex(lex string, bitSize int) (uint64, error) {
	return strconv.ParseUint(trimOctalLeadingZeros(lex), 10, bitSize)
}

func bitSizeFor(bt schema.BaseType) int {
	switch bt {
	case schema.Int8, schema.Uint8:
		return 8
	case schema.Int16, schema.Uint16:
		return 16
	case schema.Int32, schema.Uint32:
		return 32
	default:
		return 64
	}
}

// parseDecimal64Lex parses a decimal64 lexical value ("12.345") into its
// unscaled integer form at the typedef's declared fraction-digits
// (spec.md §4.F "decimal64").
func parseDecimal64Lex(lex string, fractionDigits int) (int64, error) {
	neg := strings.HasPrefix(lex, "-")
	s := strings.TrimPrefix(lex, "-")
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if len(fracPart) > fractionDigits {
		return 0, strconv.ErrSyntax
	}
	if !hasDot {
		fracPart = ""
	}
	for len(fracPart) < fractionDigits {
		fracPart += "0"
	}
	digits := trimOctalLeadingZeros(intPart) + fracPart
	unscaled, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		unscaled = -unscaled
	}
	return unscaled, nil
}

func rangeOK(ranges []schema.Range, v float64) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

func lengthOK(lens []schema.LengthRange, n int) bool {
	if len(lens) == 0 {
		return true
	}
	for _, l := range lens {
		if l.Contains(n) {
			return true
		}
	}
	return false
}
