package mapper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vivaa/goldbook/internal/pipelineerror"
)

// currencyTokens are stripped before numeric parsing. The books mix bare
// numbers with currency-annotated cells.
var currencyTokens = []string{"AED", "USD", "EUR", "CHF", "$", "€"}

// ParseNumber parses a raw numeric value with locale awareness: currency
// symbols, spaces, apostrophe and comma thousands separators, and comma
// decimal separators are all handled. A value that still fails to parse is
// a MalformedNumberError, never a silent zero. Empty values return nil
// (absent), which callers keep distinct from zero.
func ParseNumber(field string, value any) (*decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		d := decimal.NewFromFloat(v)
		return &d, nil
	case int64:
		d := decimal.NewFromInt(v)
		return &d, nil
	case int:
		d := decimal.NewFromInt(int64(v))
		return &d, nil
	case string:
		return parseNumberString(field, v)
	default:
		return nil, &pipelineerror.MalformedNumberError{
			Field: field,
			Value: fmt.Sprint(value),
			Err:   fmt.Errorf("unsupported value type %T", value),
		}
	}
}

func parseNumberString(field, raw string) (*decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return nil, nil
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "'", "")

	// Accounting negatives: (1,234.50) means -1234.50.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = normalizeSeparators(s)

	dec, err := decimal.NewFromString(s)
	if err != nil {
		return nil, &pipelineerror.MalformedNumberError{Field: field, Value: raw, Err: err}
	}
	if negative {
		dec = dec.Neg()
	}
	return &dec, nil
}

// normalizeSeparators resolves comma usage: with both separators present
// the one appearing last is the decimal separator; a lone comma followed by
// exactly three digits per group is a thousands separator, otherwise it is
// a decimal comma.
func normalizeSeparators(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// European style: 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case hasComma:
		if isThousandsGrouped(s) {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	default:
		return s
	}
}

func isThousandsGrouped(s string) bool {
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
