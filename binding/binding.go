// Package binding resolves {{name}} placeholder tokens inside template text
// against a runtime data context supplied by the billing subsystem.
//
// Resolution never fails: a token whose field is absent or empty substitutes
// the empty string, and text outside the token grammar passes through
// unchanged. Resolve is a pure function and is idempotent, since its output
// contains no token syntax.
package binding

import (
	"fmt"
	"regexp"
	"strconv"
)

// Context is the flat field-name to value mapping supplied at render time.
// The engine treats it as read-only input.
type Context map[string]any

// Recognized context fields. Callers may supply more; unknown fields simply
// resolve when referenced and are otherwise ignored.
//
//	pharmacy_name, address, pan_number, oda_number, pharmacy_contact,
//	customer_name, customer_contact, customer_sex, items, grand_total,
//	discount_amount, payment_category, sold_by, bill_number, invoice_date

// tokenRe matches {{identifier}} and {{namespace.identifier}}. Anything else,
// including unbalanced or nested braces, is not a token.
var tokenRe = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)(?:\.([A-Za-z_][A-Za-z0-9_]*))?\}\}`)

// Resolve substitutes every binding token in template with its value from
// ctx. The "client" namespace aliases the flat context, so {{client.k}} and
// {{k}} resolve identically. The oda_number field is special-cased: a
// non-empty value renders as "Ward No. {value} (Oda)" so the dual-purpose
// municipal identifier always reads as a labeled phrase.
func Resolve(template string, ctx Context) string {
	return tokenRe.ReplaceAllStringFunc(template, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		name := m[1]
		if m[2] != "" {
			// Only the client namespace exists; any other namespaced
			// token is unresolvable and renders empty.
			if name != "client" {
				return ""
			}
			name = m[2]
		}
		v := Stringify(ctx[name])
		if name == "oda_number" {
			if v == "" {
				return ""
			}
			return "Ward No. " + v + " (Oda)"
		}
		return v
	})
}

// String returns the context value for key as a string, or "" when absent.
func (c Context) String(key string) string {
	return Stringify(c[key])
}

// Float returns the context value for key as a float64, or 0 when absent or
// not numeric.
func (c Context) Float(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Stringify converts a context value to its display form. Nil becomes the
// empty string; floats drop a trailing ".0" the way invoice fields are
// expected to read.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}
