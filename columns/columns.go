// Package columns composes the monospace item-table header for a bill
// template from a selected subset of the known columns.
//
// The output is a fixed-width text table header in box-drawing style
// (+/-/|) meant for a monospace region of the template. Column order always
// follows the catalogue's canonical order, never the order the operator
// toggled checkboxes, and the serial-number column is always present.
package columns

import "strings"

// Key is the canonical identifier of a toggleable item-table column.
type Key string

const (
	Item   Key = "ITEM"
	Qty    Key = "QTY"
	Rate   Key = "RATE"
	Batch  Key = "BATCH"
	Exp    Key = "EXP"
	Disc   Key = "DISC"
	Tax    Key = "TAX"
	Amount Key = "AMOUNT"
)

// Column is one catalogue entry: a canonical key, the label printed in the
// header, and a fixed character width.
type Column struct {
	Key   Key
	Label string
	Width int
}

// Catalogue is the fixed set of candidate columns in canonical order.
var Catalogue = []Column{
	{Item, "Particulars", 28},
	{Qty, "Qty", 5},
	{Rate, "Rate", 8},
	{Batch, "Batch", 10},
	{Exp, "Exp", 8},
	{Disc, "Dis%", 6},
	{Tax, "Tax%", 6},
	{Amount, "Amount", 10},
}

// serial is always prepended and is not user-toggleable.
var serial = Column{Key: "SN", Label: "S.N", Width: 5}

// Header is the composed fixed-width header for a column selection.
type Header struct {
	HeaderLine    string
	SeparatorLine string
	// Columns lists the selected keys in catalogue order, excluding the
	// implicit serial column.
	Columns []Key
}

// Selection is a set of selected column keys.
type Selection map[Key]bool

// NewSelection builds a selection from keys. Unknown keys are ignored.
func NewSelection(keys ...Key) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		if _, ok := lookup(k); ok {
			s[k] = true
		}
	}
	return s
}

// ParseSelection builds a selection from string keys, for metadata stored as
// plain JSON strings.
func ParseSelection(keys []string) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		if c, ok := lookup(Key(strings.ToUpper(k))); ok {
			s[c.Key] = true
		}
	}
	return s
}

// Toggle flips a column on or off and returns the selection for chaining.
// Unknown keys are ignored.
func (s Selection) Toggle(k Key) Selection {
	if _, ok := lookup(k); !ok {
		return s
	}
	if s[k] {
		delete(s, k)
	} else {
		s[k] = true
	}
	return s
}

// Keys returns the selected keys in catalogue order.
func (s Selection) Keys() []Key {
	out := make([]Key, 0, len(s))
	for _, c := range Catalogue {
		if s[c.Key] {
			out = append(out, c.Key)
		}
	}
	return out
}

func lookup(k Key) (Column, bool) {
	for _, c := range Catalogue {
		if c.Key == k {
			return c, true
		}
	}
	return Column{}, false
}

// Compose builds the header and separator lines for the selection. Composing
// the same selection always yields byte-identical output, so toggling a
// column on and off reproduces the original header exactly.
func Compose(selected Selection) Header {
	cols := make([]Column, 0, len(Catalogue)+1)
	cols = append(cols, serial)
	for _, c := range Catalogue {
		if selected[c.Key] {
			cols = append(cols, c)
		}
	}

	var header, sep strings.Builder
	header.WriteByte('|')
	sep.WriteByte('+')
	for _, c := range cols {
		header.WriteString(center(c.Label, c.Width))
		header.WriteByte('|')
		sep.WriteString(strings.Repeat("-", c.Width))
		sep.WriteByte('+')
	}

	keys := make([]Key, 0, len(cols)-1)
	for _, c := range cols[1:] {
		keys = append(keys, c.Key)
	}
	return Header{
		HeaderLine:    header.String(),
		SeparatorLine: sep.String(),
		Columns:       keys,
	}
}

// center pads s with spaces to width w, truncating labels that do not fit.
func center(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	left := (w - len(s)) / 2
	right := w - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
