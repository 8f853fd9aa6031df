// Package billforge defines the serializable bill/invoice template model.
//
// A TemplateDocument is a mapping of element id to ElementSpec plus document
// metadata. Element text may embed binding tokens ({{name}} or
// {{client.name}}) that are resolved against a runtime context when the
// document is rendered. The persisted form is a single JSON object with a
// top-level "_meta" property and one property per element id:
//
//	{
//	  "_meta": {"paper": "A4", "orientation": "PORTRAIT"},
//	  "pharmacy_name": {"kind": "text", "text": "{{pharmacy_name}}", "x": 297, "y": 45, ...},
//	  "table": {"kind": "table", "x": 20, "y": 260, ...}
//	}
package billforge

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/medira/billforge/paper"
)

// Kind selects the rendering strategy for an element.
type Kind string

const (
	KindText    Kind = "text"
	KindLogo    Kind = "logo"
	KindQRCode  Kind = "qrcode"
	KindBarcode Kind = "barcode"
	KindBox     Kind = "box"
	KindTable   Kind = "table"
	KindTotals  Kind = "totals"
	KindImage   Kind = "image"
)

// Weight is the font weight/style of a text element.
type Weight string

const (
	WeightNormal Weight = "normal"
	WeightBold   Weight = "bold"
	WeightItalic Weight = "italic"
)

// Align is the horizontal alignment of a text element.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ElementSpec is one placeable unit of the layout. X and Y are top-left
// coordinates in the document's design space (72dpi pixels on the portrait
// canvas of the selected paper format). Width and Height are only meaningful
// for box, image and code elements.
type ElementSpec struct {
	Kind       Kind    `json:"kind,omitempty"`
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       float64 `json:"size,omitempty"`
	Weight     Weight  `json:"weight,omitempty"`
	Align      Align   `json:"align,omitempty"`
	FontFamily string  `json:"font_family,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// Meta is the document-level metadata stored under the "_meta" key.
type Meta struct {
	Paper       paper.Format      `json:"paper"`
	Orientation paper.Orientation `json:"orientation,omitempty"`
	// Columns holds the selected item-table column keys. Empty means the
	// default selection.
	Columns []string `json:"columns,omitempty"`
}

// TemplateDocument is a complete invoice layout: metadata plus a set of
// uniquely identified elements. Insertion order is irrelevant.
type TemplateDocument struct {
	Meta     Meta
	Elements map[string]ElementSpec

	// present records, for documents decoded from JSON, which keys each
	// element entry actually carried. Merge overlays only those fields, so
	// keys a save omitted keep their built-in defaults.
	present map[string]map[string]bool
}

// LineItem is one row of the invoice item table, supplied by the billing
// subsystem inside the runtime context under the "items" key. Amount is
// computed as Qty*Rate at render time and never trusted from the caller.
type LineItem struct {
	Name    string  `json:"name"`
	Batch   string  `json:"batch,omitempty"`
	Expiry  string  `json:"expiry,omitempty"`
	Qty     float64 `json:"qty"`
	Rate    float64 `json:"rate"`
	DiscPct float64 `json:"disc_pct,omitempty"`
	TaxPct  float64 `json:"tax_pct,omitempty"`
}

// protectedIDs are elements every document must carry; Delete rejects them.
var protectedIDs = map[string]bool{
	"pharmacy_name": true,
	"table":         true,
	"totals":        true,
}

// Protected reports whether id is a protected element that cannot be deleted.
func Protected(id string) bool {
	return protectedIDs[id]
}

// ProtectedIDs returns the protected element ids in a stable order.
func ProtectedIDs() []string {
	ids := make([]string, 0, len(protectedIDs))
	for id := range protectedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the element with the given id.
func (d *TemplateDocument) Get(id string) (ElementSpec, bool) {
	e, ok := d.Elements[id]
	return e, ok
}

// Set adds or replaces an element. An empty Kind is inferred from the id.
func (d *TemplateDocument) Set(id string, spec ElementSpec) {
	if d.Elements == nil {
		d.Elements = make(map[string]ElementSpec)
	}
	if spec.Kind == "" {
		spec.Kind = InferKind(id)
	}
	d.Elements[id] = spec
}

// Delete removes an element. Deleting a protected id or an id that does not
// exist is rejected with a distinct error and leaves the document unchanged.
func (d *TemplateDocument) Delete(id string) error {
	if Protected(id) {
		return &Error{Op: "Delete", Err: fmt.Errorf("%w: %q", ErrProtectedElement, id)}
	}
	if _, ok := d.Elements[id]; !ok {
		return &Error{Op: "Delete", Err: fmt.Errorf("%w: %q", ErrUnknownElement, id)}
	}
	delete(d.Elements, id)
	return nil
}

// Clone returns a deep copy of the document.
func (d *TemplateDocument) Clone() *TemplateDocument {
	c := &TemplateDocument{Meta: d.Meta}
	if d.Meta.Columns != nil {
		c.Meta.Columns = append([]string(nil), d.Meta.Columns...)
	}
	c.Elements = make(map[string]ElementSpec, len(d.Elements))
	for id, e := range d.Elements {
		c.Elements[id] = e
	}
	return c
}

// IDs returns all element ids in sorted order.
func (d *TemplateDocument) IDs() []string {
	ids := make([]string, 0, len(d.Elements))
	for id := range d.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Merge overlays other onto d in place. For a document decoded from JSON,
// each element merges field by field using the keys its stored entry actually
// carried: a key the save omitted keeps d's value, so defaults introduced
// after the document was saved survive the round trip, while an explicitly
// stored zero (an emptied text, position 0) is honored. Elements of an
// in-memory document replace d's wholesale. Metadata is taken from other
// where set.
func (d *TemplateDocument) Merge(other *TemplateDocument) {
	if other == nil {
		return
	}
	if other.Meta.Paper != "" {
		d.Meta.Paper = other.Meta.Paper
	}
	if other.Meta.Orientation != "" {
		d.Meta.Orientation = other.Meta.Orientation
	}
	if other.Meta.Columns != nil {
		d.Meta.Columns = append([]string(nil), other.Meta.Columns...)
	}
	if d.Elements == nil {
		d.Elements = make(map[string]ElementSpec)
	}
	for id, in := range other.Elements {
		out, ok := d.Elements[id]
		if !ok {
			out = ElementSpec{}
		}
		if pres, tracked := other.present[id]; tracked {
			overlay(&out, in, pres)
		} else {
			out = in
		}
		if out.Kind == "" {
			out.Kind = InferKind(id)
		}
		d.Elements[id] = out
	}
}

// overlay copies onto dst only the fields whose JSON keys the stored element
// carried.
func overlay(dst *ElementSpec, src ElementSpec, present map[string]bool) {
	if present["kind"] {
		dst.Kind = src.Kind
	}
	if present["text"] {
		dst.Text = src.Text
	}
	if present["x"] {
		dst.X = src.X
	}
	if present["y"] {
		dst.Y = src.Y
	}
	if present["size"] {
		dst.Size = src.Size
	}
	if present["weight"] {
		dst.Weight = src.Weight
	}
	if present["align"] {
		dst.Align = src.Align
	}
	if present["font_family"] {
		dst.FontFamily = src.FontFamily
	}
	if present["width"] {
		dst.Width = src.Width
	}
	if present["height"] {
		dst.Height = src.Height
	}
}

// InferKind derives an element kind from its id for documents saved before
// the explicit kind field existed.
func InferKind(id string) Kind {
	switch {
	case strings.Contains(id, "qrcode") || strings.Contains(id, "qr_code"):
		return KindQRCode
	case strings.Contains(id, "barcode"):
		return KindBarcode
	case strings.Contains(id, "logo"):
		return KindLogo
	case strings.Contains(id, "stamp") || strings.Contains(id, "signature") || strings.Contains(id, "image"):
		return KindImage
	case strings.Contains(id, "box") || strings.Contains(id, "border"):
		return KindBox
	case id == "table" || strings.Contains(id, "table"):
		return KindTable
	case id == "totals" || strings.Contains(id, "totals"):
		return KindTotals
	default:
		return KindText
	}
}

// MarshalJSON flattens the document into a single object: "_meta" plus one
// property per element id.
func (d *TemplateDocument) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(d.Elements)+1)
	meta, err := json.Marshal(d.Meta)
	if err != nil {
		return nil, err
	}
	raw["_meta"] = meta
	for id, e := range d.Elements {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		raw[id] = b
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads the flattened persisted form. Element entries that do
// not decode are skipped rather than failing the whole document.
func (d *TemplateDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Elements = make(map[string]ElementSpec, len(raw))
	d.present = make(map[string]map[string]bool, len(raw))
	for key, val := range raw {
		if key == "_meta" {
			var m Meta
			if err := json.Unmarshal(val, &m); err == nil {
				d.Meta = m
			}
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(val, &fields); err != nil {
			continue
		}
		var e ElementSpec
		if err := json.Unmarshal(val, &e); err != nil {
			continue
		}
		if e.Kind == "" {
			e.Kind = InferKind(key)
		}
		pres := make(map[string]bool, len(fields))
		for f := range fields {
			pres[f] = true
		}
		d.Elements[key] = e
		d.present[key] = pres
	}
	return nil
}

// FromJSON loads a stored document by merging it onto the built-in defaults.
// Corrupt or partial input degrades to the defaults instead of failing, so a
// template can always be loaded.
func FromJSON(data []byte) *TemplateDocument {
	doc := Default()
	var stored TemplateDocument
	if err := json.Unmarshal(data, &stored); err != nil {
		return doc
	}
	doc.Merge(&stored)
	return doc
}

// Equal reports whether two documents have the same metadata and elements,
// ignoring map ordering.
func (d *TemplateDocument) Equal(other *TemplateDocument) bool {
	if other == nil {
		return false
	}
	if d.Meta.Paper != other.Meta.Paper || d.Meta.Orientation != other.Meta.Orientation {
		return false
	}
	if len(d.Meta.Columns) != len(other.Meta.Columns) {
		return false
	}
	for i, c := range d.Meta.Columns {
		if other.Meta.Columns[i] != c {
			return false
		}
	}
	if len(d.Elements) != len(other.Elements) {
		return false
	}
	for id, e := range d.Elements {
		if other.Elements[id] != e {
			return false
		}
	}
	return true
}
