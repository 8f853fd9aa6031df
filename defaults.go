package billforge

import "github.com/medira/billforge/paper"

// defaultElements is the built-in layout every new document starts from.
// Coordinates are design-space pixels on the A4 portrait canvas (595x842).
// Stored documents are merged onto a copy of this set so a template saved by
// an older build still picks up elements introduced later.
func defaultElements() map[string]ElementSpec {
	return map[string]ElementSpec{
		"logo": {
			Kind: KindLogo, X: 20, Y: 20, Width: 50, Height: 50,
		},
		"pharmacy_name": {
			Kind: KindText, Text: "{{pharmacy_name}}",
			X: 297, Y: 45, Size: 16, Weight: WeightBold, Align: AlignCenter,
		},
		"address": {
			Kind: KindText, Text: "{{address}}",
			X: 297, Y: 70, Size: 10, Align: AlignCenter,
		},
		"info_line": {
			Kind: KindText,
			X:    297, Y: 90, Size: 9, Align: AlignCenter,
		},
		"title": {
			Kind: KindText, Text: "TAX INVOICE",
			X: 297, Y: 115, Size: 14, Weight: WeightBold, Align: AlignCenter,
		},
		"table": {
			Kind: KindTable, X: 20, Y: 200, Width: 555,
		},
		"totals": {
			Kind: KindTotals, X: 575, Y: 640, Size: 9, Align: AlignRight,
		},
		"qrcode": {
			Kind: KindQRCode, Text: "{{bill_number}}",
			X: 20, Y: 700, Width: 60, Height: 60,
		},
		"stamp": {
			Kind: KindImage, X: 455, Y: 690, Width: 80, Height: 80,
		},
		"signature": {
			Kind: KindImage, X: 455, Y: 775, Width: 100, Height: 40,
		},
		"terms": {
			Kind: KindText, Text: "Goods once sold cannot be returned.",
			X: 297, Y: 800, Size: 8, Align: AlignCenter,
		},
		"thank_you": {
			Kind: KindText, Text: "Thank You! Get Well Soon.",
			X: 297, Y: 815, Size: 8, Align: AlignCenter,
		},
	}
}

// DefaultColumns is the item-table column selection a new document starts
// with, by canonical column key.
var DefaultColumns = []string{"ITEM", "QTY", "RATE", "BATCH", "EXP", "AMOUNT"}

// Default returns a new TemplateDocument populated with the built-in element
// set on A4 portrait.
func Default() *TemplateDocument {
	return &TemplateDocument{
		Meta: Meta{
			Paper:       paper.A4,
			Orientation: paper.Portrait,
			Columns:     append([]string(nil), DefaultColumns...),
		},
		Elements: defaultElements(),
	}
}
