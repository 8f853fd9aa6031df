package render

import (
	"bytes"
	"strings"

	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/barcode"

	billforge "github.com/medira/billforge"
)

// structural elements are drawn by the cursor layout, not at their own
// coordinates.
var structural = map[string]bool{
	"pharmacy_name": true,
	"address":       true,
	"info_line":     true,
	"title":         true,
	"table":         true,
	"totals":        true,
	"thank_you":     true,
}

// ptToMm converts a font size in points to millimeters.
const ptToMm = 25.4 / 72.0

// drawFreeElements renders every non-structural element at its design-space
// position, converted to millimeters for this page. Ids are visited in sorted
// order so output is deterministic.
func (l *layout) drawFreeElements() {
	for _, id := range l.doc.IDs() {
		if structural[id] {
			continue
		}
		el := l.element(id)
		x := el.X * l.dims.MmPerDesignX()
		y := el.Y * l.dims.MmPerDesignY()
		w := el.Width * l.dims.MmPerDesignX()
		h := el.Height * l.dims.MmPerDesignY()

		switch el.Kind {
		case billforge.KindText:
			l.freeText(el, x, y)
		case billforge.KindBox:
			l.pdf.Rect(x, y, w, h, "D")
		case billforge.KindQRCode:
			l.codeElement(el, x, y, w, h, "QR")
		case billforge.KindBarcode:
			l.codeElement(el, x, y, w, h, "BARCODE")
		case billforge.KindLogo:
			l.imageElement(id, el, x, y, w, h, "LOGO")
		case billforge.KindImage:
			l.imageElement(id, el, x, y, w, h, imageLabel(id))
		}
	}
}

// freeText draws one positioned text element. The element's x anchors its
// left, center, or right edge depending on alignment, matching the designer
// canvas.
func (l *layout) freeText(el billforge.ElementSpec, x, y float64) {
	text := l.resolve(el.Text)
	if text == "" {
		return
	}
	size := el.Size
	if size == 0 {
		size = 10
	}
	family := el.FontFamily
	if family == "" {
		family = l.r.baseFont
	}
	l.pdf.SetFont(family, fontStyle(el.Weight), size)

	w := l.pdf.GetStringWidth(text)
	switch el.Align {
	case billforge.AlignCenter:
		x -= w / 2
	case billforge.AlignRight:
		x -= w
	}
	l.pdf.Text(x, y+size*ptToMm, text)
}

// codeElement draws a QR or PDF417 code. The code content is the element's
// resolved text, falling back to the bill number; with no content at all a
// labeled placeholder box is drawn instead.
func (l *layout) codeElement(el billforge.ElementSpec, x, y, w, h float64, label string) {
	if w <= 0 {
		w = 20
	}
	if h <= 0 {
		h = 20
	}
	content := l.resolve(el.Text)
	if content == "" {
		content = l.ctx.String("bill_number")
	}
	if content == "" {
		l.placeholder(x, y, w, h, label)
		return
	}
	var key string
	if label == "QR" {
		key = barcode.RegisterQR(l.pdf, content, qr.M, qr.Unicode)
	} else {
		key = barcode.RegisterPdf417(l.pdf, content, 4, 2)
	}
	barcode.Barcode(l.pdf, key, x, y, w, h, false)
}

// imageElement draws a bound image fitted inside the element box, or a
// labeled placeholder when no image is bound or it cannot be decoded. A bad
// image never fails the document.
func (l *layout) imageElement(id string, el billforge.ElementSpec, x, y, w, h float64, label string) {
	if w <= 0 {
		w = 20
	}
	if h <= 0 {
		h = 20
	}
	path, ok := l.r.images[id]
	if !ok {
		l.placeholder(x, y, w, h, label)
		return
	}
	img, err := imaging.Open(path)
	if err != nil {
		l.placeholder(x, y, w, h, label)
		return
	}

	// Fit at roughly 8px/mm (~200dpi) preserving aspect ratio.
	fitted := imaging.Fit(img, int(w*8), int(h*8), imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.PNG); err != nil {
		l.placeholder(x, y, w, h, label)
		return
	}

	name := "img_" + id
	l.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	b := fitted.Bounds()
	l.pdf.ImageOptions(name, x, y, float64(b.Dx())/8, float64(b.Dy())/8, false,
		gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

// placeholder draws the labeled box used when an image or code is missing.
func (l *layout) placeholder(x, y, w, h float64, label string) {
	l.pdf.SetDrawColor(170, 170, 170)
	l.pdf.Rect(x, y, w, h, "D")
	l.pdf.SetDrawColor(0, 0, 0)

	l.pdf.SetFont(l.r.baseFont, "", 7)
	l.pdf.SetTextColor(130, 130, 130)
	l.pdf.SetXY(x, y+h/2-2)
	l.pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")
	l.pdf.SetTextColor(0, 0, 0)
}

// imageLabel derives the placeholder label from an element id, e.g.
// "stamp_1a2b" becomes "STAMP".
func imageLabel(id string) string {
	base, _, _ := strings.Cut(id, "_")
	if base == "" {
		base = "image"
	}
	return strings.ToUpper(base)
}
