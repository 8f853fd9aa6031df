package render

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/binding"
	"github.com/medira/billforge/columns"
	"github.com/medira/billforge/paper"
)

// Layout constants, all millimeters.
const (
	marginX   = 10.0
	marginTop = 10.0
	// bottomBand is the reserved space at the page bottom; an item row that
	// would enter it starts a new page instead.
	bottomBand = 35.0
	footerY    = 10.0

	headRowH = 6.0
	rowH     = 5.0
)

// layout is the per-render cursor state. One layout serves one Render call.
type layout struct {
	pdf  *gofpdf.Fpdf
	r    *Renderer
	doc  *billforge.TemplateDocument
	ctx  binding.Context
	dims paper.Dimensions

	y       float64
	imp     *gofpdi.Importer
	lhTpl   int
	lhTried bool
}

func (l *layout) run() {
	items := l.items()
	sel := columns.ParseSelection(l.doc.Meta.Columns)
	cols := l.tableColumns(sel)

	l.newPage()
	l.drawFreeElements()
	l.drawMeta()

	l.drawTableHeader(cols)
	for i, it := range items {
		if l.y+rowH > l.dims.HeightMm-bottomBand {
			l.newPage()
			l.drawTableHeader(cols)
		}
		l.drawRow(cols, i, it)
	}

	l.drawTotals(items)
	l.drawFooter()
}

// newPage starts a page, draws the letterhead underlay if configured, and
// repeats the header block.
func (l *layout) newPage() {
	l.pdf.AddPage()
	l.drawLetterhead()
	l.drawHeaderBlock()
}

// drawLetterhead underlays page 1 of the configured letterhead PDF. The
// importer is owned by this layout, so concurrent Render calls on one
// Renderer never share importer state.
func (l *layout) drawLetterhead() {
	if l.r.letterhead == "" {
		return
	}
	if !l.lhTried {
		l.lhTried = true
		if _, err := os.Stat(l.r.letterhead); err != nil {
			return
		}
		imp := gofpdi.NewImporter()
		l.lhTpl = imp.ImportPage(l.pdf, l.r.letterhead, 1, "/MediaBox")
		l.imp = imp
	}
	if l.imp != nil {
		l.imp.UseImportedTemplate(l.pdf, l.lhTpl, 0, 0, l.dims.WidthMm, l.dims.HeightMm)
	}
}

// element fetches an element with a zero-value fallback so a stripped
// document still renders.
func (l *layout) element(id string) billforge.ElementSpec {
	el, _ := l.doc.Get(id)
	return el
}

// resolve runs binding resolution against the render context.
func (l *layout) resolve(text string) string {
	return binding.Resolve(text, l.ctx)
}

// line draws one full-width text line styled by el and advances the cursor.
func (l *layout) line(el billforge.ElementSpec, size float64, style string, text string, h float64) {
	if el.Size != 0 {
		size = el.Size
	}
	if el.Weight != "" {
		style = fontStyle(el.Weight)
	}
	family := el.FontFamily
	if family == "" {
		family = l.r.baseFont
	}
	align := "C"
	if el.Align != "" {
		align = alignStr(el.Align)
	}
	l.pdf.SetFont(family, style, size)
	l.pdf.SetXY(marginX, l.y)
	l.pdf.CellFormat(l.dims.WidthMm-2*marginX, h, text, "", 0, align, false, 0, "")
	l.y += h
}

// drawHeaderBlock emits the pharmacy header: name, address, the PAN/ODA/phone
// info line composed from non-empty parts, a separator rule, and the title.
// It is repeated verbatim at the top of every page.
func (l *layout) drawHeaderBlock() {
	l.y = marginTop + 2

	nameEl := l.element("pharmacy_name")
	name := strings.ToUpper(l.resolve(nameEl.Text))
	if name == "" {
		name = "PHARMACY NAME"
	}
	l.line(nameEl, 16, "B", name, 7)

	addrEl := l.element("address")
	if addr := l.resolve(addrEl.Text); addr != "" {
		l.line(addrEl, 10, "", addr, 5)
	}

	infoEl := l.element("info_line")
	info := l.resolve(infoEl.Text)
	if info == "" {
		var parts []string
		if pan := l.ctx.String("pan_number"); pan != "" {
			parts = append(parts, "PAN: "+pan)
		}
		if oda := l.ctx.String("oda_number"); oda != "" {
			parts = append(parts, "ODA: "+oda)
		}
		if ph := l.ctx.String("pharmacy_contact"); ph != "" {
			parts = append(parts, "Ph: "+ph)
		}
		info = strings.Join(parts, " | ")
	}
	if info != "" {
		l.line(infoEl, 9, "", info, 4)
	}

	l.y += 1
	l.pdf.SetLineWidth(0.5)
	l.pdf.Line(marginX, l.y, l.dims.WidthMm-marginX, l.y)
	l.pdf.SetLineWidth(0.2)
	l.y += 2

	titleEl := l.element("title")
	title := strings.ToUpper(l.resolve(titleEl.Text))
	if title == "" {
		title = "TAX INVOICE"
	}
	l.line(titleEl, 12, "B", title, 6)
	l.y += 2
}

// drawMeta emits the invoice and customer columns side by side, both anchored
// to the same starting vertical offset.
func (l *layout) drawMeta() {
	startY := l.y
	col1 := marginX + 5
	col2 := l.dims.WidthMm/2 + 5

	l.pdf.SetFont(l.r.baseFont, "B", 9)

	put := func(x, y float64, s string) {
		l.pdf.SetXY(x, y)
		l.pdf.CellFormat(l.dims.WidthMm/2-marginX-5, 4, s, "", 0, "L", false, 0, "")
	}

	inv := l.ctx.String("bill_number")
	if inv == "" {
		inv = "-"
	}
	date := l.ctx.String("invoice_date")
	pay := l.ctx.String("payment_category")
	if pay == "" {
		pay = "CASH"
	}
	put(col1, startY, "Invoice No: "+inv)
	put(col1, startY+4, "Date: "+date)
	put(col1, startY+8, "Pay Mode: "+pay)

	customer := l.ctx.String("customer_name")
	if customer == "" {
		customer = "Walk-in"
	}
	phone := l.ctx.String("customer_contact")
	if phone == "" {
		phone = "-"
	}
	sex := l.ctx.String("customer_sex")
	if sex == "" {
		sex = "-"
	}
	put(col2, startY, "Customer: "+customer)
	put(col2, startY+4, "Phone: "+phone)
	put(col2, startY+8, "Sex: "+sex)

	l.y = startY + 12 + 6
}

// tcol is one resolved item-table column with its physical width.
type tcol struct {
	key   columns.Key
	label string
	w     float64
	align string
}

// fixedWidths are the millimeter widths of the non-fill columns; the
// Particulars column absorbs whatever remains.
var fixedWidths = map[columns.Key]struct {
	w     float64
	align string
}{
	columns.Qty:    {12, "C"},
	columns.Rate:   {18, "R"},
	columns.Batch:  {22, "L"},
	columns.Exp:    {20, "L"},
	columns.Disc:   {14, "R"},
	columns.Tax:    {14, "R"},
	columns.Amount: {25, "R"},
}

// tableColumns resolves the selection into render columns. The serial column
// is always first and order follows the catalogue, matching the composer.
func (l *layout) tableColumns(sel columns.Selection) []tcol {
	avail := l.dims.WidthMm - 2*marginX
	out := []tcol{{key: "SN", label: "S.N", w: 8, align: "L"}}
	used := out[0].w

	itemIdx := -1
	for _, c := range columns.Catalogue {
		if !sel[c.Key] {
			continue
		}
		if c.Key == columns.Item {
			itemIdx = len(out)
			out = append(out, tcol{key: c.Key, label: c.Label, align: "L"})
			continue
		}
		fw := fixedWidths[c.Key]
		out = append(out, tcol{key: c.Key, label: c.Label, w: fw.w, align: fw.align})
		used += fw.w
	}
	if itemIdx >= 0 {
		w := avail - used
		if w < 25 {
			w = 25
		}
		out[itemIdx].w = w
	}
	return out
}

// drawTableHeader emits the shaded header row.
func (l *layout) drawTableHeader(cols []tcol) {
	l.pdf.SetFillColor(230, 230, 230)
	l.pdf.SetFont(l.r.baseFont, "B", 8)
	l.pdf.SetXY(marginX, l.y)
	for _, c := range cols {
		l.pdf.CellFormat(c.w, headRowH, c.label, "", 0, c.align, true, 0, "")
	}
	l.y += headRowH
}

// drawRow emits one item row. The amount is computed from qty and rate here,
// never read from the line item.
func (l *layout) drawRow(cols []tcol, idx int, it billforge.LineItem) {
	l.pdf.SetFont(l.r.baseFont, "", 8)
	l.pdf.SetXY(marginX, l.y)
	for _, c := range cols {
		l.pdf.CellFormat(c.w, rowH, l.cellValue(c.key, idx, it), "", 0, c.align, false, 0, "")
	}
	l.y += rowH
}

func (l *layout) cellValue(key columns.Key, idx int, it billforge.LineItem) string {
	switch key {
	case "SN":
		return strconv.Itoa(idx + 1)
	case columns.Item:
		return truncate(it.Name, 35)
	case columns.Qty:
		return binding.Stringify(it.Qty)
	case columns.Rate:
		return money(it.Rate)
	case columns.Batch:
		return it.Batch
	case columns.Exp:
		return it.Expiry
	case columns.Disc:
		if it.DiscPct == 0 {
			return "-"
		}
		return binding.Stringify(it.DiscPct)
	case columns.Tax:
		if it.TaxPct == 0 {
			return "-"
		}
		return binding.Stringify(it.TaxPct)
	case columns.Amount:
		return money(it.Qty * it.Rate)
	default:
		return ""
	}
}

// drawTotals emits the right-aligned totals block: subtotal, discount when
// non-zero, and the grand total.
func (l *layout) drawTotals(items []billforge.LineItem) {
	l.y += 2
	l.pdf.Line(marginX, l.y, l.dims.WidthMm-marginX, l.y)
	l.y += 3

	var subtotal float64
	for _, it := range items {
		subtotal += it.Qty * it.Rate
	}
	discount := l.ctx.Float("discount_amount")
	grand := l.ctx.Float("grand_total")
	if grand == 0 {
		grand = subtotal - discount
	}

	el := l.element("totals")
	size := el.Size
	if size == 0 {
		size = 9
	}
	labelX := l.dims.WidthMm - marginX - 60

	put := func(style string, sz float64, label, val string, h float64) {
		l.pdf.SetFont(l.r.baseFont, style, sz)
		l.pdf.SetXY(labelX, l.y)
		l.pdf.CellFormat(30, h, label, "", 0, "L", false, 0, "")
		l.pdf.CellFormat(30, h, val, "", 0, "R", false, 0, "")
		l.y += h
	}

	put("", size, "Subtotal:", money(subtotal), 4)
	if discount > 0 {
		put("", size, "Discount:", money(discount), 4)
	}
	put("B", size+1, "Grand Total:", "Rs. "+money(grand), 5)
}

// drawFooter emits the cashier name and the thank-you phrase on the fixed
// bottom line of the final page.
func (l *layout) drawFooter() {
	y := l.dims.HeightMm - footerY

	cashier := l.ctx.String("sold_by")
	if cashier == "" {
		cashier = "Staff"
	}
	l.pdf.SetFont(l.r.baseFont, "", 8)
	l.pdf.SetXY(marginX, y)
	l.pdf.CellFormat(60, 4, "Cashier: "+cashier, "", 0, "L", false, 0, "")

	thanks := l.resolve(l.element("thank_you").Text)
	if thanks == "" {
		thanks = "Thank You! Get Well Soon."
	}
	l.pdf.SetXY(marginX, y)
	l.pdf.CellFormat(l.dims.WidthMm-2*marginX, 4, thanks, "", 0, "C", false, 0, "")
}

func (l *layout) items() []billforge.LineItem {
	if items, ok := l.ctx["items"].([]billforge.LineItem); ok {
		return items
	}
	return nil
}

// truncate cuts s to at most n characters on rune boundaries.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
