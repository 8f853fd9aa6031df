// Package render turns a TemplateDocument plus a runtime data context into a
// print-ready PDF.
//
// Rendering is deterministic and stateless: each call lays the document out
// with a vertical millimeter cursor, top to bottom, paginating the item table
// at a fixed bottom margin and repeating the header block on every new page.
// A Renderer holds only configuration and may be shared by concurrent calls.
package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/binding"
	"github.com/medira/billforge/paper"
)

// Renderer renders TemplateDocuments. The zero value is usable; options
// configure fonts, bound images and an optional letterhead.
type Renderer struct {
	fontDir    string
	baseFont   string
	letterhead string
	images     map[string]string
	created    time.Time
	compress   bool
}

// Option is a functional option for configuring a Renderer.
type Option func(*Renderer)

// WithFontDir sets the directory where font files are located.
func WithFontDir(dir string) Option {
	return func(r *Renderer) {
		r.fontDir = dir
	}
}

// WithBaseFont sets the default font face for elements that do not name one.
func WithBaseFont(family string) Option {
	return func(r *Renderer) {
		r.baseFont = family
	}
}

// WithLetterhead draws page 1 of the given PDF under every rendered page.
func WithLetterhead(path string) Option {
	return func(r *Renderer) {
		r.letterhead = path
	}
}

// WithImage binds an image file to a logo/image element id. Elements with no
// bound image render a labeled placeholder box instead of failing.
func WithImage(elementID, path string) Option {
	return func(r *Renderer) {
		r.images[elementID] = path
	}
}

// WithCreationDate pins the PDF creation timestamp, making output
// byte-for-byte reproducible across calls.
func WithCreationDate(t time.Time) Option {
	return func(r *Renderer) {
		r.created = t
	}
}

// WithCompression toggles content stream compression. Compression is on by
// default; turning it off leaves the page streams readable.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) {
		r.compress = enabled
	}
}

// NewRenderer creates a Renderer with the given options applied.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		baseFont: "Helvetica",
		images:   make(map[string]string),
		compress: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result reports what a render produced.
type Result struct {
	Pages int
}

// Render writes the document as a PDF to w. The template is snapshotted onto
// the built-in defaults up front, so a partial or nil document still renders,
// and ctx is treated as read-only.
func (r *Renderer) Render(w io.Writer, doc *billforge.TemplateDocument, ctx binding.Context) (Result, error) {
	merged := billforge.Default()
	if doc != nil {
		merged.Merge(doc)
	}
	if ctx == nil {
		ctx = binding.Context{}
	}

	dims, err := paper.Size(merged.Meta.Paper, merged.Meta.Orientation)
	if err != nil {
		// A corrupt paper name degrades to the default format rather
		// than refusing to render.
		dims, _ = paper.Size(paper.A4, paper.Portrait)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: dims.WidthMm, Ht: dims.HeightMm},
		FontDirStr:     r.fontDir,
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.compress)
	if !r.created.IsZero() {
		pdf.SetCreationDate(r.created)
		pdf.SetModificationDate(r.created)
	}

	l := &layout{
		pdf:  pdf,
		r:    r,
		doc:  merged,
		ctx:  ctx,
		dims: dims,
	}
	l.run()

	if pdf.Err() {
		return Result{}, &billforge.Error{Op: "Render", Err: pdf.Error()}
	}
	if err := pdf.Output(w); err != nil {
		return Result{}, &billforge.Error{Op: "Render", Err: err}
	}
	return Result{Pages: pdf.PageCount()}, nil
}

// RenderFile renders to a file at path. The document is written to a
// temporary file in the same directory and moved into place, so a failed
// render never leaves a truncated file at the target.
func (r *Renderer) RenderFile(path string, doc *billforge.TemplateDocument, ctx binding.Context) (Result, error) {
	var buf bytes.Buffer
	res, err := r.Render(&buf, doc, ctx)
	if err != nil {
		return res, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".billforge-*.pdf")
	if err != nil {
		return res, &billforge.Error{Op: "RenderFile", Err: err}
	}
	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return res, &billforge.Error{Op: "RenderFile", Err: werr}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return res, &billforge.Error{Op: "RenderFile", Err: err}
	}
	return res, nil
}

// fontStyle maps an element weight to a gofpdf style string.
func fontStyle(w billforge.Weight) string {
	switch w {
	case billforge.WeightBold:
		return "B"
	case billforge.WeightItalic:
		return "I"
	default:
		return ""
	}
}

// alignStr maps an element alignment to a gofpdf alignment string.
func alignStr(a billforge.Align) string {
	switch a {
	case billforge.AlignCenter:
		return "C"
	case billforge.AlignRight:
		return "R"
	default:
		return "L"
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
