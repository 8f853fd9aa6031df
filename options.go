package billforge

import "github.com/medira/billforge/paper"

// Option is a functional option for configuring a new TemplateDocument via New.
type Option func(*TemplateDocument)

// WithPaper sets the paper format.
func WithPaper(f paper.Format) Option {
	return func(d *TemplateDocument) {
		d.Meta.Paper = f
	}
}

// WithOrientation sets the page orientation.
// Use paper.Portrait or paper.Landscape.
func WithOrientation(o paper.Orientation) Option {
	return func(d *TemplateDocument) {
		d.Meta.Orientation = o
	}
}

// WithColumns sets the selected item-table columns by canonical key.
func WithColumns(keys ...string) Option {
	return func(d *TemplateDocument) {
		d.Meta.Columns = append([]string(nil), keys...)
	}
}

// WithElement adds or replaces an element on the new document.
func WithElement(id string, spec ElementSpec) Option {
	return func(d *TemplateDocument) {
		d.Set(id, spec)
	}
}

// New creates a TemplateDocument from the built-in defaults with the given
// options applied.
func New(opts ...Option) *TemplateDocument {
	d := Default()
	for _, opt := range opts {
		opt(d)
	}
	return d
}
