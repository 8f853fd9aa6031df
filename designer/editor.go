package designer

import (
	"fmt"

	billforge "github.com/medira/billforge"
)

// Delta is a partial update to an element's properties. Nil fields are left
// unchanged.
type Delta struct {
	Text       *string
	X, Y       *float64
	Size       *float64
	Weight     *billforge.Weight
	Align      *billforge.Align
	FontFamily *string
	Width      *float64
	Height     *float64
}

// Editor applies property-panel edits to the element that was selected when
// the editor was opened. The target id is captured at creation, so an edit
// committed after the selection moved on still lands on the element the
// operator was editing, never on the new selection.
type Editor struct {
	session *Session
	id      string
}

// Editor opens a property editor bound to the currently selected element.
func (s *Session) Editor() (*Editor, error) {
	if s.state != Selected {
		return nil, &billforge.Error{Op: "Editor", Err: billforge.ErrNoSelection}
	}
	return &Editor{session: s, id: s.activeID}, nil
}

// ID returns the element id this editor is bound to.
func (e *Editor) ID() string {
	return e.id
}

// Apply merges the delta into the bound element and re-renders the preview
// synchronously. It fails if the element has since been deleted.
func (e *Editor) Apply(d Delta) error {
	el, ok := e.session.doc.Get(e.id)
	if !ok {
		return &billforge.Error{Op: "Editor.Apply", Err: fmt.Errorf("%w: %q", billforge.ErrUnknownElement, e.id)}
	}
	if d.Text != nil {
		el.Text = *d.Text
	}
	if d.X != nil {
		el.X = *d.X
	}
	if d.Y != nil {
		el.Y = *d.Y
	}
	if d.Size != nil {
		el.Size = *d.Size
	}
	if d.Weight != nil {
		el.Weight = *d.Weight
	}
	if d.Align != nil {
		el.Align = *d.Align
	}
	if d.FontFamily != nil {
		el.FontFamily = *d.FontFamily
	}
	if d.Width != nil {
		el.Width = *d.Width
	}
	if d.Height != nil {
		el.Height = *d.Height
	}
	e.session.doc.Set(e.id, el)
	e.session.render()
	return nil
}

// SetText is a convenience for the most common property edit.
func (e *Editor) SetText(text string) error {
	return e.Apply(Delta{Text: &text})
}

// SetFontSize updates the element's font size.
func (e *Editor) SetFontSize(size float64) error {
	return e.Apply(Delta{Size: &size})
}

// SetPosition moves the element to an absolute design-space position.
func (e *Editor) SetPosition(x, y float64) error {
	return e.Apply(Delta{X: &x, Y: &y})
}
