// Package designer implements the interactive template editing session as a
// state machine over a single TemplateDocument, independent of any UI toolkit.
//
// A session is Idle, Selected on one element, or Dragging that element. Every
// mutation re-renders the preview synchronously through the session's preview
// callback before the mutating call returns, so there is never a pending
// preview state. The session owns a private copy of the document; callers get
// clones and the edited document leaves the session only through Document or
// an explicit save.
package designer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	billforge "github.com/medira/billforge"
	"github.com/medira/billforge/columns"
	"github.com/medira/billforge/paper"
)

// State is the designer interaction state.
type State int

const (
	Idle State = iota
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Selected:
		return "Selected"
	case Dragging:
		return "Dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PreviewFunc receives the current document after every mutation. It runs
// synchronously on the caller's goroutine.
type PreviewFunc func(doc *billforge.TemplateDocument)

// Session is one editing session over one document. Sessions are not safe for
// concurrent use; the editor is single-threaded by design.
type Session struct {
	doc      *billforge.TemplateDocument
	state    State
	activeID string
	preview  PreviewFunc
}

// NewSession starts an editing session on a private copy of doc. A nil doc
// starts from the built-in defaults; a nil preview disables preview updates.
func NewSession(doc *billforge.TemplateDocument, preview PreviewFunc) *Session {
	if doc == nil {
		doc = billforge.Default()
	}
	return &Session{doc: doc.Clone(), preview: preview}
}

// Document returns a copy of the session's current document.
func (s *Session) Document() *billforge.TemplateDocument {
	return s.doc.Clone()
}

// State returns the current interaction state.
func (s *Session) State() State {
	return s.state
}

// Selection returns the selected element id, if any.
func (s *Session) Selection() (string, bool) {
	if s.state == Idle {
		return "", false
	}
	return s.activeID, true
}

func (s *Session) render() {
	if s.preview != nil {
		s.preview(s.doc)
	}
}

// Select transitions Idle or Selected to Selected(id).
func (s *Session) Select(id string) error {
	if s.state == Dragging {
		return &billforge.Error{Op: "Select", Err: billforge.ErrInvalidState}
	}
	if _, ok := s.doc.Get(id); !ok {
		return &billforge.Error{Op: "Select", Err: fmt.Errorf("%w: %q", billforge.ErrUnknownElement, id)}
	}
	s.state = Selected
	s.activeID = id
	return nil
}

// Deselect returns to Idle. Valid only while Selected.
func (s *Session) Deselect() error {
	if s.state != Selected {
		return &billforge.Error{Op: "Deselect", Err: billforge.ErrInvalidState}
	}
	s.state = Idle
	s.activeID = ""
	return nil
}

// BeginDrag transitions Selected to Dragging on the selected element.
func (s *Session) BeginDrag() error {
	if s.state != Selected {
		return &billforge.Error{Op: "BeginDrag", Err: billforge.ErrNoSelection}
	}
	s.state = Dragging
	return nil
}

// Move applies a drag delta to the dragged element's position and re-renders
// the preview. Valid only while Dragging; called once per move event.
func (s *Session) Move(dx, dy float64) error {
	if s.state != Dragging {
		return &billforge.Error{Op: "Move", Err: billforge.ErrInvalidState}
	}
	el, _ := s.doc.Get(s.activeID)
	el.X += dx
	el.Y += dy
	s.doc.Set(s.activeID, el)
	s.render()
	return nil
}

// Release ends a drag, returning to Selected on the same element.
func (s *Session) Release() error {
	if s.state != Dragging {
		return &billforge.Error{Op: "Release", Err: billforge.ErrInvalidState}
	}
	s.state = Selected
	return nil
}

// AddElement creates a new element whose id is base plus a random
// disambiguator, selects it, and re-renders. The id is guaranteed unique
// within the document.
func (s *Session) AddElement(base string, spec billforge.ElementSpec) (string, error) {
	if s.state == Dragging {
		return "", &billforge.Error{Op: "AddElement", Err: billforge.ErrInvalidState}
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = "text"
	}
	id := newID(base)
	for {
		if _, ok := s.doc.Get(id); !ok {
			break
		}
		id = newID(base)
	}
	s.doc.Set(id, spec)
	s.state = Selected
	s.activeID = id
	s.render()
	return id, nil
}

func newID(base string) string {
	return base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Delete removes the selected element and returns to Idle. Protected elements
// are rejected with billforge.ErrProtectedElement; the caller surfaces the
// rejection to the operator.
func (s *Session) Delete() error {
	if s.state != Selected {
		return &billforge.Error{Op: "Delete", Err: billforge.ErrNoSelection}
	}
	if err := s.doc.Delete(s.activeID); err != nil {
		return err
	}
	s.state = Idle
	s.activeID = ""
	s.render()
	return nil
}

// SetPaper changes the document's paper format and orientation and
// re-renders. The format must be registered.
func (s *Session) SetPaper(f paper.Format, o paper.Orientation) error {
	if _, err := paper.Size(f, o); err != nil {
		return &billforge.Error{Op: "SetPaper", Err: err}
	}
	s.doc.Meta.Paper = f
	s.doc.Meta.Orientation = o
	s.render()
	return nil
}

// ToggleColumn flips an item-table column and re-renders. Unknown keys are
// ignored, matching the composer.
func (s *Session) ToggleColumn(k columns.Key) {
	sel := columns.ParseSelection(s.doc.Meta.Columns)
	sel.Toggle(k)
	keys := sel.Keys()
	cols := make([]string, len(keys))
	for i, key := range keys {
		cols[i] = string(key)
	}
	s.doc.Meta.Columns = cols
	s.render()
}
