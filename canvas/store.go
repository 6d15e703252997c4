// Package canvas holds the editable state of a poster: the element list,
// the current selection, the property editor bound to that selection and
// the template presets that reset it.
package canvas

import (
	"sync"

	"designer-pro/core"
)

// Direction is a nudge direction for MoveSelected.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// DefaultStep is the nudge distance used by the arrow buttons.
const DefaultStep = 10.0

// Store is the single source of truth for one document and its selection.
// Every operation is total: unknown ids are ignored rather than reported.
type Store struct {
	mu       sync.Mutex
	doc      *core.Document
	selected core.ElementID
	revision uint64
}

// NewStore creates a store holding an empty document.
func NewStore(width, height int, background core.Background) *Store {
	doc := core.NewDocument(width, height)
	doc.Background = background
	return &Store{doc: doc}
}

// Document returns a deep copy of the current document.
func (s *Store) Document() *core.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Elements returns copies of the elements in paint order.
func (s *Store) Elements() core.Elements {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone().Elements
}

// Element returns a copy of the element with the given id.
func (s *Store) Element(id core.ElementID) (core.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.doc.IndexOf(id); i >= 0 {
		return s.doc.Elements[i].Clone(), true
	}
	return nil, false
}

// Revision increases on every mutation that changed the document or selection.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// AddElement appends el on top of the paint order and selects it. An
// element whose id is already in the document is ignored and false is
// returned.
func (s *Store) AddElement(el core.Element) bool {
	if el == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.IndexOf(el.ID()) >= 0 {
		return false
	}
	s.doc.Elements = append(s.doc.Elements, el.Clone())
	s.selected = el.ID()
	s.revision++
	return true
}

// UpdateElement merges p into the element with the given id. It returns
// false if no such element exists; that is not an error, an edit may race a
// deletion.
func (s *Store) UpdateElement(id core.ElementID, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.IndexOf(id)
	if i < 0 {
		return false
	}
	if p.apply(s.doc.Elements[i]) {
		s.revision++
	}
	return true
}

// DeleteElement removes the element with the given id. Selection is
// cleared only if that element was selected.
func (s *Store) DeleteElement(id core.ElementID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.IndexOf(id)
	if i < 0 {
		return false
	}
	s.doc.Elements = append(s.doc.Elements[:i], s.doc.Elements[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.revision++
	return true
}

// Select sets the selection. The id is not checked against the document.
func (s *Store) Select(id core.ElementID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != id {
		s.selected = id
		s.revision++
	}
}

func (s *Store) ClearSelection() {
	s.Select("")
}

// Selected returns the selected id, if any.
func (s *Store) Selected() (core.ElementID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// SelectedElement returns a copy of the selected element. It reports false
// when nothing is selected or the selection points at a missing element.
func (s *Store) SelectedElement() (core.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return nil, false
	}
	if i := s.doc.IndexOf(s.selected); i >= 0 {
		return s.doc.Elements[i].Clone(), true
	}
	return nil, false
}

// MoveSelected nudges the selected element by step in direction d.
func (s *Store) MoveSelected(d Direction, step float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return false
	}
	i := s.doc.IndexOf(s.selected)
	if i < 0 {
		return false
	}
	f := s.doc.Elements[i].Bounds()
	switch d {
	case Up:
		f.Y -= step
	case Down:
		f.Y += step
	case Left:
		f.X -= step
	case Right:
		f.X += step
	default:
		return false
	}
	s.revision++
	return true
}

// ResetDocument replaces size and background and drops every element.
func (s *Store) ResetDocument(width, height int, background core.Background) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = core.NewDocument(width, height)
	s.doc.Background = background
	s.selected = ""
	s.revision++
}

// Resize changes the canvas size and keeps the elements.
func (s *Store) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Size = core.CanvasSize{Width: width, Height: height}
	s.revision++
}

func (s *Store) SetBackgroundColor(hex string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Background.Color = hex
	s.revision++
}

// SetBackgroundImage sets (or with "" clears) the background image.
func (s *Store) SetBackgroundImage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Background.ImageURL = url
	s.revision++
}

// Load overwrites the whole document, as when opening a saved design.
func (s *Store) Load(doc *core.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.selected = ""
	s.revision++
}
