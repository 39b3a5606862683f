// Package session holds the single live editing session: the acting role,
// the editor with its field and editability policies, the field registry
// and the store the session saves into.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
	"github.com/dgallion1/docfill/internal/fields"
	"github.com/dgallion1/docfill/internal/policy"
	"github.com/dgallion1/docfill/internal/render"
	"github.com/dgallion1/docfill/internal/store"
)

var (
	ErrNotFound     = errors.New("session: not found")
	ErrAdminOnly    = errors.New("session: admin role required")
	ErrEndUserOnly  = errors.New("session: end-user role required")
	ErrNoTemplate   = errors.New("session: no template loaded")
	ErrInvalidInput = errors.New("session: invalid input")
)

// Sample is the document a session starts from when nothing was autosaved.
func Sample() doctree.Tree {
	return doctree.Tree{
		doctree.Paragraph(doctree.Text("Personal Details")),
		doctree.Paragraph(doctree.Text("My first name is Ada")),
		doctree.Paragraph(doctree.Text("My last name is Lovelace")),
		doctree.Paragraph(doctree.Text("I live in London")),
	}
}

// Session serializes every operation behind one mutex; the editor itself is
// single-threaded.
type Session struct {
	mu sync.Mutex

	role         editor.Role
	ed           *editor.Editor
	registry     *fields.Registry
	store        *store.Store
	lastTemplate string
	dirty        bool

	log *slog.Logger
}

// New starts a session from the autosaved content, or from Sample when
// there is none or it cannot be read.
func New(ctx context.Context, st *store.Store, role editor.Role, log *slog.Logger) (*Session, error) {
	initial, ok, err := st.LoadContent(ctx)
	if err != nil {
		log.Warn("ignoring unreadable autosave", "error", err)
		ok = false
	}
	if !ok {
		initial = Sample()
	}

	ed, err := editor.New(initial, fields.Policy{}, policy.Editability{})
	if err != nil {
		return nil, fmt.Errorf("create editor: %w", err)
	}
	s := &Session{
		role:     role,
		ed:       ed,
		registry: fields.NewRegistry(),
		store:    st,
		log:      log,
	}
	s.registry.Recompute(ed.Children())
	ed.OnChange(s.onChange)

	log.Info("session started", "role", role, "restored", ok, "blocks", ed.Len(), "fields", len(s.registry.IDs()))
	return s, nil
}

// onChange runs synchronously after every editor batch, so the registry is
// never stale when an operation returns.
func (s *Session) onChange(c editor.Change) {
	s.registry.Recompute(c.Children)
	if !c.SelectionOnly() {
		s.dirty = true
	}
}

// autosave writes the live tree to the content key when the last operations
// changed more than the selection.
func (s *Session) autosave(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	if err := s.store.SaveContent(ctx, s.ed.Children()); err != nil {
		return fmt.Errorf("autosave: %w", err)
	}
	s.dirty = false
	return nil
}

// State is a read-only view of the session.
type State struct {
	Role       editor.Role          `json:"role"`
	TemplateID string               `json:"templateId,omitempty"`
	Children   doctree.Tree         `json:"children"`
	Selection  *doctree.Range       `json:"selection"`
	Fields     []doctree.FieldValue `json:"fields"`
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		Role:       s.role,
		TemplateID: s.lastTemplate,
		Children:   s.ed.Children(),
	}
	if sel, ok := s.ed.Selection(); ok {
		st.Selection = &sel
	}
	st.Fields = s.registry.Values(st.Children)
	return st
}

func (s *Session) Role() editor.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// SetRole changes the role passed into later operations.
func (s *Session) SetRole(role editor.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != role {
		s.log.Info("role changed", "from", s.role, "to", role)
	}
	s.role = role
}

// Select sets the selection, or clears it when r is nil.
func (s *Session) Select(r *doctree.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		s.ed.Deselect()
		return nil
	}
	if err := s.ed.Select(*r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// TurnSelectionIntoField makes the selected text a new field. A collapsed
// selection or one touching a field is a no-op reported as ok=false.
func (s *Session) TurnSelectionIntoField(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != editor.RoleAdmin {
		return "", false, ErrAdminOnly
	}
	id, ok, err := s.registry.TurnSelectionIntoField(s.ed)
	if err != nil {
		return "", false, err
	}
	if ok {
		s.log.Info("field created", "field_id", id, "order", s.registry.NextOrder()-1)
	}
	return id, ok, s.autosave(ctx)
}

// SetFieldValue sets the content of the field with the given id and returns
// how many fields matched.
func (s *Session) SetFieldValue(ctx context.Context, id, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.setFieldValue(id, value)
	return n, s.autosave(ctx)
}

// SetFieldValues applies every value in order and returns the number of
// fields updated.
func (s *Session) SetFieldValues(ctx context.Context, values []doctree.FieldValue) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, v := range values {
		total += s.setFieldValue(v.FieldID, v.FieldValue)
	}
	return total, s.autosave(ctx)
}

func (s *Session) setFieldValue(id, value string) int {
	n := fields.SetFieldValue(s.ed, id, value)
	if n > 1 {
		s.log.Warn("duplicate field id", "field_id", id, "matches", n)
	}
	return n
}

// MarkSelectionEditable flags the selected runs as editable (or not) for end users.
func (s *Session) MarkSelectionEditable(ctx context.Context, value bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != editor.RoleAdmin {
		return 0, ErrAdminOnly
	}
	n, err := policy.MarkSelectionEditable(s.ed, value)
	if err != nil {
		return 0, err
	}
	return n, s.autosave(ctx)
}

// InsertText types text at the selection under the session role.
func (s *Session) InsertText(ctx context.Context, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.ed.InsertText(s.role, text)
	if err != nil {
		return false, err
	}
	return ok, s.autosave(ctx)
}

// Delete deletes one character backward, or forward when forward is set.
func (s *Session) Delete(ctx context.Context, forward bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ok bool
	var err error
	if forward {
		ok, err = s.ed.DeleteForward(s.role)
	} else {
		ok, err = s.ed.DeleteBackward(s.role)
	}
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.Debug("deletion refused", "role", s.role, "forward", forward)
	}
	return ok, s.autosave(ctx)
}

func (s *Session) ToggleBlock(ctx context.Context, kind doctree.Kind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.ed.ToggleBlock(kind)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return n, s.autosave(ctx)
}

func (s *Session) SetAlignment(ctx context.Context, align doctree.Align) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.ed.SetAlignment(align)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return n, s.autosave(ctx)
}

// HTML renders the live tree with the live field contents.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	children := s.ed.Children()
	return render.Render(children, s.registry.Values(children))
}
