// Package policy decides which text runs a role may change.
package policy

import (
	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
)

// CanEdit reports whether role may change the text of run. Admins may edit
// anything; end users only runs explicitly marked editable.
func CanEdit(role editor.Role, run *doctree.Node) bool {
	if role == editor.RoleAdmin {
		return true
	}
	return run != nil && run.Editable != nil && *run.Editable
}

// Editability vetoes text edits touching runs the role may not edit. The
// check is all-or-nothing: one locked run at the edit edge rejects the edit.
type Editability struct{}

func (Editability) Name() string { return "editability" }

func (Editability) AllowEdit(role editor.Role, edit editor.Edit) bool {
	for _, run := range edit.Runs {
		if !run.IsText() {
			continue
		}
		if !CanEdit(role, run) {
			return false
		}
	}
	return true
}

// MarkSelectionEditable sets the editable flag on every text run fully
// covered by the selection, splitting runs at the selection edges first.
// It returns the number of runs marked; a missing or collapsed selection
// marks nothing.
func MarkSelectionEditable(e *editor.Editor, value bool) (int, error) {
	sel, ok := e.Selection()
	if !ok || sel.IsCollapsed() {
		return 0, nil
	}
	return e.SetTextProps(sel, func(n *doctree.Node) {
		n.Editable = doctree.Bool(value)
	})
}
