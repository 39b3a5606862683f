package editor

import (
	"fmt"

	"github.com/dgallion1/docfill/internal/doctree"
)

// Role is the acting user's role. It is passed explicitly into every
// operation whose outcome depends on it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleEndUser Role = "end-user"
)

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEndUser:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Policy is a named capability plugged into the editor. A policy implements
// one or more of the capability interfaces below.
type Policy interface {
	Name() string
}

// ElementPolicy marks element kinds as inline and/or void.
type ElementPolicy interface {
	Policy
	IsInline(n *doctree.Node) bool
	IsVoid(n *doctree.Node) bool
}

// EditPolicy may veto a text edit for a role.
type EditPolicy interface {
	Policy
	AllowEdit(role Role, edit Edit) bool
}

// EditKind distinguishes text edits presented to edit policies.
type EditKind string

const (
	EditInsertText EditKind = "insert_text"
	EditDelete     EditKind = "delete"
)

// Edit describes a pending text edit. Runs are copies of the text runs at the
// edit edge; for an expanded selection, every run the selection touches.
type Edit struct {
	Kind EditKind
	Runs []*doctree.Node
}

// dispatch is the table built once from the configured policies.
type dispatch struct {
	names  []string
	inline []func(*doctree.Node) bool
	void   []func(*doctree.Node) bool
	edit   []func(Role, Edit) bool
}

func compose(policies []Policy) dispatch {
	var d dispatch
	for _, p := range policies {
		d.names = append(d.names, p.Name())
		if ep, ok := p.(ElementPolicy); ok {
			d.inline = append(d.inline, ep.IsInline)
			d.void = append(d.void, ep.IsVoid)
		}
		if ep, ok := p.(EditPolicy); ok {
			d.edit = append(d.edit, ep.AllowEdit)
		}
	}
	return d
}

func (d dispatch) isInline(n *doctree.Node) bool {
	for _, f := range d.inline {
		if f(n) {
			return true
		}
	}
	return false
}

func (d dispatch) isVoid(n *doctree.Node) bool {
	for _, f := range d.void {
		if f(n) {
			return true
		}
	}
	return false
}

// allowEdit requires every edit policy to agree.
func (d dispatch) allowEdit(role Role, edit Edit) bool {
	for _, f := range d.edit {
		if !f(role, edit) {
			return false
		}
	}
	return true
}
