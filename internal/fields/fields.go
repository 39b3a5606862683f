// Package fields turns selected text into fill-in fields and keeps the
// ordered list of field ids in sync with the document.
package fields

import (
	"slices"
	"sort"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
	"github.com/google/uuid"
)

// Policy makes fields inline void elements in the editor.
type Policy struct{}

func (Policy) Name() string { return "fields" }
func (Policy) IsInline(n *doctree.Node) bool { return doctree.IsInline(n) }
func (Policy) IsVoid(n *doctree.Node) bool { return doctree.IsVoid(n) }

// Registry holds the field ids of the live document in display order and
// the counter used to order new fields.
type Registry struct {
	ids       []string
	nextOrder int
	newID     func() string
}

// NewRegistry returns an empty registry that generates UUID field ids.
func NewRegistry() *Registry {
	return &Registry{newID: uuid.NewString}
}

// IDs returns the field ids in display order.
func (r *Registry) IDs() []string { return slices.Clone(r.ids) }

// NextOrder returns the order the next new field will get.
func (r *Registry) NextOrder() int { return r.nextOrder }

// TurnSelectionIntoField replaces the editor's selection with a new field
// whose content is a snapshot of the selected text. It does nothing (and
// returns false) when the selection is missing or collapsed, or when it
// touches an existing field.
func (r *Registry) TurnSelectionIntoField(e *editor.Editor) (string, bool, error) {
	sel, ok := e.Selection()
	if !ok || sel.IsCollapsed() {
		return "", false, nil
	}
	if len(e.NodesInRange(sel, (*doctree.Node).IsField)) > 0 {
		return "", false, nil
	}

	id := r.newID()
	order := r.nextOrder
	field := doctree.Field(id, e.String(sel), order)
	if _, err := e.InsertInline(field); err != nil {
		return "", false, err
	}
	// A Recompute hooked to the editor may already have moved the counter.
	r.nextOrder = max(r.nextOrder, order+1)
	if !slices.Contains(r.ids, id) {
		r.ids = append(r.ids, id)
	}
	return id, true, nil
}

// Recompute refreshes the id list from a tree snapshot. It is meant to run
// on every editor change notification. The order counter never moves
// backwards and always stays above every order present in the tree.
func (r *Registry) Recompute(tree doctree.Tree) []string {
	entries := tree.Fields()
	r.ids = orderedIDs(entries)
	for _, e := range entries {
		if e.Node.Order >= r.nextOrder {
			r.nextOrder = e.Node.Order + 1
		}
	}
	return r.IDs()
}

// RecomputeOrder returns the ids of every field in tree, at any depth,
// sorted by ascending order.
func RecomputeOrder(tree doctree.Tree) []string {
	return orderedIDs(tree.Fields())
}

func orderedIDs(entries []doctree.Entry) []string {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Node.Order < entries[j].Node.Order
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Node.ID
	}
	return ids
}

// SetFieldValue sets the content of every field with the given id and
// returns how many matched. Zero matches is not an error.
func SetFieldValue(e *editor.Editor, id, value string) int {
	return e.SetNodes(
		func(n *doctree.Node) bool { return n.IsField() && n.ID == id },
		func(n *doctree.Node) { n.Content = value },
	)
}

// Values returns the live field contents in registry order.
func (r *Registry) Values(tree doctree.Tree) []doctree.FieldValue {
	content := make(map[string]string)
	for _, e := range tree.Fields() {
		if _, ok := content[e.Node.ID]; !ok {
			content[e.Node.ID] = e.Node.Content
		}
	}
	out := make([]doctree.FieldValue, 0, len(r.ids))
	for _, id := range r.ids {
		if v, ok := content[id]; ok {
			out = append(out, doctree.FieldValue{FieldID: id, FieldValue: v})
		}
	}
	return out
}
