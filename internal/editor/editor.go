package editor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dgallion1/docfill/internal/doctree"
)

var (
	// ErrEmptyDocument is returned when an operation would leave the document
	// without top-level blocks. The operation is not applied.
	ErrEmptyDocument = errors.New("editor: document must hold at least one block")
	ErrInvalidPath   = errors.New("editor: invalid path")
	ErrInvalidPoint  = errors.New("editor: invalid point")
)

// OpType names a primitive tree operation.
type OpType string

const (
	OpInsertNode   OpType = "insert_node"
	OpRemoveNode   OpType = "remove_node"
	OpSetNode      OpType = "set_node"
	OpInsertText   OpType = "insert_text"
	OpRemoveText   OpType = "remove_text"
	OpSplitNode    OpType = "split_node"
	OpMergeNode    OpType = "merge_node"
	OpSetSelection OpType = "set_selection"
)

// Op is one applied primitive operation.
type Op struct {
	Type      OpType         `json:"type"`
	Path      doctree.Path   `json:"path,omitempty"`
	Offset    int            `json:"offset,omitempty"`
	Text      string         `json:"text,omitempty"`
	Node      *doctree.Node  `json:"node,omitempty"`
	Selection *doctree.Range `json:"selection,omitempty"`
}

// Change is delivered to listeners after each batch of operations.
type Change struct {
	Children doctree.Tree
	Ops      []Op
}

// SelectionOnly reports whether the batch only moved the selection.
func (c Change) SelectionOnly() bool {
	for _, op := range c.Ops {
		if op.Type != OpSetSelection {
			return false
		}
	}
	return true
}

// Editor is a mutable document tree with a selection. Every mutation is
// recorded as an Op; listeners are notified once per outermost batch.
type Editor struct {
	children  doctree.Tree
	selection *doctree.Range

	policies  dispatch
	ops       []Op
	depth     int
	listeners []func(Change)
}

// New creates an editor holding a copy of initial.
func New(initial doctree.Tree, policies ...Policy) (*Editor, error) {
	if len(initial) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	e := &Editor{children: initial.Clone(), policies: compose(policies)}
	e.normalize()
	e.ops = nil
	return e, nil
}

// Policies returns the names of the configured policies in dispatch order.
func (e *Editor) Policies() []string { return slices.Clone(e.policies.names) }

// OnChange registers fn to receive every change batch.
func (e *Editor) OnChange(fn func(Change)) {
	e.listeners = append(e.listeners, fn)
}

// Children returns a copy of the top-level blocks.
func (e *Editor) Children() doctree.Tree { return e.children.Clone() }

// Len returns the number of top-level blocks.
func (e *Editor) Len() int { return len(e.children) }

// Node returns a copy of the node at p.
func (e *Editor) Node(p doctree.Path) (*doctree.Node, bool) {
	n, ok := e.children.Get(p)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Nodes returns copies of every node matching match.
func (e *Editor) Nodes(match func(*doctree.Node) bool) []doctree.Entry {
	return cloneEntries(e.children.Nodes(match))
}

// NodesInRange returns copies of the matching nodes within r, ancestors included.
func (e *Editor) NodesInRange(r doctree.Range, match func(*doctree.Node) bool) []doctree.Entry {
	return cloneEntries(e.children.NodesInRange(r, match))
}

// String returns the text covered by r.
func (e *Editor) String(r doctree.Range) string { return e.children.String(r) }

func (e *Editor) IsInline(n *doctree.Node) bool { return e.policies.isInline(n) }
func (e *Editor) IsVoid(n *doctree.Node) bool   { return e.policies.isVoid(n) }

// Selection returns the current selection, if any.
func (e *Editor) Selection() (doctree.Range, bool) {
	if e.selection == nil {
		return doctree.Range{}, false
	}
	return copyRange(*e.selection), true
}

// Select sets the selection. Both points must address text runs.
func (e *Editor) Select(r doctree.Range) error {
	if !e.validPoint(r.Anchor) || !e.validPoint(r.Focus) {
		return ErrInvalidPoint
	}
	return e.Batch(func() error {
		r := copyRange(r)
		return e.apply(Op{Type: OpSetSelection, Selection: &r})
	})
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	if e.selection == nil {
		return
	}
	_ = e.Batch(func() error { return e.apply(Op{Type: OpSetSelection}) })
}

// Batch runs fn and delivers a single change notification for every
// operation applied inside it. Batches nest.
func (e *Editor) Batch(fn func() error) error {
	e.depth++
	err := fn()
	e.depth--
	if e.depth == 0 {
		e.flush()
	}
	return err
}

// InsertNode inserts a copy of n at p.
func (e *Editor) InsertNode(p doctree.Path, n *doctree.Node) error {
	return e.Batch(func() error { return e.apply(Op{Type: OpInsertNode, Path: p, Node: n}) })
}

// RemoveNode removes the node at p. Removing the last top-level block fails
// with ErrEmptyDocument.
func (e *Editor) RemoveNode(p doctree.Path) error {
	return e.Batch(func() error { return e.apply(Op{Type: OpRemoveNode, Path: p}) })
}

// SetNodes calls set on a copy of every node matching match and writes the
// copy's properties back. Children and text are never changed. It returns the
// number of nodes updated.
func (e *Editor) SetNodes(match func(*doctree.Node) bool, set func(*doctree.Node)) int {
	entries := e.children.Nodes(match)
	_ = e.Batch(func() error {
		for _, entry := range entries {
			props := entry.Node.Clone()
			set(props)
			if err := e.apply(Op{Type: OpSetNode, Path: entry.Path, Node: props}); err != nil {
				return err
			}
		}
		return nil
	})
	return len(entries)
}

// SplitText splits the text run at pt into two runs with the same properties.
func (e *Editor) SplitText(pt doctree.Point) error {
	return e.Batch(func() error { return e.apply(Op{Type: OpSplitNode, Path: pt.Path, Offset: pt.Offset}) })
}

// MergeNode merges the node at p into its previous sibling.
func (e *Editor) MergeNode(p doctree.Path) error {
	return e.Batch(func() error { return e.apply(Op{Type: OpMergeNode, Path: p}) })
}

func (e *Editor) flush() {
	e.normalize()
	if e.selection != nil && (!e.validPoint(e.selection.Anchor) || !e.validPoint(e.selection.Focus)) {
		_ = e.apply(Op{Type: OpSetSelection})
	}
	if len(e.ops) == 0 {
		return
	}
	change := Change{Children: e.children.Clone(), Ops: e.ops}
	e.ops = nil
	for _, fn := range e.listeners {
		fn(change)
	}
}

// normalize keeps every block non-empty and every inline element between two
// text runs, so the cursor can always be placed around it.
func (e *Editor) normalize() {
	for b := 0; b < len(e.children); b++ {
		block := e.children[b]
		if len(block.Children) == 0 {
			_ = e.apply(Op{Type: OpInsertNode, Path: doctree.Path{b, 0}, Node: doctree.Text("")})
			continue
		}
		for c := 0; c < len(block.Children); c++ {
			if !e.IsInline(block.Children[c]) {
				continue
			}
			if c == 0 || !block.Children[c-1].IsText() {
				_ = e.apply(Op{Type: OpInsertNode, Path: doctree.Path{b, c}, Node: doctree.Text("")})
				c++
			}
			if c == len(block.Children)-1 || !block.Children[c+1].IsText() {
				_ = e.apply(Op{Type: OpInsertNode, Path: doctree.Path{b, c + 1}, Node: doctree.Text("")})
			}
		}
	}
}

func (e *Editor) validPoint(pt doctree.Point) bool {
	n, ok := e.children.Get(pt.Path)
	return ok && n.IsText() && pt.Offset >= 0 && pt.Offset <= doctree.RuneLen(n.Text)
}

// siblings returns the child slice that holds the node at p.
func (e *Editor) siblings(p doctree.Path) (*[]*doctree.Node, error) {
	if len(p) == 0 {
		return nil, ErrInvalidPath
	}
	if len(p) == 1 {
		return (*[]*doctree.Node)(&e.children), nil
	}
	parent, ok := e.children.Get(p.Parent())
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, p)
	}
	return &parent.Children, nil
}

func (e *Editor) textAt(p doctree.Path) (*doctree.Node, error) {
	n, ok := e.children.Get(p)
	if !ok || !n.IsText() {
		return nil, fmt.Errorf("%w: no text run at %v", ErrInvalidPath, p)
	}
	return n, nil
}

// apply performs one primitive operation, records it and keeps the
// selection pointing at the same content.
func (e *Editor) apply(op Op) error {
	op.Path = append(doctree.Path(nil), op.Path...)
	var prevLen int

	switch op.Type {
	case OpInsertNode:
		s, err := e.siblings(op.Path)
		if err != nil {
			return err
		}
		idx := op.Path.Last()
		if idx < 0 || idx > len(*s) {
			return fmt.Errorf("%w: insert at %v", ErrInvalidPath, op.Path)
		}
		op.Node = op.Node.Clone()
		*s = slices.Insert(*s, idx, op.Node.Clone())

	case OpRemoveNode:
		s, err := e.siblings(op.Path)
		if err != nil {
			return err
		}
		idx := op.Path.Last()
		if idx < 0 || idx >= len(*s) {
			return fmt.Errorf("%w: remove at %v", ErrInvalidPath, op.Path)
		}
		if len(op.Path) == 1 && len(*s) == 1 {
			return ErrEmptyDocument
		}
		op.Node = (*s)[idx].Clone()
		*s = slices.Delete(*s, idx, idx+1)

	case OpSetNode:
		n, ok := e.children.Get(op.Path)
		if !ok {
			return fmt.Errorf("%w: set at %v", ErrInvalidPath, op.Path)
		}
		op.Node = op.Node.Clone()
		props := op.Node
		n.Kind, n.Align = props.Kind, props.Align
		n.ID, n.Content, n.Order = props.ID, props.Content, props.Order
		n.Editable = nil
		if props.Editable != nil {
			n.Editable = doctree.Bool(*props.Editable)
		}

	case OpInsertText:
		n, err := e.textAt(op.Path)
		if err != nil {
			return err
		}
		l := doctree.RuneLen(n.Text)
		if op.Offset < 0 || op.Offset > l {
			return ErrInvalidPoint
		}
		n.Text = doctree.RuneSlice(n.Text, 0, op.Offset) + op.Text + doctree.RuneSlice(n.Text, op.Offset, l)

	case OpRemoveText:
		n, err := e.textAt(op.Path)
		if err != nil {
			return err
		}
		l := doctree.RuneLen(n.Text)
		end := op.Offset + doctree.RuneLen(op.Text)
		if op.Offset < 0 || end > l {
			return ErrInvalidPoint
		}
		op.Text = doctree.RuneSlice(n.Text, op.Offset, end)
		n.Text = doctree.RuneSlice(n.Text, 0, op.Offset) + doctree.RuneSlice(n.Text, end, l)

	case OpSplitNode:
		n, err := e.textAt(op.Path)
		if err != nil {
			return err
		}
		l := doctree.RuneLen(n.Text)
		if op.Offset < 0 || op.Offset > l {
			return ErrInvalidPoint
		}
		right := n.Clone()
		right.Text = doctree.RuneSlice(n.Text, op.Offset, l)
		n.Text = doctree.RuneSlice(n.Text, 0, op.Offset)
		s, _ := e.siblings(op.Path)
		*s = slices.Insert(*s, op.Path.Last()+1, right)

	case OpMergeNode:
		s, err := e.siblings(op.Path)
		if err != nil {
			return err
		}
		idx := op.Path.Last()
		if idx <= 0 || idx >= len(*s) {
			return fmt.Errorf("%w: merge at %v", ErrInvalidPath, op.Path)
		}
		prev, n := (*s)[idx-1], (*s)[idx]
		switch {
		case prev.IsText() && n.IsText():
			prevLen = doctree.RuneLen(prev.Text)
			prev.Text += n.Text
		case !prev.IsText() && !n.IsText():
			prevLen = len(prev.Children)
			prev.Children = append(prev.Children, n.Children...)
		default:
			return fmt.Errorf("%w: cannot merge %s into %s", ErrInvalidPath, n.Kind, prev.Kind)
		}
		op.Node = n.Clone()
		*s = slices.Delete(*s, idx, idx+1)

	case OpSetSelection:
		if op.Selection != nil {
			r := copyRange(*op.Selection)
			op.Selection = &r
			e.selection = &r
		} else {
			e.selection = nil
		}

	default:
		return fmt.Errorf("editor: unknown op %q", op.Type)
	}

	if e.selection != nil && op.Type != OpSetSelection {
		e.selection.Anchor = transformPoint(e.selection.Anchor, op, prevLen)
		e.selection.Focus = transformPoint(e.selection.Focus, op, prevLen)
	}
	e.ops = append(e.ops, op)
	return nil
}

// transformPoint moves pt so it keeps addressing the same content after op.
// Points inside a removed node are left dangling; flush drops them.
func transformPoint(pt doctree.Point, op Op, prevLen int) doctree.Point {
	pt = doctree.Point{Path: append(doctree.Path(nil), pt.Path...), Offset: pt.Offset}
	p := op.Path
	d := len(p) - 1

	switch op.Type {
	case OpInsertNode:
		shift(&pt, p, 1)
	case OpRemoveNode:
		if p.Equal(pt.Path) || p.IsAncestorOf(pt.Path) {
			pt.Path = nil
			return pt
		}
		shift(&pt, p.Sibling(1), -1)
	case OpInsertText:
		if pt.Path.Equal(p) && pt.Offset >= op.Offset {
			pt.Offset += doctree.RuneLen(op.Text)
		}
	case OpRemoveText:
		if pt.Path.Equal(p) && pt.Offset > op.Offset {
			pt.Offset -= min(doctree.RuneLen(op.Text), pt.Offset-op.Offset)
		}
	case OpSplitNode:
		if pt.Path.Equal(p) {
			if pt.Offset >= op.Offset {
				pt.Path[d]++
				pt.Offset -= op.Offset
			}
			return pt
		}
		shift(&pt, p.Sibling(1), 1)
	case OpMergeNode:
		switch {
		case pt.Path.Equal(p) && op.Node.IsText():
			pt.Path[d]--
			pt.Offset += prevLen
		case p.IsAncestorOf(pt.Path):
			pt.Path[d]--
			pt.Path[d+1] += prevLen
		default:
			shift(&pt, p.Sibling(1), -1)
		}
	}
	return pt
}

// shift moves pt by delta when it lies at or after from among from's siblings.
func shift(pt *doctree.Point, from doctree.Path, delta int) {
	d := len(from) - 1
	if len(pt.Path) <= d {
		return
	}
	if !pt.Path[:d].Equal(from[:d]) {
		return
	}
	if pt.Path[d] >= from[d] {
		pt.Path[d] += delta
	}
}

func copyRange(r doctree.Range) doctree.Range {
	return doctree.Range{
		Anchor: doctree.Point{Path: append(doctree.Path(nil), r.Anchor.Path...), Offset: r.Anchor.Offset},
		Focus:  doctree.Point{Path: append(doctree.Path(nil), r.Focus.Path...), Offset: r.Focus.Offset},
	}
}

func cloneEntries(in []doctree.Entry) []doctree.Entry {
	out := make([]doctree.Entry, len(in))
	for i, e := range in {
		out[i] = doctree.Entry{Node: e.Node.Clone(), Path: e.Path}
	}
	return out
}
