package editor

import (
	"errors"

	"github.com/dgallion1/docfill/internal/doctree"
)

// ErrNoSelection is returned by selection-based operations when nothing is selected.
var ErrNoSelection = errors.New("editor: no selection")

// DeleteRange removes the content covered by r, merging the edge blocks when
// r spans several, and collapses the selection at r's start.
func (e *Editor) DeleteRange(r doctree.Range) error {
	if r.IsCollapsed() {
		return nil
	}
	start, end := r.Edges()
	start, end = e.hoist(start, true), e.hoist(end, false)
	if len(start.Path) != 2 || len(end.Path) != 2 {
		return ErrInvalidPoint
	}
	if _, err := e.textAt(start.Path); err != nil {
		return err
	}
	if _, err := e.textAt(end.Path); err != nil {
		return err
	}

	return e.Batch(func() error {
		sb, sc := start.Path[0], start.Path[1]
		eb, ec := end.Path[0], end.Path[1]

		if sb == eb && sc == ec {
			if err := e.removeText(start.Path, start.Offset, end.Offset); err != nil {
				return err
			}
			return e.apply(Op{Type: OpSetSelection, Selection: ptr(doctree.Collapsed(start))})
		}

		if err := e.removeText(end.Path, 0, end.Offset); err != nil {
			return err
		}
		if sb == eb {
			for c := ec - 1; c > sc; c-- {
				if err := e.apply(Op{Type: OpRemoveNode, Path: doctree.Path{sb, c}}); err != nil {
					return err
				}
			}
		} else {
			for c := ec - 1; c >= 0; c-- {
				if err := e.apply(Op{Type: OpRemoveNode, Path: doctree.Path{eb, c}}); err != nil {
					return err
				}
			}
			for b := eb - 1; b > sb; b-- {
				if err := e.apply(Op{Type: OpRemoveNode, Path: doctree.Path{b}}); err != nil {
					return err
				}
			}
			for c := len(e.children[sb].Children) - 1; c > sc; c-- {
				if err := e.apply(Op{Type: OpRemoveNode, Path: doctree.Path{sb, c}}); err != nil {
					return err
				}
			}
		}
		startText, _ := e.textAt(start.Path)
		if err := e.removeText(start.Path, start.Offset, doctree.RuneLen(startText.Text)); err != nil {
			return err
		}
		if sb != eb {
			if err := e.apply(Op{Type: OpMergeNode, Path: doctree.Path{sb + 1}}); err != nil {
				return err
			}
		}
		next := doctree.Path{sb, sc + 1}
		if n, ok := e.children.Get(next); ok && doctree.SameMarks(startText, n) {
			if err := e.apply(Op{Type: OpMergeNode, Path: next}); err != nil {
				return err
			}
		}
		return e.apply(Op{Type: OpSetSelection, Selection: ptr(doctree.Collapsed(start))})
	})
}

// InsertInline replaces the selection with a copy of n, splitting the text
// run at the cursor. It returns the path of the inserted node.
func (e *Editor) InsertInline(n *doctree.Node) (doctree.Path, error) {
	if e.selection == nil {
		return nil, ErrNoSelection
	}
	var at doctree.Path
	err := e.Batch(func() error {
		if !e.selection.IsCollapsed() {
			if err := e.DeleteRange(*e.selection); err != nil {
				return err
			}
		}
		pt := e.hoist(e.selection.Anchor, false)
		if len(pt.Path) != 2 {
			return ErrInvalidPoint
		}
		if err := e.apply(Op{Type: OpSplitNode, Path: pt.Path, Offset: pt.Offset}); err != nil {
			return err
		}
		at = pt.Path.Sibling(1)
		if err := e.apply(Op{Type: OpInsertNode, Path: at, Node: n}); err != nil {
			return err
		}
		return e.apply(Op{Type: OpSetSelection, Selection: ptr(doctree.Collapsed(doctree.Point{Path: at.Sibling(1)}))})
	})
	return at, err
}

// SetTextProps splits the runs at r's edges and calls set on every text run
// fully covered by r. Runs inside void elements are left alone. It returns
// the number of runs updated.
func (e *Editor) SetTextProps(r doctree.Range, set func(*doctree.Node)) (int, error) {
	if r.IsCollapsed() {
		return 0, nil
	}
	start, end := r.Edges()
	start, end = e.hoist(start, true), e.hoist(end, false)

	count := 0
	err := e.Batch(func() error {
		endText, err := e.textAt(end.Path)
		if err != nil {
			return err
		}
		if end.Offset > 0 && end.Offset < doctree.RuneLen(endText.Text) {
			if err := e.apply(Op{Type: OpSplitNode, Path: end.Path, Offset: end.Offset}); err != nil {
				return err
			}
		}
		startText, err := e.textAt(start.Path)
		if err != nil {
			return err
		}
		if start.Offset > 0 && start.Offset < doctree.RuneLen(startText.Text) {
			split := Op{Type: OpSplitNode, Path: start.Path, Offset: start.Offset}
			if err := e.apply(split); err != nil {
				return err
			}
			end = transformPoint(end, split, 0)
			start = doctree.Point{Path: start.Path.Sibling(1)}
		}
		for _, run := range e.coveredRuns(start, end, false) {
			props := run.Node.Clone()
			set(props)
			if err := e.apply(Op{Type: OpSetNode, Path: run.Path, Node: props}); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// InsertText inserts text at the selection, replacing it when expanded. Edit
// policies may refuse, in which case nothing changes and false is returned.
func (e *Editor) InsertText(role Role, text string) (bool, error) {
	if e.selection == nil {
		return false, ErrNoSelection
	}
	if text == "" {
		return false, nil
	}
	sel := copyRange(*e.selection)
	if _, inVoid := e.voidAncestor(sel.Anchor.Path); inVoid && sel.IsCollapsed() {
		return false, nil
	}
	start, end := sel.Edges()
	runs := nodesOf(e.coveredRuns(start, end, true))
	if sel.IsCollapsed() {
		runs = e.runsAt(start.Path)
	}
	if !e.policies.allowEdit(role, Edit{Kind: EditInsertText, Runs: runs}) {
		return false, nil
	}
	err := e.Batch(func() error {
		if err := e.DeleteRange(sel); err != nil {
			return err
		}
		pt := e.selection.Anchor
		return e.apply(Op{Type: OpInsertText, Path: pt.Path, Offset: pt.Offset, Text: text})
	})
	return err == nil, err
}

// DeleteBackward deletes one character (or inline void, or block boundary)
// before the cursor, or the selected content. The deletion is all-or-nothing:
// when an edit policy refuses any run at the deletion edge nothing changes.
func (e *Editor) DeleteBackward(role Role) (bool, error) {
	return e.deleteChar(role, false)
}

// DeleteForward is DeleteBackward towards the end of the document.
func (e *Editor) DeleteForward(role Role) (bool, error) {
	return e.deleteChar(role, true)
}

func (e *Editor) deleteChar(role Role, forward bool) (bool, error) {
	if e.selection == nil {
		return false, ErrNoSelection
	}
	sel := copyRange(*e.selection)
	if !sel.IsCollapsed() {
		start, end := sel.Edges()
		if !e.policies.allowEdit(role, Edit{Kind: EditDelete, Runs: nodesOf(e.coveredRuns(start, end, true))}) {
			return false, nil
		}
		return true, e.DeleteRange(sel)
	}

	pt := sel.Anchor
	if v, ok := e.voidAncestor(pt.Path); ok {
		return e.guarded(role, e.runsAt(v), Op{Type: OpRemoveNode, Path: v})
	}
	n, err := e.textAt(pt.Path)
	if err != nil {
		return false, err
	}
	b, c := pt.Path[0], pt.Path[1]
	block := e.children[b]
	l := doctree.RuneLen(n.Text)

	if !forward && pt.Offset > 0 {
		return e.guarded(role, e.runsAt(pt.Path), removeRune(pt.Path, n.Text, pt.Offset-1))
	}
	if forward && pt.Offset < l {
		return e.guarded(role, e.runsAt(pt.Path), removeRune(pt.Path, n.Text, pt.Offset))
	}

	step := -1
	if forward {
		step = 1
	}
	for k := c + step; k >= 0 && k < len(block.Children); k += step {
		sib := block.Children[k]
		p := doctree.Path{b, k}
		switch {
		case e.IsVoid(sib):
			return e.guarded(role, e.runsAt(p), Op{Type: OpRemoveNode, Path: p})
		case sib.IsText() && sib.Text != "":
			at := doctree.RuneLen(sib.Text) - 1
			if forward {
				at = 0
			}
			return e.guarded(role, e.runsAt(p), removeRune(p, sib.Text, at))
		}
	}

	// At a block boundary: join the neighbouring block.
	if !forward && b > 0 {
		prev := e.children[b-1]
		runs := append(e.runsAt(pt.Path), e.runsAt(doctree.Path{b - 1, len(prev.Children) - 1})...)
		return e.guarded(role, runs, Op{Type: OpMergeNode, Path: doctree.Path{b}})
	}
	if forward && b < len(e.children)-1 {
		runs := append(e.runsAt(pt.Path), e.runsAt(doctree.Path{b + 1, 0})...)
		return e.guarded(role, runs, Op{Type: OpMergeNode, Path: doctree.Path{b + 1}})
	}
	return false, nil
}

func (e *Editor) guarded(role Role, runs []*doctree.Node, op Op) (bool, error) {
	if !e.policies.allowEdit(role, Edit{Kind: EditDelete, Runs: runs}) {
		return false, nil
	}
	return true, e.Batch(func() error { return e.apply(op) })
}

func removeRune(p doctree.Path, text string, at int) Op {
	return Op{Type: OpRemoveText, Path: p, Offset: at, Text: doctree.RuneSlice(text, at, at+1)}
}

func (e *Editor) removeText(p doctree.Path, from, to int) error {
	if to <= from {
		return nil
	}
	n, err := e.textAt(p)
	if err != nil {
		return err
	}
	return e.apply(Op{Type: OpRemoveText, Path: p, Offset: from, Text: doctree.RuneSlice(n.Text, from, to)})
}

// runsAt returns copies of the text runs at or inside the node at p.
func (e *Editor) runsAt(p doctree.Path) []*doctree.Node {
	n, ok := e.children.Get(p)
	if !ok {
		return nil
	}
	if n.IsText() {
		return []*doctree.Node{n.Clone()}
	}
	sub := doctree.Tree{n}
	var out []*doctree.Node
	for _, entry := range sub.Nodes((*doctree.Node).IsText) {
		out = append(out, entry.Node.Clone())
	}
	return out
}

// coveredRuns returns the text runs with a non-empty share of [start, end].
// Runs strictly between the edges count even when empty.
func (e *Editor) coveredRuns(start, end doctree.Point, includeVoid bool) []doctree.Entry {
	var out []doctree.Entry
	e.children.Walk(func(n *doctree.Node, p doctree.Path) bool {
		if p.Compare(start.Path) < 0 || p.Compare(end.Path) > 0 {
			return false
		}
		if e.IsVoid(n) && !includeVoid {
			return false
		}
		if !n.IsText() {
			return true
		}
		atStart, atEnd := p.Equal(start.Path), p.Equal(end.Path)
		switch {
		case atStart && atEnd:
			if start.Offset >= end.Offset {
				return false
			}
		case atStart:
			if start.Offset >= doctree.RuneLen(n.Text) && n.Text != "" {
				return false
			}
		case atEnd:
			if end.Offset == 0 && n.Text != "" {
				return false
			}
		}
		out = append(out, doctree.Entry{Node: n, Path: p})
		return false
	})
	return out
}

func nodesOf(entries []doctree.Entry) []*doctree.Node {
	out := make([]*doctree.Node, len(entries))
	for i, entry := range entries {
		out[i] = entry.Node.Clone()
	}
	return out
}

// voidAncestor returns the path of the void element containing p, if any.
func (e *Editor) voidAncestor(p doctree.Path) (doctree.Path, bool) {
	for i := 1; i < len(p); i++ {
		anc := p[:i]
		if n, ok := e.children.Get(anc); ok && e.IsVoid(n) {
			return append(doctree.Path(nil), anc...), true
		}
	}
	return nil, false
}

// hoist moves a point inside a void element to the end of the run before it
// (before=true) or the start of the run after it.
func (e *Editor) hoist(pt doctree.Point, before bool) doctree.Point {
	v, ok := e.voidAncestor(pt.Path)
	if !ok {
		return pt
	}
	if before {
		p := v.Sibling(-1)
		if n, ok := e.children.Get(p); ok && n.IsText() {
			return doctree.Point{Path: p, Offset: doctree.RuneLen(n.Text)}
		}
		return pt
	}
	p := v.Sibling(1)
	if n, ok := e.children.Get(p); ok && n.IsText() {
		return doctree.Point{Path: p}
	}
	return pt
}

func ptr[T any](v T) *T { return &v }
