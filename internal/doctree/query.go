package doctree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTree is returned by Validate for structurally broken trees.
var ErrInvalidTree = errors.New("invalid document tree")

// Entry pairs a node with its location.
type Entry struct {
	Node *Node
	Path Path
}

// Get resolves p against t.
func (t Tree) Get(p Path) (*Node, bool) {
	if len(p) == 0 {
		return nil, false
	}
	children := []*Node(t)
	var n *Node
	for _, idx := range p {
		if idx < 0 || idx >= len(children) {
			return nil, false
		}
		n = children[idx]
		children = n.Children
	}
	return n, true
}

// Walk visits every node depth-first in pre-order. Returning false from fn
// skips the node's children.
func (t Tree) Walk(fn func(n *Node, p Path) bool) {
	var walk func(nodes []*Node, parent Path)
	walk = func(nodes []*Node, parent Path) {
		for i, n := range nodes {
			p := parent.Child(i)
			if fn(n, p) {
				walk(n.Children, p)
			}
		}
	}
	walk(t, nil)
}

// Nodes returns every node in t matching match, in document order.
func (t Tree) Nodes(match func(*Node) bool) []Entry {
	var out []Entry
	t.Walk(func(n *Node, p Path) bool {
		if match(n) {
			out = append(out, Entry{Node: n, Path: p})
		}
		return true
	})
	return out
}

// NodesInRange returns the matching nodes that lie in r, including the
// ancestors of both edges.
func (t Tree) NodesInRange(r Range, match func(*Node) bool) []Entry {
	var out []Entry
	t.Walk(func(n *Node, p Path) bool {
		if !r.Includes(p) {
			return false
		}
		if match(n) {
			out = append(out, Entry{Node: n, Path: p})
		}
		return true
	})
	return out
}

// Fields returns all field nodes at any depth.
func (t Tree) Fields() []Entry {
	return t.Nodes((*Node).IsField)
}

// String returns the text covered by r. Field internals contribute nothing.
func (t Tree) String(r Range) string {
	start, end := r.Edges()
	var sb strings.Builder
	t.Walk(func(n *Node, p Path) bool {
		if n.IsField() || !r.Includes(p) {
			return false
		}
		if !n.IsText() {
			return true
		}
		from, to := 0, RuneLen(n.Text)
		if p.Equal(start.Path) {
			from = start.Offset
		}
		if p.Equal(end.Path) {
			to = end.Offset
		}
		sb.WriteString(RuneSlice(n.Text, from, to))
		return false
	})
	return sb.String()
}

// Validate checks the structural rules of a tree: a non-empty sequence of
// blocks holding text runs and fields, each field holding exactly one empty
// run, field ids unique, and alignment set on paragraphs only.
func (t Tree) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no blocks", ErrInvalidTree)
	}
	seen := make(map[string]bool)
	for i, block := range t {
		if !block.IsBlock() {
			return fmt.Errorf("%w: top-level node %d is %q", ErrInvalidTree, i, block.kind())
		}
		if block.Align != AlignNone && block.Kind != KindParagraph {
			return fmt.Errorf("%w: %s block %d cannot be aligned", ErrInvalidTree, block.Kind, i)
		}
		if len(block.Children) == 0 {
			return fmt.Errorf("%w: block %d has no children", ErrInvalidTree, i)
		}
		for j, child := range block.Children {
			switch {
			case child.IsText():
			case child.IsField():
				if child.ID == "" {
					return fmt.Errorf("%w: field at [%d %d] has no id", ErrInvalidTree, i, j)
				}
				if seen[child.ID] {
					return fmt.Errorf("%w: duplicate field id %q", ErrInvalidTree, child.ID)
				}
				seen[child.ID] = true
				if len(child.Children) != 1 || !child.Children[0].IsText() || child.Children[0].Text != "" {
					return fmt.Errorf("%w: field %q must hold one empty text run", ErrInvalidTree, child.ID)
				}
			default:
				return fmt.Errorf("%w: node at [%d %d] is %q", ErrInvalidTree, i, j, child.kind())
			}
		}
	}
	return nil
}

func (n *Node) kind() Kind {
	if n == nil {
		return ""
	}
	return n.Kind
}
