package doctree

import "strings"

// Kind identifies the variant of a Node.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading1  Kind = "heading1"
	KindHeading2  Kind = "heading2"
	KindField     Kind = "field"
	KindText      Kind = "text"
)

// Align is the optional alignment of a paragraph.
type Align string

const (
	AlignNone    Align = ""
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Valid reports whether a is one of the known alignments (or unset).
func (a Align) Valid() bool {
	switch a {
	case AlignNone, AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// Node is one node of a template tree. Which fields are meaningful depends on Kind:
// blocks use Children (and Align for paragraphs), fields use ID, Content, Order and
// hold a single empty text child, text runs use Text and Editable.
type Node struct {
	Kind     Kind
	Align    Align
	Children []*Node

	ID      string
	Content string
	Order   int

	Text     string
	Editable *bool
}

// Tree is the ordered top-level block sequence of a document.
type Tree []*Node

// Paragraph builds a paragraph block.
func Paragraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

// Heading builds a heading block of the given kind.
func Heading(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// Text builds a text run with the editable flag unset.
func Text(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

// EditableText builds a text run with an explicit editable flag.
func EditableText(s string, editable bool) *Node {
	return &Node{Kind: KindText, Text: s, Editable: Bool(editable)}
}

// Field builds a field with its structural empty text child.
func Field(id, content string, order int) *Node {
	return &Node{
		Kind:     KindField,
		ID:       id,
		Content:  content,
		Order:    order,
		Children: []*Node{Text("")},
	}
}

// Bool returns a pointer to b, for Node.Editable.
func Bool(b bool) *bool { return &b }

func (n *Node) IsText() bool  { return n != nil && n.Kind == KindText }
func (n *Node) IsField() bool { return n != nil && n.Kind == KindField }

// IsBlock reports whether n is a top-level block variant.
func (n *Node) IsBlock() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindParagraph, KindHeading1, KindHeading2:
		return true
	}
	return false
}

// IsVoid reports whether the editor must treat n as an atomic unit whose text
// cannot be entered. Only fields are void.
func IsVoid(n *Node) bool { return n.IsField() }

// IsInline reports whether n may sit directly among text runs inside a block.
// Only fields are inline.
func IsInline(n *Node) bool { return n.IsField() }

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Editable != nil {
		c.Editable = Bool(*n.Editable)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = n.Clone()
	}
	return out
}

// PlainText returns the concatenated text of n's runs. Field internals contribute nothing.
func (n *Node) PlainText() string {
	if n.IsText() {
		return n.Text
	}
	if n.IsField() {
		return ""
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.PlainText())
	}
	return sb.String()
}

// SameMarks reports whether two text runs carry identical properties and can be merged.
func SameMarks(a, b *Node) bool {
	if !a.IsText() || !b.IsText() {
		return false
	}
	switch {
	case a.Editable == nil && b.Editable == nil:
		return true
	case a.Editable == nil || b.Editable == nil:
		return false
	}
	return *a.Editable == *b.Editable
}
