package doctree

import (
	"encoding/json"
	"fmt"
)

// Nodes are persisted in the editor's wire shape: elements carry a "type" and
// "children", text runs carry only "text" and an optional "editable".

type textWire struct {
	Text     string `json:"text"`
	Editable *bool  `json:"editable,omitempty"`
}

type elementWire struct {
	Type     Kind    `json:"type"`
	Align    Align   `json:"align,omitempty"`
	ID       string  `json:"id,omitempty"`
	Content  *string `json:"content,omitempty"`
	Order    *int    `json:"order,omitempty"`
	Children []*Node `json:"children"`
}

type nodeWire struct {
	Type     Kind              `json:"type"`
	Align    Align             `json:"align"`
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Order    int               `json:"order"`
	Children []json.RawMessage `json:"children"`
	Text     *string           `json:"text"`
	Editable *bool             `json:"editable"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.IsText() {
		return json.Marshal(textWire{Text: n.Text, Editable: n.Editable})
	}
	w := elementWire{Type: n.Kind, Children: n.Children}
	if w.Children == nil {
		w.Children = []*Node{}
	}
	if n.IsField() {
		content, order := n.Content, n.Order
		w.ID, w.Content, w.Order = n.ID, &content, &order
	} else if n.Kind == KindParagraph {
		w.Align = n.Align
	}
	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Type == "" {
		if w.Text == nil {
			return fmt.Errorf("%w: node has neither type nor text", ErrInvalidTree)
		}
		*n = Node{Kind: KindText, Text: *w.Text, Editable: w.Editable}
		return nil
	}
	switch w.Type {
	case KindParagraph, KindHeading1, KindHeading2, KindField:
	default:
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidTree, w.Type)
	}
	if !w.Align.Valid() {
		return fmt.Errorf("%w: unknown alignment %q", ErrInvalidTree, w.Align)
	}
	if w.Align != AlignNone && w.Type != KindParagraph {
		return fmt.Errorf("%w: %s cannot be aligned", ErrInvalidTree, w.Type)
	}
	*n = Node{Kind: w.Type, Align: w.Align, ID: w.ID, Content: w.Content, Order: w.Order}
	n.Children = make([]*Node, 0, len(w.Children))
	for _, raw := range w.Children {
		child := &Node{}
		if err := json.Unmarshal(raw, child); err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// Marshal encodes t as a JSON array of nodes.
func Marshal(t Tree) ([]byte, error) {
	if t == nil {
		t = Tree{}
	}
	return json.Marshal([]*Node(t))
}

// Unmarshal decodes a JSON array of nodes and validates the result.
func Unmarshal(data []byte) (Tree, error) {
	var nodes []*Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	t := Tree(nodes)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
