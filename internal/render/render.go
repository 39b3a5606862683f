// Package render serializes a template tree and field values to static HTML.
package render

import (
	"bytes"

	"github.com/dgallion1/docfill/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FieldStyle is the inline style given to every rendered field.
const FieldStyle = "font-weight:bold;background-color:yellow"

// Render returns the HTML for tree with every field replaced by its value.
// Fields without a value render as an empty span. The output depends only
// on the arguments.
func Render(tree doctree.Tree, values []doctree.FieldValue) string {
	lookup := doctree.Document{DocumentFields: values}.Values()
	var buf bytes.Buffer
	for _, block := range tree {
		if n := renderNode(block, lookup); n != nil {
			// Rendering into a bytes.Buffer cannot fail.
			_ = html.Render(&buf, n)
		}
	}
	return buf.String()
}

func renderNode(n *doctree.Node, values map[string]string) *html.Node {
	switch {
	case n.IsText():
		return &html.Node{Type: html.TextNode, Data: n.Text}
	case n.IsField():
		span := element(atom.Span,
			html.Attribute{Key: "class", Val: "field"},
			html.Attribute{Key: "data-field-id", Val: n.ID},
			html.Attribute{Key: "style", Val: FieldStyle},
		)
		if v, ok := values[n.ID]; ok && v != "" {
			span.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		}
		return span
	}

	var el *html.Node
	switch n.Kind {
	case doctree.KindHeading1:
		el = element(atom.H1)
	case doctree.KindHeading2:
		el = element(atom.H2)
	case doctree.KindParagraph:
		el = element(atom.P)
		if n.Align != "" {
			el.Attr = append(el.Attr, html.Attribute{Key: "style", Val: "text-align:" + string(n.Align)})
		}
	default:
		return nil
	}
	for _, c := range n.Children {
		if child := renderNode(c, values); child != nil {
			el.AppendChild(child)
		}
	}
	return el
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
