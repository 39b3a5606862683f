package importer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var alignPattern = regexp.MustCompile(`(?i)^\s*(left|center|right|justify)\s*$`)

// HTMLImporter sanitizes the upload, then maps h1-h6 to headings and p, li,
// td and blockquote to paragraphs. Paragraph alignment set through the align
// attribute or a text-align style is kept.
type HTMLImporter struct {
	policy *bluemonday.Policy
}

func NewHTMLImporter() *HTMLImporter {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("align").Matching(alignPattern).OnElements("p", "div")
	p.AllowStyles("text-align").MatchingEnum("left", "center", "right", "justify").OnElements("p", "div")
	return &HTMLImporter{policy: p}
}

func (p *HTMLImporter) Import(r io.Reader) (doctree.Tree, error) {
	clean := p.policy.SanitizeReader(r)
	doc, err := html.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var b builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				b.heading(level, textContent(n))
				return
			}
			switch n.DataAtom {
			case atom.Nav, atom.Footer, atom.Header:
				return
			case atom.P, atom.Li, atom.Td, atom.Blockquote:
				b.paragraph(textContent(n), alignOf(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.finish()
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func alignOf(n *html.Node) doctree.Align {
	for _, a := range n.Attr {
		switch a.Key {
		case "align":
			return parseAlign(a.Val)
		case "style":
			for _, decl := range strings.Split(a.Val, ";") {
				prop, val, ok := strings.Cut(decl, ":")
				if ok && strings.EqualFold(strings.TrimSpace(prop), "text-align") {
					return parseAlign(val)
				}
			}
		}
	}
	return doctree.AlignNone
}

func parseAlign(s string) doctree.Align {
	a := doctree.Align(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return doctree.AlignNone
	}
	return a
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
