// Package importer turns uploaded documents into template trees and reads
// field values from CSV.
package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// ErrNoContent is returned when a document holds no importable text.
var ErrNoContent = errors.New("importer: no content")

// Importer converts raw document bytes into a template tree.
type Importer interface {
	Import(r io.Reader) (doctree.Tree, error)
}

// Options tune the importers that need it.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists the template formats that can be imported.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the importer for a filename.
func ForFile(filename string, opts Options) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".html", ".htm":
		return NewHTMLImporter(), nil
	case ".pdf":
		return &PDFImporter{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// builder collects blocks in document order.
type builder struct {
	tree doctree.Tree
}

// heading adds a heading block. Level 1 maps to heading1, deeper levels to heading2.
func (b *builder) heading(level int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	kind := doctree.KindHeading2
	if level <= 1 {
		kind = doctree.KindHeading1
	}
	b.tree = append(b.tree, doctree.Heading(kind, doctree.Text(text)))
}

func (b *builder) paragraph(text string, align doctree.Align) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	p := doctree.Paragraph(doctree.Text(text))
	if align.Valid() {
		p.Align = align
	}
	b.tree = append(b.tree, p)
}

func (b *builder) finish() (doctree.Tree, error) {
	if len(b.tree) == 0 {
		return nil, ErrNoContent
	}
	if err := b.tree.Validate(); err != nil {
		return nil, err
	}
	return b.tree, nil
}
