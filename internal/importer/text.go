package importer

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// TextImporter makes one paragraph per blank-line separated block.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader) (doctree.Tree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b builder
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			b.paragraph(current.String(), doctree.AlignNone)
			current.Reset()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	b.paragraph(current.String(), doctree.AlignNone)

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.finish()
}
