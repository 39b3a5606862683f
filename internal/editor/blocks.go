package editor

import (
	"fmt"

	"github.com/dgallion1/docfill/internal/doctree"
)

// selectedBlocks returns the indexes of the top-level blocks the selection touches.
func (e *Editor) selectedBlocks() []int {
	if e.selection == nil {
		return nil
	}
	start, end := e.selection.Edges()
	var out []int
	for b := start.Path[0]; b <= end.Path[0] && b < len(e.children); b++ {
		out = append(out, b)
	}
	return out
}

// IsActiveBlock reports whether any selected block has the given kind.
func (e *Editor) IsActiveBlock(kind doctree.Kind) bool {
	for _, b := range e.selectedBlocks() {
		if e.children[b].Kind == kind {
			return true
		}
	}
	return false
}

// ToggleBlock turns the selected blocks into kind, or back into paragraphs
// when any of them already is kind. It returns the number of blocks changed.
// Headings carry no alignment, so it is cleared on the way in.
func (e *Editor) ToggleBlock(kind doctree.Kind) (int, error) {
	switch kind {
	case doctree.KindParagraph, doctree.KindHeading1, doctree.KindHeading2:
	default:
		return 0, fmt.Errorf("editor: %q is not a block kind", kind)
	}
	target := kind
	if e.IsActiveBlock(kind) {
		target = doctree.KindParagraph
	}
	blocks := e.selectedBlocks()
	err := e.Batch(func() error {
		for _, b := range blocks {
			props := e.children[b].Clone()
			props.Kind = target
			if target != doctree.KindParagraph {
				props.Align = doctree.AlignNone
			}
			if err := e.apply(Op{Type: OpSetNode, Path: doctree.Path{b}, Node: props}); err != nil {
				return err
			}
		}
		return nil
	})
	return len(blocks), err
}

// SetAlignment aligns the selected paragraphs. Headings are left alone.
func (e *Editor) SetAlignment(align doctree.Align) (int, error) {
	if !align.Valid() {
		return 0, fmt.Errorf("editor: unknown alignment %q", align)
	}
	count := 0
	err := e.Batch(func() error {
		for _, b := range e.selectedBlocks() {
			if e.children[b].Kind != doctree.KindParagraph {
				continue
			}
			props := e.children[b].Clone()
			props.Align = align
			if err := e.apply(Op{Type: OpSetNode, Path: doctree.Path{b}, Node: props}); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}
