// Package rebuild swaps the editor's whole content for a stored template.
package rebuild

import (
	"fmt"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
)

// LoadTemplate replaces every top-level block of e with the blocks of tmpl.
// An empty template leaves e untouched and returns false.
//
// The editor must never hold zero blocks, so the old blocks are removed from
// the tail down to index 1, the template is appended after the remaining
// placeholder, and only then the placeholder at index 0 is removed. All of it
// happens in one batch.
func LoadTemplate(e *editor.Editor, tmpl doctree.Tree) (bool, error) {
	if len(tmpl) == 0 {
		return false, nil
	}
	if err := tmpl.Validate(); err != nil {
		return false, err
	}

	err := e.Batch(func() error {
		n := e.Len()
		for i := n - 1; i >= 1; i-- {
			if err := e.RemoveNode(doctree.Path{i}); err != nil {
				return fmt.Errorf("remove block %d: %w", i, err)
			}
		}
		for i, block := range tmpl {
			if err := e.InsertNode(doctree.Path{i + 1}, block); err != nil {
				return fmt.Errorf("append block %d: %w", i, err)
			}
		}
		if err := e.RemoveNode(doctree.Path{0}); err != nil {
			return fmt.Errorf("remove placeholder: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
