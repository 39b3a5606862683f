package session

import (
	"context"
	"fmt"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/editor"
	"github.com/dgallion1/docfill/internal/rebuild"
	"github.com/dgallion1/docfill/internal/render"
	"github.com/dgallion1/docfill/internal/store"
)

// SaveTemplate stores the live tree as a new template.
func (s *Session) SaveTemplate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != editor.RoleAdmin {
		return "", ErrAdminOnly
	}
	key, err := s.store.SaveTemplate(ctx, s.ed.Children())
	if err != nil {
		return "", err
	}
	s.log.Info("template saved", "key", key)
	return key, nil
}

func (s *Session) ListTemplates(ctx context.Context) ([]string, error) {
	return s.store.ListKeys(ctx, store.NamespaceTemplate)
}

// Template returns a stored template, or ErrNotFound.
func (s *Session) Template(ctx context.Context, key string) (doctree.Tree, error) {
	tree, ok, err := s.store.GetTemplate(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: template %s", ErrNotFound, key)
	}
	return tree, nil
}

// LoadTemplate replaces the live tree with the template at key. Documents
// saved afterwards reference this template.
func (s *Session) LoadTemplate(ctx context.Context, key string) (bool, error) {
	tree, err := s.Template(ctx, key)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := rebuild.LoadTemplate(s.ed, tree)
	if err != nil {
		return false, fmt.Errorf("load template %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	s.lastTemplate = key
	s.log.Info("template loaded", "key", key, "blocks", len(tree), "fields", len(s.registry.IDs()))
	return true, s.autosave(ctx)
}

// SaveDocument stores the live field contents, in registry order, against
// the most recently loaded template.
func (s *Session) SaveDocument(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != editor.RoleEndUser {
		return "", ErrEndUserOnly
	}
	if s.lastTemplate == "" {
		return "", ErrNoTemplate
	}
	doc := doctree.Document{
		TemplateID:     s.lastTemplate,
		DocumentFields: s.registry.Values(s.ed.Children()),
	}
	key, err := s.store.SaveDocument(ctx, doc)
	if err != nil {
		return "", err
	}
	s.log.Info("document saved", "key", key, "template", doc.TemplateID, "fields", len(doc.DocumentFields))
	return key, nil
}

func (s *Session) ListDocuments(ctx context.Context) ([]string, error) {
	return s.store.ListKeys(ctx, store.NamespaceDocument)
}

// Document returns a stored document record, or ErrNotFound.
func (s *Session) Document(ctx context.Context, key string) (doctree.Document, error) {
	doc, ok, err := s.store.GetDocument(ctx, key)
	if err != nil {
		return doc, err
	}
	if !ok {
		return doc, fmt.Errorf("%w: document %s", ErrNotFound, key)
	}
	return doc, nil
}

// RenderDocument renders a stored document with its template.
func (s *Session) RenderDocument(ctx context.Context, key string) (string, error) {
	doc, err := s.Document(ctx, key)
	if err != nil {
		return "", err
	}
	tree, err := s.Template(ctx, doc.TemplateID)
	if err != nil {
		return "", err
	}
	return render.Render(tree, doc.DocumentFields), nil
}
