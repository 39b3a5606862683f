// Package store persists templates, filled documents and the autosaved live
// tree on top of a plain key-value backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/google/uuid"
)

// Namespaces prefix generated keys.
const (
	NamespaceTemplate = "template"
	NamespaceDocument = "document"
)

// ContentKey holds the autosaved live tree. It is overwritten on every save.
const ContentKey = "content"

// ErrInvalidKey is returned for keys that could not have been generated here.
var ErrInvalidKey = errors.New("store: invalid key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store is the typed view over a KV backend.
type Store struct {
	kv    KV
	newID func() string
}

func New(kv KV) *Store {
	return &Store{kv: kv, newID: newID}
}

// newID returns a time-ordered random id, so keys sort roughly by creation.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Save stores value under a fresh key in namespace and returns the key.
func (s *Store) Save(ctx context.Context, namespace, value string) (string, error) {
	if !keyPattern.MatchString(namespace) {
		return "", fmt.Errorf("%w: namespace %q", ErrInvalidKey, namespace)
	}
	key := namespace + "-" + s.newID()
	if err := s.kv.Put(ctx, key, value); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return key, nil
}

// Get returns the value stored at key. A missing key is ok=false.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if !keyPattern.MatchString(key) {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return s.kv.Get(ctx, key)
}

// ListKeys returns the keys saved in namespace, in no particular order.
func (s *Store) ListKeys(ctx context.Context, namespace string) ([]string, error) {
	keys, err := s.kv.Keys(ctx, namespace+"-")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", namespace, err)
	}
	return keys, nil
}

// InNamespace reports whether key was generated for namespace.
func InNamespace(key, namespace string) bool {
	return strings.HasPrefix(key, namespace+"-")
}

// SaveTemplate stores tree as a new template.
func (s *Store) SaveTemplate(ctx context.Context, tree doctree.Tree) (string, error) {
	data, err := doctree.Marshal(tree)
	if err != nil {
		return "", err
	}
	return s.Save(ctx, NamespaceTemplate, string(data))
}

// GetTemplate loads the template at key.
func (s *Store) GetTemplate(ctx context.Context, key string) (doctree.Tree, bool, error) {
	if !InNamespace(key, NamespaceTemplate) {
		return nil, false, fmt.Errorf("%w: %q is not a template key", ErrInvalidKey, key)
	}
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	tree, err := doctree.Unmarshal([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("decode template %s: %w", key, err)
	}
	return tree, true, nil
}

// SaveDocument stores a filled document record.
func (s *Store) SaveDocument(ctx context.Context, doc doctree.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return s.Save(ctx, NamespaceDocument, string(data))
}

// GetDocument loads the document record at key.
func (s *Store) GetDocument(ctx context.Context, key string) (doctree.Document, bool, error) {
	var doc doctree.Document
	if !InNamespace(key, NamespaceDocument) {
		return doc, false, fmt.Errorf("%w: %q is not a document key", ErrInvalidKey, key)
	}
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return doc, ok, err
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return doc, false, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, true, nil
}

// SaveContent overwrites the autosaved live tree.
func (s *Store) SaveContent(ctx context.Context, tree doctree.Tree) error {
	data, err := doctree.Marshal(tree)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, ContentKey, string(data))
}

// LoadContent returns the autosaved live tree, if one was saved.
func (s *Store) LoadContent(ctx context.Context) (doctree.Tree, bool, error) {
	raw, ok, err := s.kv.Get(ctx, ContentKey)
	if err != nil || !ok {
		return nil, ok, err
	}
	tree, err := doctree.Unmarshal([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("decode content: %w", err)
	}
	return tree, true, nil
}
