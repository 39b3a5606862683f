package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/pathstore"
	"github.com/google/go-cmp/cmp"
)

// fakePathstore serves the subset of the pathstore API the client uses.
type fakePathstore struct {
	mu     sync.Mutex
	nodes  map[string]string
	status int
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch {
	case r.Method == http.MethodPut:
		var req pathstore.NodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		var out struct {
			Nodes []pathstore.NodeResponse `json:"nodes"`
		}
		for k, v := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				out.Nodes = append(out.Nodes, pathstore.NodeResponse{Key: k, Value: v})
			}
		}
		json.NewEncoder(w).Encode(out)
	default:
		v, ok := f.nodes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(pathstore.NodeResponse{Key: key, Value: v})
	}
}

func backends(t *testing.T) map[string]KV {
	t.Helper()
	fileKV, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	srv := httptest.NewServer(&fakePathstore{nodes: make(map[string]string)})
	t.Cleanup(srv.Close)
	return map[string]KV{
		"memory":    NewMemoryKV(),
		"file":      fileKV,
		"pathstore": NewPathstoreKV(pathstore.NewClient(srv.URL, "test-key"), "docfill"),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	tree := doctree.Tree{doctree.Paragraph(
		doctree.Text("Hello "), doctree.Field("f1", "World", 0), doctree.EditableText("!", true),
	)}
	doc := doctree.Document{TemplateID: "template-x", DocumentFields: []doctree.FieldValue{{FieldID: "f1", FieldValue: "Ada"}}}

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(kv)

			tkey, err := s.SaveTemplate(ctx, tree)
			if err != nil {
				t.Fatalf("save template: %v", err)
			}
			if !strings.HasPrefix(tkey, "template-") {
				t.Errorf("unexpected template key %q", tkey)
			}
			gotTree, ok, err := s.GetTemplate(ctx, tkey)
			if err != nil || !ok {
				t.Fatalf("get template: ok=%v err=%v", ok, err)
			}
			if diff := cmp.Diff(tree, gotTree); diff != "" {
				t.Errorf("template mismatch (-want +got):\n%s", diff)
			}

			dkey, err := s.SaveDocument(ctx, doc)
			if err != nil {
				t.Fatalf("save document: %v", err)
			}
			gotDoc, ok, err := s.GetDocument(ctx, dkey)
			if err != nil || !ok {
				t.Fatalf("get document: ok=%v err=%v", ok, err)
			}
			if diff := cmp.Diff(doc, gotDoc); diff != "" {
				t.Errorf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_ListKeysByNamespace(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(kv)
			var want []string
			for i := 0; i < 3; i++ {
				key, err := s.Save(ctx, NamespaceTemplate, "[]")
				if err != nil {
					t.Fatalf("save: %v", err)
				}
				want = append(want, key)
			}
			if _, err := s.Save(ctx, NamespaceDocument, "{}"); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := s.SaveContent(ctx, doctree.Tree{doctree.Paragraph(doctree.Text("x"))}); err != nil {
				t.Fatalf("save content: %v", err)
			}

			got, err := s.ListKeys(ctx, NamespaceTemplate)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			sort.Strings(want)
			sort.Strings(got)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_MissingKeyIsAbsent(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(kv)
			_, ok, err := s.GetTemplate(ctx, "template-missing")
			if err != nil || ok {
				t.Errorf("expected absent, got ok=%v err=%v", ok, err)
			}
			_, ok, err = s.LoadContent(ctx)
			if err != nil || ok {
				t.Errorf("expected no content, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStore_ContentIsOverwritten(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())
	first := doctree.Tree{doctree.Paragraph(doctree.Text("one"))}
	second := doctree.Tree{doctree.Paragraph(doctree.Text("two"))}
	if err := s.SaveContent(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveContent(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.LoadContent(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV())
	for _, key := range []string{"", "../etc/passwd", "template-a/b"} {
		if _, _, err := s.Get(ctx, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Get(%q): expected ErrInvalidKey, got %v", key, err)
		}
	}
	if _, _, err := s.GetTemplate(ctx, "document-abc"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey for a document key, got %v", err)
	}
}

func TestPathstoreKV_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(&fakePathstore{nodes: make(map[string]string), status: http.StatusServiceUnavailable})
	defer srv.Close()
	kv := NewPathstoreKV(pathstore.NewClient(srv.URL, "k"), "docfill")

	err := kv.Put(context.Background(), "content", "[]")
	if !pathstore.IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}
