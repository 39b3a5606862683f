package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dgallion1/docfill/internal/pathstore"
)

// KV is a plain string key to string value mapping. A missing key is
// reported as ok=false, never as an error.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// MemoryKV keeps everything in process memory.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// FileKV stores one file per key under a directory.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

const fileExt = ".json"

func (f *FileKV) path(key string) string { return filepath.Join(f.dir, key+fileExt) }

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Put writes to a temporary file and renames it over the old value.
func (f *FileKV) Put(_ context.Context, key, value string) error {
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list store dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key := strings.TrimSuffix(name, fileExt)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// PathstoreKV keeps values as nodes under a prefix in a pathstore server.
type PathstoreKV struct {
	client *pathstore.Client
	prefix string
}

func NewPathstoreKV(client *pathstore.Client, prefix string) *PathstoreKV {
	return &PathstoreKV{client: client, prefix: strings.Trim(prefix, "/")}
}

func (p *PathstoreKV) nodeKey(key string) string { return p.prefix + "/" + key }

func (p *PathstoreKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.client.Get(ctx, p.nodeKey(key))
}

func (p *PathstoreKV) Put(ctx context.Context, key, value string) error {
	return p.client.Put(ctx, p.nodeKey(key), value)
}

func (p *PathstoreKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	paths, err := p.client.List(ctx, p.prefix, 0)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, path := range paths {
		key := strings.TrimPrefix(path, p.prefix+"/")
		if strings.HasPrefix(key, prefix) && !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
