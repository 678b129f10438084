// Package file implements a directory-tree store backend:
//
//	<root>/<name>/parser.json           current parser
//	<root>/<name>/versions/<v>.json      parser history
//	<root>/<name>/router.json           current router
//	<root>/<name>/router-versions/<v>.json
//
// The current file is rewritten on every append; version files are never
// modified.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lineparser/internal/store"
)

// DefaultRoot is the directory used when Config.Root is blank.
const DefaultRoot = "parsers"

func init() {
	store.Register("file", func(_ context.Context, cfg store.Config) (store.Backend, error) {
		root := cfg.Root
		if strings.TrimSpace(root) == "" {
			root = DefaultRoot
		}
		return New(root)
	})
}

// Backend stores documents under a root directory.
type Backend struct {
	root string
}

var _ store.Backend = (*Backend)(nil)

// New creates root if needed.
func New(root string) (*Backend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &Backend{root: root}, nil
}

func layout(kind store.DocKind) (current, versions string) {
	if kind == store.ParserDoc {
		return "parser.json", "versions"
	}
	return string(kind) + ".json", string(kind) + "-versions"
}

func (b *Backend) dir(name string) (string, error) {
	if err := store.ValidName(name); err != nil {
		return "", err
	}
	return filepath.Join(b.root, name), nil
}

func (b *Backend) Append(_ context.Context, kind store.DocKind, name string, e store.Entry) error {
	dir, err := b.dir(name)
	if err != nil {
		return err
	}
	cur, vdir := layout(kind)
	if err := os.MkdirAll(filepath.Join(dir, vdir), 0o755); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	if err := writeFile(filepath.Join(dir, vdir, e.Version+".json"), e.Doc); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, cur), e.Doc)
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

func (b *Backend) Current(_ context.Context, kind store.DocKind, name string) (store.Entry, error) {
	dir, err := b.dir(name)
	if err != nil {
		return store.Entry{}, err
	}
	cur, _ := layout(kind)
	path := filepath.Join(dir, cur)
	doc, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store.Entry{}, fmt.Errorf("file store: %s: %w", path, store.ErrNotFound)
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("file store: %w", err)
	}
	e := store.Entry{Hash: store.Hash(doc), Doc: doc}
	if fi, err := os.Stat(path); err == nil {
		e.At = fi.ModTime().UTC()
	}
	// The current file is a copy of the newest version when written here.
	if h, err := b.versions(dir, kind); err == nil && len(h) > 0 {
		e.Version = h[len(h)-1]
		if at, err := store.ParseVersion(e.Version); err == nil {
			e.At = at
		}
	}
	return e, nil
}

// versions lists version ids, oldest first.
func (b *Backend) versions(dir string, kind store.DocKind) ([]string, error) {
	_, vdir := layout(kind)
	ents, err := os.ReadDir(filepath.Join(dir, vdir))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, de := range ents {
		n := de.Name()
		if de.IsDir() || !strings.HasSuffix(n, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(n, ".json"))
	}
	sort.Strings(out)
	return out, nil
}

func (b *Backend) History(_ context.Context, kind store.DocKind, name string) ([]store.Entry, error) {
	dir, err := b.dir(name)
	if err != nil {
		return nil, err
	}
	ids, err := b.versions(dir, kind)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	_, vdir := layout(kind)
	out := make([]store.Entry, 0, len(ids))
	for _, id := range ids {
		doc, err := os.ReadFile(filepath.Join(dir, vdir, id+".json"))
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		e := store.Entry{Version: id, Hash: store.Hash(doc), Doc: doc}
		if at, err := store.ParseVersion(id); err == nil {
			e.At = at
		}
		out = append(out, e)
	}
	return out, nil
}

func (b *Backend) Names(_ context.Context, kind store.DocKind) ([]string, error) {
	ents, err := os.ReadDir(b.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	cur, _ := layout(kind)
	var out []string
	for _, de := range ents {
		if !de.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(b.root, de.Name(), cur)); err == nil {
			out = append(out, de.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *Backend) Close() error { return nil }
