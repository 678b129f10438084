// Package store persists parser and router documents as an append-only
// version log keyed by (kind, name). The newest entry of a log is the
// current document; older entries are its history.
//
// Concrete backends (directory tree, database/sql dialects, Postgres) live in
// subpackages and register a factory in init. Import store/all to enable all
// of them.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// DocKind names the kind of document kept in a log.
type DocKind string

const (
	ParserDoc DocKind = "parser"
	RouterDoc DocKind = "router"
)

var (
	// ErrNotFound reports a missing document or version.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDocument reports a stored document that cannot be decoded.
	ErrInvalidDocument = errors.New("invalid document")
)

// VersionLayout formats entry timestamps. Versions sort lexically in time
// order.
const VersionLayout = "20060102T150405.000000000Z"

// Entry is one saved document.
type Entry struct {
	Version string
	At      time.Time
	Hash    uint64
	Doc     []byte
}

// NewEntry stamps doc with the given time and its content hash.
func NewEntry(doc []byte, at time.Time) Entry {
	at = at.UTC()
	return Entry{Version: at.Format(VersionLayout), At: at, Hash: Hash(doc), Doc: doc}
}

// Hash is the content hash stored with every entry.
func Hash(doc []byte) uint64 { return xxh3.Hash(doc) }

// ParseVersion parses a version string back to its time.
func ParseVersion(v string) (time.Time, error) {
	return time.Parse(VersionLayout, v)
}

// Backend is an append-only document log.
type Backend interface {
	// Append adds e to the log of (kind, name); it becomes the current entry.
	Append(ctx context.Context, kind DocKind, name string, e Entry) error
	// Current returns the newest entry or an error wrapping ErrNotFound.
	Current(ctx context.Context, kind DocKind, name string) (Entry, error)
	// History returns every entry, oldest first.
	History(ctx context.Context, kind DocKind, name string) ([]Entry, error)
	// Names lists names that have at least one entry, sorted.
	Names(ctx context.Context, kind DocKind) ([]string, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "file", "sqlite", "postgres".
	Kind string
	// DSN is the connection string for database backends.
	DSN string
	// Root is the directory of the file backend.
	Root string
}

// Factory opens a backend from cfg.
type Factory func(ctx context.Context, cfg Config) (Backend, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// again replaces the previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// New opens the backend named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Backend, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(strings.TrimSpace(cfg.Kind))]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported store.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidName rejects names that cannot be used as a document key in every
// backend.
func ValidName(name string) error {
	n := strings.TrimSpace(name)
	switch {
	case n == "":
		return fmt.Errorf("store: name is empty")
	case n != name:
		return fmt.Errorf("store: name %q has surrounding spaces", name)
	case n == "." || n == "..":
		return fmt.Errorf("store: invalid name %q", name)
	case strings.ContainsAny(n, `/\:*?"<>|`):
		return fmt.Errorf("store: name %q contains a reserved character", name)
	case len(n) > 200:
		return fmt.Errorf("store: name is longer than 200 bytes")
	}
	return nil
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
