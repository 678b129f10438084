package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lineparser/internal/pipeline"
	"lineparser/internal/router"
	"lineparser/internal/suggest"
)

// Store is the typed parser/router store over a Backend.
type Store struct {
	b   Backend
	now func() time.Time
}

// Open opens the configured backend and wraps it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	b, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(b), nil
}

// NewStore wraps b.
func NewStore(b Backend) *Store { return &Store{b: b, now: time.Now} }

// Close releases the backend.
func (s *Store) Close() error { return s.b.Close() }

func (s *Store) notFound(ctx context.Context, kind DocKind, name string) error {
	names, _ := s.b.Names(ctx, kind)
	return fmt.Errorf("store: %s %q: %w%s", kind, name, ErrNotFound, suggest.Hint(suggest.Closest(name, names, 3)))
}

// save appends doc unless it is identical to the current entry. It reports
// whether a new version was written.
func (s *Store) save(ctx context.Context, kind DocKind, name string, doc []byte) (Entry, bool, error) {
	if err := ValidName(name); err != nil {
		return Entry{}, false, err
	}
	if cur, err := s.b.Current(ctx, kind, name); err == nil && cur.Hash == Hash(doc) {
		return cur, false, nil
	}
	e := NewEntry(doc, s.now())
	if err := s.b.Append(ctx, kind, name, e); err != nil {
		return Entry{}, false, fmt.Errorf("store: save %s %q: %w", kind, name, err)
	}
	return e, true, nil
}

// LoadParser returns the current version of the named parser.
func (s *Store) LoadParser(ctx context.Context, name string) (*pipeline.Parser, error) {
	e, err := s.b.Current(ctx, ParserDoc, name)
	if err != nil {
		if isNotFound(err) {
			return nil, s.notFound(ctx, ParserDoc, name)
		}
		return nil, err
	}
	return decodeParser(name, e)
}

func decodeParser(name string, e Entry) (*pipeline.Parser, error) {
	var p pipeline.Parser
	if err := json.Unmarshal(e.Doc, &p); err != nil {
		return nil, fmt.Errorf("store: parser %q version %s: %w: %w", name, e.Version, ErrInvalidDocument, err)
	}
	return &p, nil
}

// SaveParser validates p and appends it as a new version. Saving a parser
// identical to the current version writes nothing.
func (s *Store) SaveParser(ctx context.Context, p *pipeline.Parser) (Entry, error) {
	if err := p.Validate(); err != nil {
		return Entry{}, err
	}
	doc, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("store: encode parser %q: %w", p.Name, err)
	}
	e, written, err := s.save(ctx, ParserDoc, p.Name, doc)
	if err != nil {
		return Entry{}, err
	}
	if written {
		log.Printf("store: saved parser=%s version=%s hash=%016x", p.Name, e.Version, e.Hash)
	} else {
		log.Printf("store: parser=%s unchanged (version=%s)", p.Name, e.Version)
	}
	return e, nil
}

// Exists reports whether a parser with this name has been saved.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, ParserDoc, name)
}

func (s *Store) exists(ctx context.Context, kind DocKind, name string) (bool, error) {
	_, err := s.b.Current(ctx, kind, name)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// List returns every saved parser name, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.b.Names(ctx, ParserDoc)
}

// Versions returns the version history of a parser, oldest first.
func (s *Store) Versions(ctx context.Context, name string) ([]Entry, error) {
	h, err := s.b.History(ctx, ParserDoc, name)
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, s.notFound(ctx, ParserDoc, name)
	}
	return h, nil
}

// LoadVersion decodes one historic version of a parser.
func (s *Store) LoadVersion(ctx context.Context, name, version string) (*pipeline.Parser, error) {
	h, err := s.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, e := range h {
		if e.Version == version {
			return decodeParser(name, e)
		}
	}
	return nil, fmt.Errorf("store: parser %q version %s: %w", name, version, ErrNotFound)
}

// LoadRouter returns the router of the owner parser.
func (s *Store) LoadRouter(ctx context.Context, owner string) (*router.Router, error) {
	e, err := s.b.Current(ctx, RouterDoc, owner)
	if err != nil {
		if isNotFound(err) {
			return nil, s.notFound(ctx, RouterDoc, owner)
		}
		return nil, err
	}
	var r router.Router
	if err := json.Unmarshal(e.Doc, &r); err != nil {
		return nil, fmt.Errorf("store: router %q: %w: %w", owner, ErrInvalidDocument, err)
	}
	return &r, nil
}

// SaveRouter stores r as the router of the owner parser.
func (s *Store) SaveRouter(ctx context.Context, owner string, r *router.Router) (Entry, error) {
	for _, rt := range r.Routes {
		if err := rt.Validate(); err != nil {
			return Entry{}, err
		}
	}
	doc, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("store: encode router %q: %w", owner, err)
	}
	e, written, err := s.save(ctx, RouterDoc, owner, doc)
	if err != nil {
		return Entry{}, err
	}
	if written {
		log.Printf("store: saved router owner=%s version=%s", owner, e.Version)
	}
	return e, nil
}

// RouterExists reports whether the owner parser has a router.
func (s *Store) RouterExists(ctx context.Context, owner string) (bool, error) {
	return s.exists(ctx, RouterDoc, owner)
}

// Routers lists owners that have a router, sorted.
func (s *Store) Routers(ctx context.Context) ([]string, error) {
	return s.b.Names(ctx, RouterDoc)
}
