// Package postgres implements the store backend on a pgx/v5 connection pool.
// The schema matches the database/sql backends: one table of versioned
// documents, current = newest version.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lineparser/internal/store"
)

// Table is the document table name.
const Table = "lineparser_documents"

const createTable = `CREATE TABLE IF NOT EXISTS ` + Table + ` (
	kind    TEXT NOT NULL,
	name    TEXT NOT NULL,
	version TEXT NOT NULL,
	hash    TEXT NOT NULL,
	doc     TEXT NOT NULL,
	PRIMARY KEY (kind, name, version)
)`

const (
	insertSQL  = `INSERT INTO ` + Table + ` (kind, name, version, hash, doc) VALUES ($1, $2, $3, $4, $5)`
	currentSQL = `SELECT version, hash, doc FROM ` + Table + ` WHERE kind = $1 AND name = $2 ORDER BY version DESC LIMIT 1`
	historySQL = `SELECT version, hash, doc FROM ` + Table + ` WHERE kind = $1 AND name = $2 ORDER BY version ASC`
	namesSQL   = `SELECT DISTINCT name FROM ` + Table + ` WHERE kind = $1 ORDER BY name`
)

func init() {
	store.Register("postgres", func(ctx context.Context, cfg store.Config) (store.Backend, error) {
		return Open(ctx, cfg.DSN)
	})
}

// Backend is a Postgres document log.
type Backend struct {
	pool *pgxpool.Pool
}

var _ store.Backend = (*Backend)(nil)

// Open connects to dsn and creates the document table if needed.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create %s: %w", Table, err)
	}
	return &Backend{pool: pool}, nil
}

func (b *Backend) Append(ctx context.Context, kind store.DocKind, name string, e store.Entry) error {
	_, err := b.pool.Exec(ctx, insertSQL, string(kind), name, e.Version, fmt.Sprintf("%016x", e.Hash), string(e.Doc))
	if err != nil {
		return fmt.Errorf("postgres: append %s %q: %w", kind, name, err)
	}
	return nil
}

func (b *Backend) Current(ctx context.Context, kind store.DocKind, name string) (store.Entry, error) {
	var version, hash, doc string
	err := b.pool.QueryRow(ctx, currentSQL, string(kind), name).Scan(&version, &hash, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Entry{}, fmt.Errorf("postgres: %s %q: %w", kind, name, store.ErrNotFound)
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("postgres: %w", err)
	}
	return entry(version, hash, doc), nil
}

func (b *Backend) History(ctx context.Context, kind store.DocKind, name string) ([]store.Entry, error) {
	rows, err := b.pool.Query(ctx, historySQL, string(kind), name)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	defer rows.Close()

	var out []store.Entry
	for rows.Next() {
		var version, hash, doc string
		if err := rows.Scan(&version, &hash, &doc); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		out = append(out, entry(version, hash, doc))
	}
	return out, rows.Err()
}

func (b *Backend) Names(ctx context.Context, kind store.DocKind) ([]string, error) {
	rows, err := b.pool.Query(ctx, namesSQL, string(kind))
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return names, nil
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

func entry(version, hash, doc string) store.Entry {
	e := store.Entry{Version: version, Doc: []byte(doc)}
	if h, err := strconv.ParseUint(hash, 16, 64); err == nil {
		e.Hash = h
	} else {
		e.Hash = store.Hash(e.Doc)
	}
	if at, err := store.ParseVersion(version); err == nil {
		e.At = at
	}
	return e
}
