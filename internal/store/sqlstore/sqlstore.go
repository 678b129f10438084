// Package sqlstore implements the store backend on database/sql. One table
// holds every version of every document; the current document of a name is
// its newest version.
//
// Registered kinds:
//
//   - "sqlite"    modernc.org/sqlite, DSN is a file path or file: URI
//   - "sqlserver" github.com/microsoft/go-mssqldb
//   - "mysql"     github.com/go-sql-driver/mysql
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite"

	"lineparser/internal/store"
)

// Table is the document table name.
const Table = "lineparser_documents"

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name   string
	Driver string
	// CreateTable is idempotent DDL for Table.
	CreateTable string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// Latest wraps a SELECT ... ORDER BY query to return one row.
	Latest func(query string) string
	// CheckDSN validates a DSN before opening.
	CheckDSN func(dsn string) error
}

func question(int) string { return "?" }

func limitOne(q string) string { return q + " LIMIT 1" }

// SQLite is the modernc.org/sqlite dialect.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	CreateTable: `CREATE TABLE IF NOT EXISTS ` + Table + ` (
	kind    TEXT NOT NULL,
	name    TEXT NOT NULL,
	version TEXT NOT NULL,
	hash    TEXT NOT NULL,
	doc     TEXT NOT NULL,
	PRIMARY KEY (kind, name, version)
)`,
	Placeholder: question,
	Latest:      limitOne,
	CheckDSN: func(dsn string) error {
		if strings.TrimSpace(dsn) == "" {
			return errors.New("DSN must not be empty")
		}
		return nil
	},
}

// SQLServer is the go-mssqldb dialect.
var SQLServer = Dialect{
	Name:   "sqlserver",
	Driver: "sqlserver",
	CreateTable: `IF OBJECT_ID(N'` + Table + `', N'U') IS NULL
CREATE TABLE ` + Table + ` (
	kind    NVARCHAR(16)  NOT NULL,
	name    NVARCHAR(200) NOT NULL,
	version VARCHAR(40)   NOT NULL,
	hash    VARCHAR(16)   NOT NULL,
	doc     NVARCHAR(MAX) NOT NULL,
	CONSTRAINT PK_` + Table + ` PRIMARY KEY (kind, name, version)
)`,
	Placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	Latest: func(q string) string {
		return strings.Replace(q, "SELECT ", "SELECT TOP 1 ", 1)
	},
	CheckDSN: func(dsn string) error {
		_, err := msdsn.Parse(dsn)
		return err
	},
}

// MySQL is the go-sql-driver/mysql dialect.
var MySQL = Dialect{
	Name:   "mysql",
	Driver: "mysql",
	CreateTable: `CREATE TABLE IF NOT EXISTS ` + Table + ` (
	kind    VARCHAR(16)  NOT NULL,
	name    VARCHAR(200) NOT NULL,
	version VARCHAR(40)  NOT NULL,
	hash    VARCHAR(16)  NOT NULL,
	doc     LONGTEXT     NOT NULL,
	PRIMARY KEY (kind, name, version)
) CHARACTER SET utf8mb4`,
	Placeholder: question,
	Latest:      limitOne,
	CheckDSN: func(dsn string) error {
		_, err := mysql.ParseDSN(dsn)
		return err
	},
}

func init() {
	for _, d := range []Dialect{SQLite, SQLServer, MySQL} {
		d := d
		store.Register(d.Name, func(ctx context.Context, cfg store.Config) (store.Backend, error) {
			return Open(ctx, d, cfg.DSN)
		})
	}
}

// Backend is a database/sql document log.
type Backend struct {
	db *sql.DB
	d  Dialect
}

var _ store.Backend = (*Backend)(nil)

// Open validates dsn, connects and creates the document table if needed.
func Open(ctx context.Context, d Dialect, dsn string) (*Backend, error) {
	if err := d.CheckDSN(dsn); err != nil {
		return nil, fmt.Errorf("%s: dsn: %w", d.Name, err)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}
	return New(ctx, d, db)
}

// New wraps an open database and creates the document table if needed.
func New(ctx context.Context, d Dialect, db *sql.DB) (*Backend, error) {
	if _, err := db.ExecContext(ctx, d.CreateTable); err != nil {
		return nil, fmt.Errorf("%s: create %s: %w", d.Name, Table, err)
	}
	return &Backend{db: db, d: d}, nil
}

// where renders "kind = ? AND name = ?" with dialect placeholders.
func (b *Backend) where() string {
	return "kind = " + b.d.Placeholder(1) + " AND name = " + b.d.Placeholder(2)
}

func (b *Backend) Append(ctx context.Context, kind store.DocKind, name string, e store.Entry) error {
	q := fmt.Sprintf("INSERT INTO %s (kind, name, version, hash, doc) VALUES (%s, %s, %s, %s, %s)", Table,
		b.d.Placeholder(1), b.d.Placeholder(2), b.d.Placeholder(3), b.d.Placeholder(4), b.d.Placeholder(5))
	if _, err := b.db.ExecContext(ctx, q, string(kind), name, e.Version, formatHash(e.Hash), string(e.Doc)); err != nil {
		return fmt.Errorf("%s: append %s %q: %w", b.d.Name, kind, name, err)
	}
	return nil
}

func (b *Backend) Current(ctx context.Context, kind store.DocKind, name string) (store.Entry, error) {
	q := b.d.Latest(fmt.Sprintf("SELECT version, hash, doc FROM %s WHERE %s ORDER BY version DESC", Table, b.where()))
	var version, hash, doc string
	err := b.db.QueryRowContext(ctx, q, string(kind), name).Scan(&version, &hash, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entry{}, fmt.Errorf("%s: %s %q: %w", b.d.Name, kind, name, store.ErrNotFound)
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("%s: %w", b.d.Name, err)
	}
	return entry(version, hash, doc), nil
}

func (b *Backend) History(ctx context.Context, kind store.DocKind, name string) ([]store.Entry, error) {
	q := fmt.Sprintf("SELECT version, hash, doc FROM %s WHERE %s ORDER BY version ASC", Table, b.where())
	rows, err := b.db.QueryContext(ctx, q, string(kind), name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.d.Name, err)
	}
	defer rows.Close()

	var out []store.Entry
	for rows.Next() {
		var version, hash, doc string
		if err := rows.Scan(&version, &hash, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", b.d.Name, err)
		}
		out = append(out, entry(version, hash, doc))
	}
	return out, rows.Err()
}

func (b *Backend) Names(ctx context.Context, kind store.DocKind) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT name FROM %s WHERE kind = %s ORDER BY name", Table, b.d.Placeholder(1))
	rows, err := b.db.QueryContext(ctx, q, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.d.Name, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("%s: %w", b.d.Name, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (b *Backend) Close() error { return b.db.Close() }

func formatHash(h uint64) string { return fmt.Sprintf("%016x", h) }

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
