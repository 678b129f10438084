package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"lineparser/internal/store"
)

func newSQLite(tb testing.TB) *Backend {
	tb.Helper()
	b, err := Open(context.Background(), SQLite, filepath.Join(tb.TempDir(), "docs.db"))
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = b.Close() })
	return b
}

/*
TestSQLite_AppendCurrentHistory verifies that the newest version is current,
history is oldest first, and kinds do not see each other's names.
*/
func TestSQLite_AppendCurrentHistory(t *testing.T) {
	ctx := context.Background()
	b := newSQLite(t)

	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	first := store.NewEntry([]byte(`{"v":1}`), t0)
	second := store.NewEntry([]byte(`{"v":2}`), t0.Add(time.Second))
	for _, e := range []store.Entry{second, first} {
		if err := b.Append(ctx, store.ParserDoc, "Invoice", e); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Append(ctx, store.RouterDoc, "Owner", first); err != nil {
		t.Fatal(err)
	}

	cur, err := b.Current(ctx, store.ParserDoc, "Invoice")
	if err != nil {
		t.Fatal(err)
	}
	if cur.Version != second.Version || string(cur.Doc) != `{"v":2}` || cur.Hash != second.Hash {
		t.Fatalf("current = %+v", cur)
	}
	if !cur.At.Equal(second.At) {
		t.Fatalf("current.At = %v, want %v", cur.At, second.At)
	}

	h, err := b.History(ctx, store.ParserDoc, "Invoice")
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 || h[0].Version != first.Version || h[1].Version != second.Version {
		t.Fatalf("history = %+v", h)
	}

	names, err := b.Names(ctx, store.ParserDoc)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"Invoice"}) {
		t.Fatalf("names = %v", names)
	}

	if _, err := b.Current(ctx, store.ParserDoc, "Owner"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestSQLite_RegisteredAndReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	ctx := context.Background()

	b1, err := store.New(ctx, store.Config{Kind: "SQLite", DSN: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := b1.Append(ctx, store.ParserDoc, "P", store.NewEntry([]byte("{}"), time.Now())); err != nil {
		t.Fatal(err)
	}
	_ = b1.Close()

	b2, err := store.New(ctx, store.Config{Kind: "sqlite", DSN: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b2.Close()
	if _, err := b2.Current(ctx, store.ParserDoc, "P"); err != nil {
		t.Fatalf("document lost after reopen: %v", err)
	}
}

func TestOpen_RejectsBadDSN(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		d   Dialect
		dsn string
	}{
		{SQLite, " "},
		{MySQL, "user:pass@tcp(localhost:3306"},
		{SQLServer, "sqlserver://host?connection+timeout=notanumber"},
	} {
		if _, err := Open(ctx, tc.d, tc.dsn); err == nil || !strings.Contains(err.Error(), tc.d.Name+": dsn") {
			t.Errorf("%s: err = %v, want dsn error", tc.d.Name, err)
		}
	}
}

func TestDialect_Queries(t *testing.T) {
	b := &Backend{d: SQLServer}
	if got := b.where(); got != "kind = @p1 AND name = @p2" {
		t.Fatalf("where = %q", got)
	}
	if got := SQLServer.Latest("SELECT a FROM t ORDER BY a DESC"); got != "SELECT TOP 1 a FROM t ORDER BY a DESC" {
		t.Fatalf("latest = %q", got)
	}
	if got := MySQL.Latest("SELECT a FROM t"); got != "SELECT a FROM t LIMIT 1" {
		t.Fatalf("latest = %q", got)
	}
}

func TestEntry_HashFallback(t *testing.T) {
	e := entry("20240501T100000.000000000Z", "not-hex", "{}")
	if e.Hash != store.Hash([]byte("{}")) {
		t.Fatalf("hash = %x", e.Hash)
	}
	if e.At.IsZero() {
		t.Fatalf("time not parsed")
	}
}
