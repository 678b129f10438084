// Package source holds the immutable line snapshot every rule run starts
// from, and a plain-text front end that produces one.
//
// The snapshot is the contract with any extraction front end: an ordered
// sequence of lines plus a 1-based page number per line, index-aligned.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"lineparser/internal/table"
)

// Snapshot is an immutable, page-tagged line sequence.
type Snapshot struct {
	lines []string
	pages []int
}

// New copies lines and pages into a snapshot. Pages must be index-aligned
// with lines and >= 1.
func New(lines []string, pages []int) (*Snapshot, error) {
	if len(lines) != len(pages) {
		return nil, fmt.Errorf("source: %d lines but %d page numbers", len(lines), len(pages))
	}
	for i, p := range pages {
		if p < 1 {
			return nil, fmt.Errorf("source: line %d: page %d must be >= 1", i, p)
		}
	}
	return &Snapshot{
		lines: append([]string(nil), lines...),
		pages: append([]int(nil), pages...),
	}, nil
}

// Len returns the number of lines.
func (s *Snapshot) Len() int { return len(s.lines) }

// Lines returns a copy of the lines.
func (s *Snapshot) Lines() []string { return append([]string(nil), s.lines...) }

// Pages returns a copy of the page numbers.
func (s *Snapshot) Pages() []int { return append([]int(nil), s.pages...) }

// PageCount returns the highest page number, or 0 for an empty snapshot.
func (s *Snapshot) PageCount() int {
	n := 0
	for _, p := range s.pages {
		n = max(n, p)
	}
	return n
}

// Table builds a fresh single-column table from the snapshot. Every call
// returns an independent table.
func (s *Snapshot) Table() *table.Table {
	t, err := table.FromLines(s.lines, s.pages)
	if err != nil {
		// New guarantees alignment.
		panic(err)
	}
	return t
}

// Fingerprint is a content hash of lines and pages, stable across runs.
func (s *Snapshot) Fingerprint() uint64 {
	h := xxh3.New()
	var num [20]byte
	for i, l := range s.lines {
		_, _ = h.Write(strconv.AppendInt(num[:0], int64(s.pages[i]), 10))
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(l)
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

// Options controls how Read decodes text.
type Options struct {
	// Encoding is an IANA charset name such as "windows-1250" or
	// "ISO-8859-2". Blank means UTF-8.
	Encoding string
	// Normalize applies Unicode NFC so composed and decomposed input match
	// the same patterns.
	Normalize bool
	// StripAccents removes combining marks (é -> e).
	StripAccents bool
}

// Read splits r into lines. A form feed starts a new page; pages are
// numbered from 1. A trailing "\r" is dropped from each line. Empty
// fragments on either side of a form feed are not lines of their own.
func Read(r io.Reader, o Options) (*Snapshot, error) {
	in, err := decoder(r, o)
	if err != nil {
		return nil, err
	}

	var lines []string
	var pages []int
	page := 1
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		parts := strings.Split(strings.TrimSuffix(sc.Text(), "\r"), "\f")
		for i, part := range parts {
			if i > 0 {
				page++
			}
			if part == "" && len(parts) > 1 {
				continue
			}
			lines = append(lines, part)
			pages = append(pages, page)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("source: read: %w", err)
	}
	return New(lines, pages)
}

// ReadFile opens path and calls Read.
func ReadFile(path string, o Options) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()
	return Read(f, o)
}

func decoder(r io.Reader, o Options) (io.Reader, error) {
	var chain []transform.Transformer
	if name := strings.TrimSpace(o.Encoding); name != "" && !strings.EqualFold(name, "utf-8") && !strings.EqualFold(name, "utf8") {
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("source: unsupported encoding %q", name)
		}
		chain = append(chain, enc.NewDecoder())
	}
	switch {
	case o.StripAccents:
		chain = append(chain, norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	case o.Normalize:
		chain = append(chain, norm.NFC)
	}
	if len(chain) == 0 {
		return r, nil
	}
	return transform.NewReader(r, transform.Chain(chain...)), nil
}
