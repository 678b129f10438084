package pipeline

import (
	"strings"

	"golang.org/x/text/cases"

	"lineparser/internal/table"
)

// Group is one partition of a table: the rows sharing a key.
type Group struct {
	// Key is the key as first seen (after trimming), or the empty label.
	Key string
	// Rows are row indexes into the partitioned table, ascending.
	Rows []int
}

// Split groups the rows of t by the partition key. Groups appear in order of
// first occurrence. ok is false when the key column does not resolve on t;
// callers then emit the table unpartitioned.
func (p Partition) Split(t *table.Table) (groups []Group, keyCol int, ok bool) {
	keyCol, ok = p.Column.Resolve(t)
	if !ok {
		return nil, -1, false
	}

	fold := cases.Fold()
	index := make(map[string]int)
	for i := 0; i < t.Len(); i++ {
		key := t.Cell(i, keyCol)
		if p.TrimKey {
			key = strings.TrimSpace(key)
		}
		if key == "" {
			if p.DropEmptyKeyRows {
				continue
			}
			key = p.EmptyKeyLabel
		}

		id := key
		if p.CaseInsensitive {
			id = fold.String(key)
		}
		g, seen := index[id]
		if !seen {
			g = len(groups)
			index[id] = g
			groups = append(groups, Group{Key: key})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, keyCol, true
}

// KeyName is the attribute name for the partition key on t.
func (p Partition) KeyName(t *table.Table, keyCol int) string {
	if n := strings.TrimSpace(p.AttributeName); n != "" {
		return n
	}
	if keyCol >= 0 && keyCol < t.ColumnCount() {
		return t.ColumnName(keyCol)
	}
	return "Key"
}
