package table

import (
	"bytes"
	"encoding/json"
)

// Field is one named cell of a Record.
type Field struct {
	Name  string
	Value string
}

// Record is one row keyed by the final column names, in column order.
type Record []Field

// Get returns the value of the field named name (exact match).
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON writes the record as a JSON object preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Records returns every row as a Record keyed by the column names. Missing
// cells are "".
func (t *Table) Records() []Record {
	out := make([]Record, len(t.rows))
	for i, row := range t.rows {
		rec := make(Record, len(t.names))
		for c, n := range t.names {
			rec[c] = Field{Name: n, Value: cellOf(row, c)}
		}
		out[i] = rec
	}
	return out
}
