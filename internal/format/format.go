// Package format renders a router.Result as JSON, XML, an Excel workbook or
// a terminal preview.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"lineparser/internal/router"
)

// Options carries the settings shared by every writer.
type Options struct {
	RanAt  time.Time
	Indent string
}

// Writer renders res to w.
type Writer func(w io.Writer, res *router.Result, o Options) error

var (
	mu      sync.RWMutex
	writers = map[string]Writer{}
)

// Register makes a writer available under name. Later registrations replace
// earlier ones.
func Register(name string, fn Writer) {
	mu.Lock()
	defer mu.Unlock()
	writers[strings.ToLower(name)] = fn
}

// Lookup returns the writer registered under name.
func Lookup(name string) (Writer, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := writers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported format=%s", name)
	}
	return fn, nil
}

// Names lists registered writer names in order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(writers))
	for k := range writers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Extension is the usual file extension for a format, with the dot.
func Extension(name string) string {
	switch strings.ToLower(name) {
	case "xlsx":
		return ".xlsx"
	case "xml":
		return ".xml"
	case "preview":
		return ".txt"
	default:
		return ".json"
	}
}

// WriteJSON writes the JSON form of res followed by a newline.
func WriteJSON(w io.Writer, res *router.Result, o Options) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if o.Indent != "" {
		enc.SetIndent("", o.Indent)
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("format: json: %w", err)
	}
	return nil
}

func init() {
	Register("json", WriteJSON)
	Register("xml", WriteXML)
	Register("xlsx", WriteXLSX)
	Register("preview", WritePreview)
}
