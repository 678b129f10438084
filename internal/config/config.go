// Package config defines the JSON application configuration of the
// lineparser CLI and static linting of parser and router documents.
//
// Example:
//
//	{
//	  "store":   { "kind": "sqlite", "dsn": "file:parsers.db" },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091", "job": "invoices" },
//	  "source":  { "encoding": "windows-1250", "normalize": true },
//	  "runtime": { "workers": 4 }
//	}
//
// Environment variables override the file: LINEPARSER_STORE_KIND,
// LINEPARSER_STORE_DSN, LINEPARSER_METRICS_BACKEND, PUSHGATEWAY_URL and
// DD_AGENT_ADDR.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"lineparser/internal/source"
	"lineparser/internal/store"
)

// App is the top-level configuration document.
type App struct {
	Store   Store   `json:"store"`
	Metrics Metrics `json:"metrics"`
	Source  Source  `json:"source"`
	Runtime Runtime `json:"runtime"`
}

// Store selects the parser store backend.
type Store struct {
	// Kind is a registered store kind: file, sqlite, sqlserver, mysql or postgres.
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
	// Root is the directory of the file store.
	Root string `json:"root"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	Job            string   `json:"job"`
	DatadogAddr    string   `json:"datadog_addr"`
	Namespace      string   `json:"namespace"`
	Tags           []string `json:"tags"`
}

// Source controls how input text is decoded.
type Source struct {
	Encoding     string `json:"encoding"`
	Normalize    bool   `json:"normalize"`
	StripAccents bool   `json:"strip_accents"`
}

// Runtime controls batch execution.
type Runtime struct {
	// Workers bounds how many inputs are processed at once.
	Workers int `json:"workers"`
	// FailOnWarn makes lint warnings block a run.
	FailOnWarn bool `json:"fail_on_warn"`
}

// Default returns the configuration used when no file is given.
func Default() App {
	return App{
		Store:   Store{Kind: "file", Root: "parsers"},
		Metrics: Metrics{Backend: "none", Job: "lineparser"},
		Source:  Source{Normalize: true},
		Runtime: Runtime{Workers: runtime.NumCPU()},
	}
}

// Decode reads an App from r on top of Default. Unknown fields are errors.
func Decode(r io.Reader) (App, error) {
	a := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return App{}, fmt.Errorf("config: decode: %w", err)
	}
	return a, nil
}

// Load reads the file at path, or returns Default when path is empty, then
// applies environment overrides.
func Load(path string) (App, error) {
	a := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return App{}, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if a, err = Decode(f); err != nil {
			return App{}, err
		}
	}
	a.ApplyEnv(os.LookupEnv)
	return a, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production.
func (a *App) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("LINEPARSER_STORE_KIND", &a.Store.Kind)
	set("LINEPARSER_STORE_DSN", &a.Store.DSN)
	set("LINEPARSER_METRICS_BACKEND", &a.Metrics.Backend)
	set("PUSHGATEWAY_URL", &a.Metrics.PushgatewayURL)
	set("DD_AGENT_ADDR", &a.Metrics.DatadogAddr)
}

// StoreConfig converts the store section for store.New.
func (a App) StoreConfig() store.Config {
	return store.Config{Kind: a.Store.Kind, DSN: a.Store.DSN, Root: a.Store.Root}
}

// SourceOptions converts the source section for source.Read.
func (a App) SourceOptions() source.Options {
	return source.Options{
		Encoding:     a.Source.Encoding,
		Normalize:    a.Source.Normalize,
		StripAccents: a.Source.StripAccents,
	}
}
