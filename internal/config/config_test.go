package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode_OverlaysDefaults(t *testing.T) {
	a, err := Decode(strings.NewReader(`{"store":{"kind":"sqlite","dsn":"file:x.db"},"runtime":{"workers":2}}`))
	if err != nil {
		t.Fatal(err)
	}
	if a.Store.Kind != "sqlite" || a.Store.DSN != "file:x.db" || a.Runtime.Workers != 2 {
		t.Fatalf("decoded = %+v", a)
	}
	if !a.Source.Normalize || a.Metrics.Backend != "none" {
		t.Fatalf("defaults lost: %+v", a)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"stor":{}}`)); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

/*
TestLoad_FileAndEnv verifies that Load reads the file and that environment
variables win over file values.
*/
func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	if err := os.WriteFile(path, []byte(`{"store":{"kind":"file","root":"docs"},"metrics":{"backend":"datadog","datadog_addr":"a:1"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINEPARSER_STORE_KIND", "postgres")
	t.Setenv("LINEPARSER_STORE_DSN", "postgres://u@h/db")
	t.Setenv("DD_AGENT_ADDR", "b:2")

	a, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.Store.Kind != "postgres" || a.Store.DSN != "postgres://u@h/db" || a.Store.Root != "docs" {
		t.Fatalf("store = %+v", a.Store)
	}
	if a.Metrics.DatadogAddr != "b:2" {
		t.Fatalf("metrics = %+v", a.Metrics)
	}
	if sc := a.StoreConfig(); sc.Kind != "postgres" || sc.Root != "docs" {
		t.Fatalf("StoreConfig = %+v", sc)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestApplyEnv_IgnoresBlank(t *testing.T) {
	a := Default()
	a.ApplyEnv(func(k string) (string, bool) {
		if k == "LINEPARSER_METRICS_BACKEND" {
			return "  ", true
		}
		return "", false
	})
	if a.Metrics.Backend != "none" {
		t.Fatalf("backend = %q", a.Metrics.Backend)
	}
}
