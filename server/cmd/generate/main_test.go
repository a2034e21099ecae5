package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lemonwatch/lemonwatch/server/internal/source"
)

func TestRun_CSVRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "lemons.csv")
	if err := run(out, "", source.DefaultTable, 3, 4, 42, "2024-03-01"); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs, err := source.NewCSV(out).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// 3 lemons × 4 days × 2..4 samples.
	if len(recs) < 24 || len(recs) > 48 {
		t.Errorf("len(recs) = %d, want within [24, 48]", len(recs))
	}
}

func TestRun_SQLiteRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "lemons.db")
	if err := run(out, "", "readings", 2, 3, 7, "2024-03-01"); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs, err := source.NewSQLite(out, "readings").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) < 12 || len(recs) > 24 {
		t.Errorf("len(recs) = %d, want within [12, 24]", len(recs))
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]func() error{
		"format": func() error { return run(filepath.Join(dir, "x.out"), "parquet", "t", 1, 1, 1, "2024-03-01") },
		"start":  func() error { return run(filepath.Join(dir, "x.csv"), "", "t", 1, 1, 1, "01/03/2024") },
		"lemons": func() error { return run(filepath.Join(dir, "x.csv"), "", "t", -1, 1, 1, "2024-03-01") },
	}
	for name, fn := range cases {
		if err := fn(); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "x.out")); !os.IsNotExist(err) {
		t.Error("unknown format left an output file behind")
	}
}

func TestFormatOf(t *testing.T) {
	cases := map[string]string{
		"a.csv": "csv", "a.CSV": "csv", "a": "csv",
		"a.db": "sqlite", "a.sqlite": "sqlite", "a.SQLITE3": "sqlite",
	}
	for in, want := range cases {
		if got := formatOf(in); got != want {
			t.Errorf("formatOf(%q) = %q, want %q", in, got, want)
		}
	}
}
