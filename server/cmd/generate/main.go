// Command generate writes a synthetic lemon measurement data set to CSV or
// SQLite, in the layout the server's record sources read.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/source"
	"github.com/lemonwatch/lemonwatch/server/internal/synth"
)

func main() {
	def := synth.DefaultOptions()
	out := flag.String("out", "data/lemon_measurements.csv", "output file")
	format := flag.String("format", "", "csv or sqlite; inferred from the -out extension when empty")
	table := flag.String("table", source.DefaultTable, "table name for sqlite output")
	lemons := flag.Int("lemons", def.Lemons, "number of lemons")
	days := flag.Int("days", def.Days, "number of days")
	seed := flag.Int64("seed", def.Seed, "random seed")
	start := flag.String("start", def.Start.Format(types.DateLayout), "first day, YYYY-MM-DD")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := run(*out, *format, *table, *lemons, *days, *seed, *start); err != nil {
		slog.Error("generate failed", "err", err)
		os.Exit(1)
	}
}

func run(out, format, table string, lemons, days int, seed int64, start string) error {
	startDate, err := time.Parse(types.DateLayout, start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if format == "" {
		format = formatOf(out)
	}

	recs, err := synth.Generate(synth.Options{Lemons: lemons, Days: days, Seed: seed, Start: startDate})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	switch format {
	case "csv":
		err = writeCSV(out, recs)
	case "sqlite":
		err = source.NewSQLite(out, table).Save(context.Background(), recs)
	default:
		return fmt.Errorf("unknown format %q (want csv or sqlite)", format)
	}
	if err != nil {
		return err
	}

	slog.Info("generate: wrote synthetic data set",
		"out", out, "format", format, "rows", len(recs),
		"lemons", lemons, "days", days, "seed", seed)
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	default:
		return "csv"
	}
}

func writeCSV(path string, recs []types.RawMeasurement) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := source.WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
