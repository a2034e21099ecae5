package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// csvTimestampLayout matches the ISO format the generator has always written.
const csvTimestampLayout = "2006-01-02T15:04:05"

// CSVSource reads measurements from a CSV file with a header row.
type CSVSource struct {
	Path string
}

// NewCSV returns a CSVSource for path.
func NewCSV(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Name returns "csv:<path>".
func (s *CSVSource) Name() string { return "csv:" + s.Path }

// Load reads the whole file. An empty Path or a missing file is reported as
// ErrUnavailable.
func (s *CSVSource) Load(ctx context.Context) ([]types.RawMeasurement, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("%w: csv path not configured", ErrUnavailable)
	}
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", s.Path, err)
	}
	defer f.Close()

	recs, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", s.Path, err)
	}
	return recs, nil
}

// ReadCSV parses measurements from r. The first row must be a header naming
// the timestamp, lemon id, diameter, and confidence columns; other columns
// are ignored.
func ReadCSV(ctx context.Context, r io.Reader) ([]types.RawMeasurement, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []types.RawMeasurement{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	// Spreadsheet exports often start with a UTF-8 byte order mark.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	idx, err := resolveColumns(header)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	var out []types.RawMeasurement
	row := make([]any, len(header))
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv errors already carry the line number.
			return nil, err
		}
		for i, f := range fields {
			row[i] = f
		}
		rec, err := idx.record(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if out == nil {
		out = []types.RawMeasurement{}
	}
	return out, nil
}

// WriteCSV writes recs in the original layout:
// timestamp,lemon_id,diameter_cm,confidence.
func WriteCSV(w io.Writer, recs []types.RawMeasurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "lemon_id", "diameter_cm", "confidence"}); err != nil {
		return err
	}
	for _, r := range recs {
		err := cw.Write([]string{
			r.Timestamp.Format(csvTimestampLayout),
			strconv.Itoa(r.EntityID),
			strconv.FormatFloat(r.Diameter, 'f', -1, 64),
			strconv.FormatFloat(r.Confidence, 'f', -1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
