package source

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// Accepted column names, canonical first.
var (
	timestampColumns  = []string{"timestamp"}
	idColumns         = []string{"lemon_id", "entity_id"}
	diameterColumns   = []string{"diameter_cm", "diameter"}
	confidenceColumns = []string{"confidence"}
)

// timestampLayouts are tried in order; zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	types.DateLayout,
}

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// columnIndex maps the four measurement fields to positions in a header row.
type columnIndex struct {
	timestamp, id, diameter, confidence int
}

// resolveColumns locates the measurement fields in header. Matching ignores
// case and surrounding whitespace.
func resolveColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	find := func(names []string) (int, error) {
		for _, n := range names {
			if i, ok := pos[n]; ok {
				return i, nil
			}
		}
		return 0, fmt.Errorf("missing column %s", strings.Join(names, " or "))
	}

	var (
		idx columnIndex
		err error
	)
	if idx.timestamp, err = find(timestampColumns); err != nil {
		return idx, err
	}
	if idx.id, err = find(idColumns); err != nil {
		return idx, err
	}
	if idx.diameter, err = find(diameterColumns); err != nil {
		return idx, err
	}
	if idx.confidence, err = find(confidenceColumns); err != nil {
		return idx, err
	}
	return idx, nil
}

// record converts one row of driver or text values into a RawMeasurement.
func (c columnIndex) record(row []any) (types.RawMeasurement, error) {
	ts, err := toTime(row[c.timestamp])
	if err != nil {
		return types.RawMeasurement{}, fmt.Errorf("timestamp: %w", err)
	}
	id, err := toInt(row[c.id])
	if err != nil {
		return types.RawMeasurement{}, fmt.Errorf("lemon id: %w", err)
	}
	diam, err := toFloat(row[c.diameter])
	if err != nil {
		return types.RawMeasurement{}, fmt.Errorf("diameter: %w", err)
	}
	conf, err := toFloat(row[c.confidence])
	if err != nil {
		return types.RawMeasurement{}, fmt.Errorf("confidence: %w", err)
	}
	return types.RawMeasurement{Timestamp: ts, EntityID: id, Diameter: diam, Confidence: conf}, nil
}

// ParseTimestamp parses the timestamp formats written by pandas, SQLite, and
// ISO-8601 producers. Timestamps without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return ParseTimestamp(x)
	case []byte:
		return ParseTimestamp(string(x))
	case int64:
		return time.Unix(x, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("non-integer %v", x)
		}
		return int(x), nil
	case string, []byte:
		f, err := toFloat(x)
		if err != nil {
			return 0, err
		}
		return toInt(f)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// validTable reports an error unless name is a plain SQL identifier, since
// table names cannot be bound as query parameters.
func validTable(name string) error {
	if !identRE.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
