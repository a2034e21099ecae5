package source

import (
	"context"
	"errors"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// ErrUnavailable reports that a source does not exist or is not configured.
// Chain treats it as "try the next source".
var ErrUnavailable = errors.New("source: unavailable")

// Source is the common interface implemented by every record source.
type Source interface {
	// Name identifies the source in response metadata, e.g. "csv:data/x.csv".
	Name() string

	// Load reads every raw measurement currently held by the source.
	Load(ctx context.Context) ([]types.RawMeasurement, error)
}

// Snapshot is one read of a source chain.
type Snapshot struct {
	Records   []types.RawMeasurement
	Source    string // Name() of the source that produced Records
	Synthetic bool   // true when no real source was available
}
