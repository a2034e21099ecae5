package compute

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when an operation needs at least one aggregated
// point but nothing survived filtering. Callers that render views map it to a
// zeroed summary; an all-filtered data set is a valid state.
var ErrEmptyDataset = errors.New("compute: empty dataset")

// InvalidThresholdError reports a threshold outside its accepted range.
// Thresholds are never clamped or replaced by defaults.
type InvalidThresholdError struct {
	Name  string // "anomaly" or "confidence"
	Value float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("compute: invalid %s threshold %v", e.Name, e.Value)
}
