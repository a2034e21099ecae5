package compute

import "math"

// Default analysis thresholds.
const (
	DefaultConfidenceThreshold = 0.70
	DefaultAnomalyThreshold    = 1.5 // cm
)

// Options holds the thresholds for one pipeline run. It is passed by value so
// a request can override either field without touching shared configuration.
type Options struct {
	// ConfidenceThreshold is the minimum detector score a raw measurement
	// needs to be kept. Must be within [0, 1].
	ConfidenceThreshold float64

	// AnomalyThreshold is the minimum absolute day-over-day change in a
	// lemon's median diameter that is reported. Must be ≥ 0.
	AnomalyThreshold float64
}

// DefaultOptions returns Options populated with the package defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		AnomalyThreshold:    DefaultAnomalyThreshold,
	}
}

// Validate checks both thresholds and returns an *InvalidThresholdError for
// the first one out of range.
func (o Options) Validate() error {
	if err := checkConfidence(o.ConfidenceThreshold); err != nil {
		return err
	}
	return checkAnomaly(o.AnomalyThreshold)
}

func checkConfidence(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return &InvalidThresholdError{Name: "confidence", Value: t}
	}
	return nil
}

func checkAnomaly(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return &InvalidThresholdError{Name: "anomaly", Value: t}
	}
	return nil
}
