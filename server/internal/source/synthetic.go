package source

import (
	"context"

	"github.com/lemonwatch/lemonwatch/pkg/types"
	"github.com/lemonwatch/lemonwatch/server/internal/synth"
)

// SyntheticName is the Name of the synthetic source, kept as "mock" for
// dashboards that check for it.
const SyntheticName = "mock"

// SyntheticSource serves generated measurements. It is always available.
type SyntheticSource struct {
	Options synth.Options
}

// NewSynthetic returns a SyntheticSource for opts.
func NewSynthetic(opts synth.Options) *SyntheticSource {
	return &SyntheticSource{Options: opts}
}

// Name returns SyntheticName.
func (s *SyntheticSource) Name() string { return SyntheticName }

// Load regenerates the data set; identical Options give identical records.
func (s *SyntheticSource) Load(_ context.Context) ([]types.RawMeasurement, error) {
	return synth.Generate(s.Options)
}
