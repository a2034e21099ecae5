package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lemonwatch/lemonwatch/pkg/types"
)

// Default generator parameters.
const (
	DefaultLemons = 20
	DefaultDays   = 50
	DefaultSeed   = 42
)

// Model constants.
const (
	// pcgStream is the fixed PCG stream selector; the seed picks the state.
	pcgStream = 0x4c454d4f4e // "LEMON"

	offsetMax   = 12.0 // days of random phase shift per lemon
	midpointDay = 16.0 // logistic inflection, in days after the phase shift

	noiseSigma = 0.12 // cm
	minDiam    = 0.5  // cm

	lowConfidenceRate = 0.08
)

// DefaultStart is the first generated calendar day.
var DefaultStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// Options controls the size and seed of a generated data set.
type Options struct {
	Lemons int       // lemons are numbered 1..Lemons
	Days   int       // consecutive days starting at Start
	Seed   int64     // identical seeds give identical output
	Start  time.Time // midnight of day 0; zero means DefaultStart
}

// DefaultOptions returns the parameters used when no record source exists.
func DefaultOptions() Options {
	return Options{
		Lemons: DefaultLemons,
		Days:   DefaultDays,
		Seed:   DefaultSeed,
		Start:  DefaultStart,
	}
}

// Growth holds one lemon's logistic curve parameters.
type Growth struct {
	Offset  float64 // days before growth starts, in [0, 12)
	MaxDiam float64 // asymptotic diameter in cm, in [5.5, 8.2)
	K       float64 // growth rate, in [0.12, 0.20)
}

// Diameter returns the noise-free diameter on the given day.
func (g Growth) Diameter(day int) float64 {
	t := math.Max(0, float64(day)-g.Offset)
	return g.MaxDiam / (1 + math.Exp(-g.K*(t-midpointDay)))
}

// Generate returns the raw measurements for opts.
//
// Draw order is fixed: per lemon offset, max diameter, rate; per day the
// sample count; per sample hour, minute, noise, beta confidence, the
// low-confidence coin, and the replacement confidence when the coin hits.
func Generate(opts Options) ([]types.RawMeasurement, error) {
	if opts.Lemons < 0 {
		return nil, fmt.Errorf("synth: lemons must not be negative, got %d", opts.Lemons)
	}
	if opts.Days < 0 {
		return nil, fmt.Errorf("synth: days must not be negative, got %d", opts.Days)
	}
	start := opts.Start
	if start.IsZero() {
		start = DefaultStart
	}

	src := rand.NewPCG(uint64(opts.Seed), pcgStream)
	rng := rand.New(src)
	uniform := func(lo, hi float64) float64 {
		return distuv.Uniform{Min: lo, Max: hi, Src: src}.Rand()
	}
	noise := distuv.Normal{Mu: 0, Sigma: noiseSigma, Src: src}
	beta := distuv.Beta{Alpha: 8, Beta: 2, Src: src}

	// 2–4 samples per lemon-day, 3 on average.
	out := make([]types.RawMeasurement, 0, opts.Lemons*opts.Days*3)
	for id := 1; id <= opts.Lemons; id++ {
		g := Growth{
			Offset:  uniform(0, offsetMax),
			MaxDiam: uniform(5.5, 8.2),
			K:       uniform(0.12, 0.20),
		}
		for day := 0; day < opts.Days; day++ {
			samples := 2 + rng.IntN(3)
			for range samples {
				hour := 6 + rng.IntN(14)
				minute := 30 * rng.IntN(2)
				ts := start.AddDate(0, 0, day).
					Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

				diam := g.Diameter(day) + noise.Rand()
				conf := 0.7 + 0.3*beta.Rand()
				if rng.Float64() < lowConfidenceRate {
					conf = uniform(0.3, 0.69)
				}

				out = append(out, types.RawMeasurement{
					Timestamp:  ts,
					EntityID:   id,
					Diameter:   round3(math.Max(minDiam, diam)),
					Confidence: round3(conf),
				})
			}
		}
	}
	return out, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
