// Package synth generates plausible lemon measurement data from a logistic
// growth model with Gaussian measurement noise and occasional low-confidence
// detections. Output is fully determined by Options, which makes the
// generator both the fallback record source and the canonical test fixture.
package synth
