// Package fiber holds the physical description of a transmission fiber:
// its length, the power-attenuation coefficient sampled over frequency, and
// the Raman gain efficiency sampled over frequency offset.
//
// Both tables are sparse. With two or more samples they are interpolated
// piecewise-linearly onto the query axis; queries outside the sampled range
// are clamped to the nearest endpoint (flat extrapolation). A table with a
// single sample acts as a scalar applied uniformly to every frequency.
package fiber

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

var (
	// ErrEmptyTable indicates a coefficient table with no samples.
	ErrEmptyTable = errors.New("fiber: coefficient table has no samples")

	// ErrTableMismatch indicates parallel sample arrays of different length.
	ErrTableMismatch = errors.New("fiber: sample axis and value arrays differ in length")

	// ErrTableOrder indicates a sample axis that is not strictly increasing.
	ErrTableOrder = errors.New("fiber: sample axis must be strictly increasing")

	// ErrNonPositiveLength indicates a fiber length <= 0.
	ErrNonPositiveLength = errors.New("fiber: length must be positive")
)

// AttenuationTable samples the power-attenuation coefficient (1/m) over
// absolute frequency (Hz).
type AttenuationTable struct {
	Frequency []float64
	Alpha     []float64
}

// RamanGainTable samples the Raman gain efficiency (1/W/m) over frequency
// offset (Hz).
type RamanGainTable struct {
	FrequencyOffset []float64
	Efficiency      []float64
}

// Params collects the fiber properties consumed by the propagation solver.
// Gamma, Beta2 and Beta3 are carried for downstream nonlinear-interference
// estimation and are not used by the solver itself.
type Params struct {
	Length      float64 // m
	Attenuation AttenuationTable
	RamanGain   RamanGainTable

	Gamma float64 // 1/W/m
	Beta2 float64 // s^2/m
	Beta3 float64 // s^3/m
}

// Validate checks the structural invariants of the fiber description.
func (p Params) Validate() error {
	if p.Length <= 0 {
		return fmt.Errorf("%w: got %g m", ErrNonPositiveLength, p.Length)
	}
	if err := validateTable(p.Attenuation.Frequency, p.Attenuation.Alpha); err != nil {
		return fmt.Errorf("attenuation table: %w", err)
	}
	if err := validateTable(p.RamanGain.FrequencyOffset, p.RamanGain.Efficiency); err != nil {
		return fmt.Errorf("raman gain table: %w", err)
	}
	return nil
}

func validateTable(xs, ys []float64) error {
	if len(ys) == 0 {
		return ErrEmptyTable
	}
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d vs %d", ErrTableMismatch, len(xs), len(ys))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return fmt.Errorf("%w: sample %d", ErrTableOrder, i)
		}
	}
	return nil
}

// Lookup is a validated, clamped evaluation of a sparse coefficient table.
type Lookup struct {
	scalar     float64
	xmin, xmax float64
	pl         interp.PiecewiseLinear
	flat       bool
}

func newLookup(xs, ys []float64) (*Lookup, error) {
	if err := validateTable(xs, ys); err != nil {
		return nil, err
	}
	if len(ys) < 2 {
		return &Lookup{scalar: ys[0], flat: true}, nil
	}
	l := &Lookup{xmin: xs[0], xmax: xs[len(xs)-1]}
	if err := l.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fiber: fit table: %w", err)
	}
	return l, nil
}

// At evaluates the table at x. Queries outside the sampled range are clamped
// to the nearest endpoint, so extrapolation is always flat and never depends
// on interpolation-library defaults.
func (l *Lookup) At(x float64) float64 {
	if l.flat {
		return l.scalar
	}
	if x < l.xmin {
		x = l.xmin
	} else if x > l.xmax {
		x = l.xmax
	}
	return l.pl.Predict(x)
}

// Sample evaluates the table at every point of xs.
func (l *Lookup) Sample(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = l.At(x)
	}
	return out
}

// Lookup builds the clamped interpolant for the attenuation table.
func (t AttenuationTable) Lookup() (*Lookup, error) {
	return newLookup(t.Frequency, t.Alpha)
}

// Lookup builds the clamped interpolant for the Raman gain table.
func (t RamanGainTable) Lookup() (*Lookup, error) {
	return newLookup(t.FrequencyOffset, t.Efficiency)
}
