// Package spectrum assembles signal channels and Raman pump lasers into the
// parallel power/frequency/direction vectors the propagation solver works on.
//
// Slice order is significant: the solver partitions Raman gain and loss sums
// at each slice's index, so the concatenated list must be supplied in strictly
// increasing frequency. Indices are reused across every coefficient matrix
// and never resorted internally.
package spectrum

import (
	"errors"
	"fmt"
)

// Propagation directions.
const (
	Forward  = +1
	Backward = -1
)

var (
	// ErrEmptySpectrum indicates no channels and no pumps were supplied.
	ErrEmptySpectrum = errors.New("spectrum: no frequency slices")

	// ErrLengthMismatch indicates parallel vectors of different length.
	ErrLengthMismatch = errors.New("spectrum: parallel arrays differ in length")

	// ErrUnsortedFrequency indicates the concatenated slice list is not in
	// strictly increasing frequency order.
	ErrUnsortedFrequency = errors.New("spectrum: slices must be in strictly increasing frequency order")

	// ErrBadDirection indicates a propagation direction other than +1 or -1.
	ErrBadDirection = errors.New("spectrum: direction must be +1 or -1")

	// ErrNonPositive indicates a frequency or launch power <= 0.
	ErrNonPositive = errors.New("spectrum: frequency and power must be positive")
)

// Channel is one WDM signal carrier. Channels always propagate forward.
type Channel struct {
	Frequency float64 // Hz
	Power     float64 // W
}

// Pump is one Raman pump laser with a declared propagation direction.
type Pump struct {
	Frequency float64 // Hz
	Power     float64 // W
	Direction int
}

// Assembly is the merged frequency comb: one entry per slice, channels first,
// pumps after, in the exact order supplied by the caller.
type Assembly struct {
	Power     []float64
	Frequency []float64
	Direction []int
}

// Count returns the number of frequency slices.
func (a *Assembly) Count() int { return len(a.Frequency) }

// Build merges channels and pumps into a validated Assembly. Channels are
// assigned Forward direction; pumps keep their declared direction.
func Build(channels []Channel, pumps []Pump) (*Assembly, error) {
	n := len(channels) + len(pumps)
	if n == 0 {
		return nil, ErrEmptySpectrum
	}

	a := &Assembly{
		Power:     make([]float64, 0, n),
		Frequency: make([]float64, 0, n),
		Direction: make([]int, 0, n),
	}
	for _, c := range channels {
		a.Power = append(a.Power, c.Power)
		a.Frequency = append(a.Frequency, c.Frequency)
		a.Direction = append(a.Direction, Forward)
	}
	for _, p := range pumps {
		a.Power = append(a.Power, p.Power)
		a.Frequency = append(a.Frequency, p.Frequency)
		a.Direction = append(a.Direction, p.Direction)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// New wraps pre-assembled parallel vectors, failing fast on mismatched
// lengths or inconsistent content.
func New(power, frequency []float64, direction []int) (*Assembly, error) {
	if len(power) != len(frequency) || len(power) != len(direction) {
		return nil, fmt.Errorf("%w: power %d, frequency %d, direction %d",
			ErrLengthMismatch, len(power), len(frequency), len(direction))
	}
	a := &Assembly{Power: power, Frequency: frequency, Direction: direction}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks slice count, positivity, direction values and the strictly
// increasing frequency ordering required by the solver's index convention.
func (a *Assembly) Validate() error {
	if a.Count() == 0 {
		return ErrEmptySpectrum
	}
	if len(a.Power) != len(a.Frequency) || len(a.Power) != len(a.Direction) {
		return fmt.Errorf("%w: power %d, frequency %d, direction %d",
			ErrLengthMismatch, len(a.Power), len(a.Frequency), len(a.Direction))
	}
	for i := range a.Frequency {
		if a.Frequency[i] <= 0 || a.Power[i] <= 0 {
			return fmt.Errorf("%w: slice %d (f=%g Hz, p=%g W)",
				ErrNonPositive, i, a.Frequency[i], a.Power[i])
		}
		if a.Direction[i] != Forward && a.Direction[i] != Backward {
			return fmt.Errorf("%w: slice %d has %d", ErrBadDirection, i, a.Direction[i])
		}
		if i > 0 && a.Frequency[i] <= a.Frequency[i-1] {
			return fmt.Errorf("%w: slice %d (%g Hz) after %g Hz",
				ErrUnsortedFrequency, i, a.Frequency[i], a.Frequency[i-1])
		}
	}
	return nil
}
