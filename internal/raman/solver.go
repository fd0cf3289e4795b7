// Package raman solves signal and pump power propagation along a fiber under
// stimulated Raman scattering, and derives the spontaneous-emission noise
// that the Raman gain process accumulates on every frequency slice.
//
// The propagation problem is a two-point boundary-value problem: forward
// slices pin their power at z=0, backward (counter-propagating pump) slices
// at z=L. Solver memoizes the converged profile; any input mutation drops
// both the Raman and the derived ASE cache so stale results are never
// returned.
package raman

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/optalix/ramansim/internal/bvp"
	"github.com/optalix/ramansim/internal/fiber"
	"github.com/optalix/ramansim/internal/spectrum"
)

// ErrMissingInput indicates a solve was requested before fiber, spectrum and
// solver configuration were all supplied.
var ErrMissingInput = errors.New("raman: solver inputs incomplete")

// Config controls the boundary-value solve.
type Config struct {
	ZResolution    float64 // initial mesh spacing (m)
	Tolerance      float64 // convergence tolerance
	MaxIterations  int     // relaxation sweeps per mesh, 0 = solver default
	MaxRefinements int     // mesh halvings after initial convergence
	Verbose        int
}

func (c Config) validate() error {
	if c.ZResolution <= 0 {
		return fmt.Errorf("raman: z resolution must be positive, got %g", c.ZResolution)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("raman: tolerance must be positive, got %g", c.Tolerance)
	}
	return nil
}

func (c Config) bvp() bvp.Config {
	return bvp.Config{
		Tolerance:      c.Tolerance,
		MaxIterations:  c.MaxIterations,
		MaxRefinements: c.MaxRefinements,
		Verbose:        c.Verbose,
	}
}

// Profile is the converged power solution over the final mesh. Rows follow
// the assembled frequency axis, columns the z grid. Rho is the field-gain
// ratio sqrt(P(z,f)/P_launch(f)); it equals 1 at each slice's own launch
// boundary.
type Profile struct {
	Z         []float64
	Frequency []float64
	Power     *mat.Dense
	Rho       *mat.Dense
	Stats     bvp.Stats
}

// AseProfile is the accumulated spontaneous-emission power on the same grid
// as the Raman profile. Power(f, 0) is zero for every slice.
type AseProfile struct {
	Z         []float64
	Frequency []float64
	Power     *mat.Dense
}

// Solver owns the propagation inputs and the lazily computed profiles.
type Solver struct {
	fiber    fiber.Params
	assembly *spectrum.Assembly
	cfg      Config

	profile *Profile
	ase     *AseProfile

	// solveBVP is the boundary-value routine; replaceable in tests.
	solveBVP func(bvp.System, []float64, bvp.Config) (*bvp.Solution, error)
}

// New builds a solver from validated inputs.
func New(p fiber.Params, a *spectrum.Assembly, cfg Config) (*Solver, error) {
	s := &Solver{solveBVP: bvp.Solve}
	if err := s.SetFiber(p); err != nil {
		return nil, err
	}
	if err := s.SetSpectrum(a); err != nil {
		return nil, err
	}
	if err := s.SetConfig(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// SetFiber replaces the fiber description and drops cached profiles.
func (s *Solver) SetFiber(p fiber.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.fiber = p
	s.invalidate()
	return nil
}

// SetSpectrum replaces the slice assembly and drops cached profiles.
func (s *Solver) SetSpectrum(a *spectrum.Assembly) error {
	if a == nil {
		return fmt.Errorf("%w: nil spectrum assembly", ErrMissingInput)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	s.assembly = a
	s.invalidate()
	return nil
}

// SetConfig replaces the solver configuration and drops cached profiles.
func (s *Solver) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.invalidate()
	return nil
}

func (s *Solver) invalidate() {
	s.profile = nil
	s.ase = nil
}

// Profile returns the converged Raman power/rho profile, solving on first
// call and memoizing until an input changes. A failed solve caches nothing
// and returns no partial profile.
func (s *Solver) Profile() (*Profile, error) {
	if s.profile != nil {
		return s.profile, nil
	}
	if s.assembly == nil {
		return nil, fmt.Errorf("%w: spectrum not set", ErrMissingInput)
	}

	if s.cfg.Verbose >= 1 {
		fmt.Println("raman: computing fiber power profile")
	}

	coeff, err := buildCoefficients(s.fiber, s.assembly.Frequency)
	if err != nil {
		return nil, err
	}
	z, err := bvp.Mesh(s.fiber.Length, s.cfg.ZResolution)
	if err != nil {
		return nil, err
	}

	sol, err := s.solveBVP(newSRSSystem(s.assembly, coeff), z, s.cfg.bvp())
	if err != nil {
		return nil, fmt.Errorf("raman: power profile solve: %w", err)
	}

	n, m := s.assembly.Count(), len(sol.Z)
	power := mat.NewDense(n, m, nil)
	rho := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		power.SetRow(i, sol.Y[i])
		launch := s.assembly.Power[i]
		rhoRow := rho.RawRowView(i)
		for k, p := range sol.Y[i] {
			rhoRow[k] = math.Sqrt(p / launch)
		}
	}

	s.profile = &Profile{
		Z:         sol.Z,
		Frequency: s.assembly.Frequency,
		Power:     power,
		Rho:       rho,
		Stats:     sol.Stats,
	}
	return s.profile, nil
}
