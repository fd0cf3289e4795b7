// Package bvp solves the two-point boundary-value problem arising from
// coupled power-evolution equations of the form
//
//	dy_i/dz = c_i(z; y) * y_i
//
// where each equation's value is pinned at one end of the interval. The
// driver iterates integrating-factor sweeps: every pass freezes the coupling
// inside c_i, propagates each equation exactly from its own boundary, and
// repeats until the profile stops changing within tolerance. The mesh can be
// refined between passes to control discretization error.
package bvp

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotConverged indicates the iteration budget was exhausted before the
// requested tolerance was reached.
var ErrNotConverged = errors.New("bvp: solve did not converge")

// ConvergenceError carries the iteration state at the point of failure.
type ConvergenceError struct {
	Stats Stats
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("bvp: no convergence after %d iterations (residual %.3e)",
		e.Stats.Iterations, e.Stats.Residual)
}

func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

// System describes the coupled boundary-value problem.
type System interface {
	// Dim is the number of coupled equations.
	Dim() int

	// Coeff fills dst (length Dim) with the logarithmic derivative
	// d ln y_i / dz at mesh index k, evaluated against the current profile
	// estimate y (one row per equation, one column per mesh point).
	// Propagation direction is folded into the sign of the coefficient.
	Coeff(dst []float64, k int, y [][]float64)

	// Boundary returns equation i's pinned value and which end holds it:
	// z=0 when forward is true, the far end otherwise.
	Boundary(i int) (value float64, forward bool)

	// Guess seeds y with a starting profile over mesh z.
	Guess(y [][]float64, z []float64)
}

// Config controls the precision/cost trade-off of a solve.
type Config struct {
	// Tolerance is the maximum relative profile change accepted as
	// converged, and the mesh-refinement acceptance threshold.
	Tolerance float64

	// MaxIterations bounds the relaxation sweeps per mesh. Zero selects
	// DefaultMaxIterations.
	MaxIterations int

	// MaxRefinements bounds how many times the mesh may be halved after
	// the initial grid converges. Zero disables refinement.
	MaxRefinements int

	// Damping in (0, 1] blends each sweep into the previous profile.
	// Zero selects full updates.
	Damping float64

	// Verbose >= 2 prints per-iteration residuals, >= 1 per-mesh summaries.
	Verbose int
}

const DefaultMaxIterations = 50

func (c Config) validate() (Config, error) {
	if c.Tolerance <= 0 {
		return c, fmt.Errorf("bvp: tolerance must be positive, got %g", c.Tolerance)
	}
	if c.MaxIterations < 0 {
		return c, fmt.Errorf("bvp: max iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Damping < 0 || c.Damping > 1 {
		return c, fmt.Errorf("bvp: damping must be in (0, 1], got %g", c.Damping)
	}
	if c.Damping == 0 {
		c.Damping = 1
	}
	return c, nil
}

// Stats counts the work performed by a solve.
type Stats struct {
	Iterations  int
	CoeffEvals  int
	Refinements int
	MeshPoints  int
	Residual    float64
}

// Solution is a converged profile over the final mesh.
type Solution struct {
	Z     []float64
	Y     [][]float64
	Stats Stats
}

// Solve runs the relaxation iteration over mesh z. On failure it returns a
// *ConvergenceError and no solution; a partially relaxed profile is never
// exposed.
func Solve(sys System, z []float64, cfg Config) (*Solution, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if len(z) < 2 {
		return nil, fmt.Errorf("bvp: mesh needs at least 2 points, got %d", len(z))
	}
	for k := 1; k < len(z); k++ {
		if z[k] <= z[k-1] {
			return nil, fmt.Errorf("bvp: mesh must be strictly increasing at index %d", k)
		}
	}

	n := sys.Dim()
	y := allocProfile(n, len(z))
	sys.Guess(y, z)

	var stats Stats
	if err := relax(sys, z, y, cfg, &stats); err != nil {
		return nil, err
	}

	for r := 0; r < cfg.MaxRefinements; r++ {
		zf := Refine(z)
		yf := interpolateProfile(y, len(zf))
		if err := relax(sys, zf, yf, cfg, &stats); err != nil {
			return nil, err
		}
		stats.Refinements++

		diff := sharedPointDiff(y, yf)
		if cfg.Verbose >= 1 {
			fmt.Printf("bvp: refinement %d: %d mesh points, inter-mesh diff %.3e\n",
				stats.Refinements, len(zf), diff)
		}
		z, y = zf, yf
		if diff <= cfg.Tolerance {
			break
		}
	}

	stats.MeshPoints = len(z)
	return &Solution{Z: z, Y: y, Stats: stats}, nil
}

// relax sweeps the integrating-factor update over y until the relative
// profile change drops below tolerance.
func relax(sys System, z []float64, y [][]float64, cfg Config, stats *Stats) error {
	n, m := sys.Dim(), len(z)
	g := allocProfile(n, m)
	acc := make([]float64, m)
	col := make([]float64, n)

	for it := 0; it < cfg.MaxIterations; it++ {
		for k := 0; k < m; k++ {
			sys.Coeff(col, k, y)
			for i := 0; i < n; i++ {
				g[i][k] = col[i]
			}
		}
		stats.CoeffEvals += m

		res := 0.0
		for i := 0; i < n; i++ {
			CumTrapz(z, g[i], acc)
			value, forward := sys.Boundary(i)
			tail := acc[m-1]
			row := y[i]
			for k := 0; k < m; k++ {
				var next float64
				if forward {
					next = value * math.Exp(acc[k])
				} else {
					next = value * math.Exp(acc[k]-tail)
				}
				next = row[k] + cfg.Damping*(next-row[k])

				scale := math.Abs(row[k])
				if scale < 1e-300 {
					scale = 1e-300
				}
				if d := math.Abs(next-row[k]) / scale; d > res {
					res = d
				}
				row[k] = next
			}
		}

		stats.Iterations++
		stats.Residual = res
		if cfg.Verbose >= 2 {
			fmt.Printf("bvp: iteration %d: residual %.3e\n", stats.Iterations, res)
		}
		if res <= cfg.Tolerance {
			return nil
		}
	}

	return &ConvergenceError{Stats: *stats}
}

func allocProfile(n, m int) [][]float64 {
	backing := make([]float64, n*m)
	y := make([][]float64, n)
	for i := range y {
		y[i] = backing[i*m : (i+1)*m]
	}
	return y
}

// interpolateProfile maps each row of y onto a mesh with midpoints inserted,
// seeding the refined solve from the coarse solution.
func interpolateProfile(y [][]float64, m int) [][]float64 {
	out := allocProfile(len(y), m)
	for i, row := range y {
		fine := out[i]
		for k := 0; k < len(row)-1; k++ {
			fine[2*k] = row[k]
			fine[2*k+1] = 0.5 * (row[k] + row[k+1])
		}
		fine[m-1] = row[len(row)-1]
	}
	return out
}

// sharedPointDiff is the maximum relative difference between the coarse
// profile and the refined profile at the mesh points they share.
func sharedPointDiff(coarse, fine [][]float64) float64 {
	max := 0.0
	for i, row := range coarse {
		for k, v := range row {
			scale := math.Abs(v)
			if scale < 1e-300 {
				scale = 1e-300
			}
			if d := math.Abs(fine[i][2*k]-v) / scale; d > max {
				max = d
			}
		}
	}
	return max
}
