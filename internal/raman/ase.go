package raman

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/optalix/ramansim/internal/bvp"
	"github.com/optalix/ramansim/internal/consts"
)

// ASE returns the spontaneous-emission power accumulated along the fiber,
// derived from the converged Raman profile and memoized with it. For each
// slice only higher-frequency slices act as sources; the linear buildup ODE
// is solved in closed form with an integrating factor.
func (s *Solver) ASE() (*AseProfile, error) {
	if s.ase != nil {
		return s.ase, nil
	}

	prof, err := s.Profile()
	if err != nil {
		return nil, err
	}
	coeff, err := buildCoefficients(s.fiber, prof.Frequency)
	if err != nil {
		return nil, err
	}

	if s.cfg.Verbose >= 1 {
		fmt.Println("raman: computing fiber ASE profile")
	}

	n, m := len(prof.Frequency), len(prof.Z)

	// Cumulative integral of every slice's power, shared by all rows.
	intPump := make([][]float64, n)
	for j := 0; j < n; j++ {
		intPump[j] = make([]float64, m)
		bvp.CumTrapz(prof.Z, prof.Power.RawRowView(j), intPump[j])
	}

	ase := mat.NewDense(n, m, nil)

	// Rows are independent given the solved profile.
	var wg sync.WaitGroup
	for f := 0; f < n; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			s.aseRow(ase.RawRowView(f), f, prof, coeff, intPump)
		}(f)
	}
	wg.Wait()

	s.ase = &AseProfile{Z: prof.Z, Frequency: prof.Frequency, Power: ase}
	return s.ase, nil
}

// aseRow fills one slice's noise buildup. The integrating-factor exponent A
// can reach large magnitudes over long spans, so the quadrature is evaluated
// through the recurrence
//
//	P_k = P_{k-1}*exp(A_k - A_{k-1}) + dz/2*(B_{k-1}*exp(A_k - A_{k-1}) + B_k)
//
// which only ever exponentiates differences between adjacent mesh points.
func (s *Solver) aseRow(row []float64, f int, prof *Profile, coeff *coefficients, intPump [][]float64) {
	n, m := len(prof.Frequency), len(prof.Z)
	freq := prof.Frequency
	crRow := coeff.cr.RawRowView(f)

	// Exponent A(z): attenuation plus the integrated Raman terms.
	intA := make([]float64, m)
	copy(intA, prof.Z)
	floats.Scale(-coeff.alpha[f], intA)
	for j := 0; j < f; j++ {
		floats.AddScaled(intA, freq[f]/freq[j]*crRow[j], intPump[j])
	}
	for j := f + 1; j < n; j++ {
		floats.AddScaled(intA, crRow[j], intPump[j])
	}

	// Source term B(z): spontaneous emission seeded by every
	// higher-frequency slice, with its thermal phonon occupancy.
	b := make([]float64, m)
	for j := f + 1; j < n; j++ {
		eta := 1 / math.Expm1(consts.Planck*(freq[j]-freq[f])/(consts.Boltzmann*consts.RefTemperature))
		floats.AddScaled(b, crRow[j]*(1+eta), prof.Power.RawRowView(j))
	}
	floats.Scale(consts.Planck*freq[f]*consts.NoiseBandwidth, b)

	row[0] = 0
	for k := 1; k < m; k++ {
		e := math.Exp(intA[k] - intA[k-1])
		dz := prof.Z[k] - prof.Z[k-1]
		row[k] = row[k-1]*e + 0.5*dz*(b[k-1]*e+b[k])
	}
}
