package raman

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/optalix/ramansim/internal/fiber"
	"github.com/optalix/ramansim/internal/spectrum"
)

// coefficients holds the per-slice attenuation vector and the pairwise Raman
// coupling matrix, both interpolated onto the assembled frequency axis.
type coefficients struct {
	alpha []float64  // 1/m, per slice
	cr    *mat.Dense // 1/W/m, cr(i,j) at offset |f_i - f_j|
}

func buildCoefficients(p fiber.Params, freq []float64) (*coefficients, error) {
	al, err := p.Attenuation.Lookup()
	if err != nil {
		return nil, err
	}
	rl, err := p.RamanGain.Lookup()
	if err != nil {
		return nil, err
	}

	n := len(freq)
	cr := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cr.Set(i, j, rl.At(math.Abs(freq[i]-freq[j])))
		}
	}
	return &coefficients{alpha: al.Sample(freq), cr: cr}, nil
}

// srsSystem is the coupled stimulated-Raman-scattering power evolution:
//
//	dP_i/dz = dir_i * (-alpha_i + sum_{j>i} cr_ij*P_j - sum_{j<i} (f_i/f_j)*cr_ij*P_j) * P_i
//
// Slices are ordered by increasing frequency, so j>i are higher-frequency
// slices pumping energy down into i, and j<i are lower-frequency slices
// draining it, weighted by the photon-energy ratio f_i/f_j.
type srsSystem struct {
	freq   []float64
	dir    []int
	launch []float64
	coeff  *coefficients
}

func newSRSSystem(a *spectrum.Assembly, c *coefficients) *srsSystem {
	return &srsSystem{freq: a.Frequency, dir: a.Direction, launch: a.Power, coeff: c}
}

func (s *srsSystem) Dim() int { return len(s.freq) }

func (s *srsSystem) Coeff(dst []float64, k int, y [][]float64) {
	n := len(s.freq)
	for i := 0; i < n; i++ {
		crRow := s.coeff.cr.RawRowView(i)

		gain := 0.0
		for j := i + 1; j < n; j++ {
			gain += crRow[j] * y[j][k]
		}
		loss := 0.0
		for j := 0; j < i; j++ {
			loss += s.freq[i] / s.freq[j] * crRow[j] * y[j][k]
		}

		dst[i] = float64(s.dir[i]) * (-s.coeff.alpha[i] + gain - loss)
	}
}

func (s *srsSystem) Boundary(i int) (float64, bool) {
	return s.launch[i], s.dir[i] == spectrum.Forward
}

// Guess seeds each slice with pure exponential attenuation decaying away
// from its own launch boundary.
func (s *srsSystem) Guess(y [][]float64, z []float64) {
	length := z[len(z)-1]
	for i := range y {
		a := s.coeff.alpha[i]
		for k, zk := range z {
			d := zk
			if s.dir[i] == spectrum.Backward {
				d = length - zk
			}
			y[i][k] = s.launch[i] * math.Exp(-a*d)
		}
	}
}
