package bvp

import (
	"fmt"
	"math"
)

// Mesh builds a uniform z grid from 0 to length with spacing at most
// resolution. The final point lands exactly on length.
func Mesh(length, resolution float64) ([]float64, error) {
	if length <= 0 {
		return nil, fmt.Errorf("bvp: mesh length must be positive, got %g", length)
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("bvp: mesh resolution must be positive, got %g", resolution)
	}

	steps := int(math.Ceil(length / resolution))
	if steps < 1 {
		steps = 1
	}
	h := length / float64(steps)

	z := make([]float64, steps+1)
	for k := 1; k < steps; k++ {
		z[k] = float64(k) * h
	}
	z[steps] = length
	return z, nil
}

// Refine halves the spacing of a uniform mesh, keeping both endpoints.
func Refine(z []float64) []float64 {
	out := make([]float64, 0, 2*len(z)-1)
	for k := 0; k < len(z)-1; k++ {
		out = append(out, z[k], 0.5*(z[k]+z[k+1]))
	}
	return append(out, z[len(z)-1])
}

// CumTrapz computes the cumulative trapezoidal integral of y over x into dst.
// dst[0] is 0; dst may alias y. It panics on mismatched lengths, matching the
// contract of the gonum quadrature helpers.
func CumTrapz(x, y, dst []float64) []float64 {
	if len(x) != len(y) || len(dst) != len(y) {
		panic("bvp: cumtrapz length mismatch")
	}
	acc := 0.0
	prevX, prevY := x[0], y[0]
	dst[0] = 0
	for k := 1; k < len(x); k++ {
		acc += 0.5 * (x[k] - prevX) * (y[k] + prevY)
		prevX, prevY = x[k], y[k]
		dst[k] = acc
	}
	return dst
}
