package raman

import (
	"errors"
	"math"
	"testing"

	"github.com/optalix/ramansim/internal/bvp"
	"github.com/optalix/ramansim/internal/fiber"
	"github.com/optalix/ramansim/internal/spectrum"
)

func scalarFiber(length, alpha, cr float64) fiber.Params {
	return fiber.Params{
		Length:      length,
		Attenuation: fiber.AttenuationTable{Frequency: []float64{193.5e12}, Alpha: []float64{alpha}},
		RamanGain:   fiber.RamanGainTable{FrequencyOffset: []float64{6e12}, Efficiency: []float64{cr}},
	}
}

func defaultConfig() Config {
	return Config{ZResolution: 1e3, Tolerance: 1e-8}
}

func mustBuild(t *testing.T, channels []spectrum.Channel, pumps []spectrum.Pump) *spectrum.Assembly {
	t.Helper()
	a, err := spectrum.Build(channels, pumps)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestSingleForwardSliceMatchesAttenuation(t *testing.T) {
	// 100 km span, flat attenuation, no Raman coupling: the solution is
	// pure exponential decay.
	const (
		length = 100e3
		alpha  = 0.046e-3
		p0     = 1e-3
	)
	a := mustBuild(t, []spectrum.Channel{{Frequency: 193.5e12, Power: p0}}, nil)

	s, err := New(scalarFiber(length, alpha, 0), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	prof, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}

	m := len(prof.Z)
	want := p0 * math.Exp(-alpha*length)
	got := prof.Power.At(0, m-1)
	if math.Abs(got-want)/want > 0.01 {
		t.Errorf("output power %g, want %g within 1%%", got, want)
	}
	for k, zk := range prof.Z {
		w := p0 * math.Exp(-alpha*zk)
		if math.Abs(prof.Power.At(0, k)-w)/w > 1e-6 {
			t.Fatalf("z=%g: power %g, want %g", zk, prof.Power.At(0, k), w)
		}
	}
}

func TestSingleBackwardSliceMatchesAttenuation(t *testing.T) {
	const (
		length = 80e3
		alpha  = 0.057e-3
		p0     = 250e-3
	)
	a := mustBuild(t, nil, []spectrum.Pump{
		{Frequency: 205e12, Power: p0, Direction: spectrum.Backward},
	})

	s, err := New(scalarFiber(length, alpha, 0), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	prof, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}

	for k, zk := range prof.Z {
		w := p0 * math.Exp(-alpha*(length-zk))
		if math.Abs(prof.Power.At(0, k)-w)/w > 1e-6 {
			t.Fatalf("z=%g: power %g, want %g", zk, prof.Power.At(0, k), w)
		}
	}
}

func TestRhoIsOneAtLaunchBoundary(t *testing.T) {
	a := mustBuild(t,
		[]spectrum.Channel{
			{Frequency: 191e12, Power: 1e-3},
			{Frequency: 193e12, Power: 1e-3},
		},
		[]spectrum.Pump{
			{Frequency: 205e12, Power: 150e-3, Direction: spectrum.Backward},
		})

	s, err := New(scalarFiber(100e3, 0.05e-3, 4e-4), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	prof, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}

	m := len(prof.Z)
	for i, dir := range []int{spectrum.Forward, spectrum.Forward, spectrum.Backward} {
		k := 0
		if dir == spectrum.Backward {
			k = m - 1
		}
		if r := prof.Rho.At(i, k); math.Abs(r-1) > 1e-9 {
			t.Errorf("slice %d: rho at launch = %g, want 1", i, r)
		}
	}
}

func TestCounterPumpAmplifies(t *testing.T) {
	length := 100e3
	alpha := 0.05e-3
	ch := []spectrum.Channel{{Frequency: 193e12, Power: 1e-3}}

	passive, err := New(scalarFiber(length, alpha, 0), mustBuild(t, ch, nil), defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	passiveProf, err := passive.Profile()
	if err != nil {
		t.Fatal(err)
	}

	pumped, err := New(scalarFiber(length, alpha, 4e-4),
		mustBuild(t, ch, []spectrum.Pump{
			{Frequency: 206e12, Power: 150e-3, Direction: spectrum.Backward},
		}), defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	pumpedProf, err := pumped.Profile()
	if err != nil {
		t.Fatal(err)
	}

	pOut := passiveProf.Power.At(0, len(passiveProf.Z)-1)
	gOut := pumpedProf.Power.At(0, len(pumpedProf.Z)-1)
	if gOut <= pOut {
		t.Errorf("counter pump produced no on-off gain: passive %g W, pumped %g W", pOut, gOut)
	}
}

func TestEnergyTransferBalance(t *testing.T) {
	// Zero attenuation, two forward slices: the higher-frequency slice
	// drains into the lower one, weighted by the photon-energy ratio.
	f0, f1 := 191e12, 196e12
	a := mustBuild(t, []spectrum.Channel{
		{Frequency: f0, Power: 1e-3},
		{Frequency: f1, Power: 1e-3},
	}, nil)

	s, err := New(scalarFiber(50e3, 0, 5e-4), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	prof, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}

	m := len(prof.Z)
	prev := math.Inf(1)
	for k := 0; k < m; k++ {
		total := prof.Power.At(0, k) + prof.Power.At(1, k)
		if total > prev+1e-15 {
			t.Fatalf("total forward power increased at z=%g: %g > %g", prof.Z[k], total, prev)
		}
		prev = total
	}

	gained := prof.Power.At(0, m-1) - prof.Power.At(0, 0)
	lost := prof.Power.At(1, 0) - prof.Power.At(1, m-1)
	if gained <= 0 || lost <= 0 {
		t.Fatalf("no energy transfer: gained %g, lost %g", gained, lost)
	}
	if ratio := f1 / f0; math.Abs(lost-ratio*gained)/lost > 1e-2 {
		t.Errorf("transfer imbalance: lost %g, want %g", lost, ratio*gained)
	}
}

func TestScalarFallbackEquivalence(t *testing.T) {
	a := mustBuild(t,
		[]spectrum.Channel{{Frequency: 191e12, Power: 1e-3}},
		[]spectrum.Pump{{Frequency: 205e12, Power: 100e-3, Direction: spectrum.Backward}})

	scalar, err := New(scalarFiber(60e3, 0.05e-3, 3e-4), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Uniform multi-sample tables carrying the same values.
	uniform := fiber.Params{
		Length: 60e3,
		Attenuation: fiber.AttenuationTable{
			Frequency: []float64{180e12, 200e12, 220e12},
			Alpha:     []float64{0.05e-3, 0.05e-3, 0.05e-3},
		},
		RamanGain: fiber.RamanGainTable{
			FrequencyOffset: []float64{0, 10e12, 20e12},
			Efficiency:      []float64{3e-4, 3e-4, 3e-4},
		},
	}
	broad, err := New(uniform, a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	ps, err := scalar.Profile()
	if err != nil {
		t.Fatal(err)
	}
	pb, err := broad.Profile()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < a.Count(); i++ {
		for k := range ps.Z {
			d := math.Abs(ps.Power.At(i, k) - pb.Power.At(i, k))
			if d > 1e-12*ps.Power.At(i, k) {
				t.Fatalf("slice %d z index %d: scalar %g vs uniform %g",
					i, k, ps.Power.At(i, k), pb.Power.At(i, k))
			}
		}
	}
}

func TestProfileMemoized(t *testing.T) {
	a := mustBuild(t, []spectrum.Channel{{Frequency: 193e12, Power: 1e-3}}, nil)
	s, err := New(scalarFiber(50e3, 0.05e-3, 0), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	inner := s.solveBVP
	s.solveBVP = func(sys bvp.System, z []float64, cfg bvp.Config) (*bvp.Solution, error) {
		calls++
		return inner(sys, z, cfg)
	}

	p1, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Errorf("expected 1 solve, got %d", calls)
	}
	if p1 != p2 {
		t.Error("expected cached profile instance")
	}
}

func TestMutationInvalidatesCache(t *testing.T) {
	a := mustBuild(t, []spectrum.Channel{{Frequency: 193e12, Power: 1e-3}}, nil)
	s, err := New(scalarFiber(50e3, 0.05e-3, 0), a, defaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	inner := s.solveBVP
	s.solveBVP = func(sys bvp.System, z []float64, cfg bvp.Config) (*bvp.Solution, error) {
		calls++
		return inner(sys, z, cfg)
	}

	p1, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}
	ase1, err := s.ASE()
	if err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig()
	cfg.ZResolution = 500
	if err := s.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}

	p2, err := s.Profile()
	if err != nil {
		t.Fatal(err)
	}
	ase2, err := s.ASE()
	if err != nil {
		t.Fatal(err)
	}

	if calls != 2 {
		t.Errorf("expected recompute after config change, got %d solves", calls)
	}
	if p1 == p2 {
		t.Error("profile cache not invalidated")
	}
	if ase1 == ase2 {
		t.Error("ASE cache not invalidated with the profile")
	}
	if len(p2.Z) <= len(p1.Z) {
		t.Errorf("finer resolution produced no finer mesh: %d vs %d", len(p2.Z), len(p1.Z))
	}
}

func TestConvergenceFailureSurfaces(t *testing.T) {
	a := mustBuild(t,
		[]spectrum.Channel{{Frequency: 191e12, Power: 1e-3}},
		[]spectrum.Pump{{Frequency: 205e12, Power: 300e-3, Direction: spectrum.Backward}})

	cfg := defaultConfig()
	cfg.Tolerance = 1e-14
	cfg.MaxIterations = 1
	s, err := New(scalarFiber(100e3, 0.05e-3, 4e-4), a, cfg)
	if err != nil {
		t.Fatal(err)
	}

	prof, err := s.Profile()
	if err == nil {
		t.Fatal("expected convergence failure")
	}
	if !errors.Is(err, bvp.ErrNotConverged) {
		t.Errorf("expected ErrNotConverged, got %v", err)
	}
	if prof != nil {
		t.Error("failed solve must not return a partial profile")
	}
	if _, err := s.ASE(); err == nil {
		t.Error("ASE from unconverged profile must fail")
	}
}

func TestConfigValidation(t *testing.T) {
	a := mustBuild(t, []spectrum.Channel{{Frequency: 193e12, Power: 1e-3}}, nil)

	if _, err := New(scalarFiber(50e3, 0.05e-3, 0), a, Config{Tolerance: 1e-8}); err == nil {
		t.Error("expected error for zero z resolution")
	}
	if _, err := New(scalarFiber(50e3, 0.05e-3, 0), a, Config{ZResolution: 1e3}); err == nil {
		t.Error("expected error for zero tolerance")
	}
	if _, err := New(scalarFiber(-1, 0.05e-3, 0), a, defaultConfig()); err == nil {
		t.Error("expected error for invalid fiber")
	}
	if _, err := New(scalarFiber(50e3, 0.05e-3, 0), nil, defaultConfig()); err == nil {
		t.Error("expected error for nil assembly")
	}
}
