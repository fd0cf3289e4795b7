package config

// ssmfRamanGain is a coarse SSMF Raman gain efficiency shape: roughly
// triangular, peaking near the 13.2 THz Stokes shift.
var ssmfRamanGain = Samples{
	Frequency: []float64{0, 2e12, 5e12, 9e12, 12e12, 13.2e12, 14.5e12, 16e12, 18e12, 20e12},
	Value:     []float64{0, 0.4e-4, 1.2e-4, 2.3e-4, 3.5e-4, 4.0e-4, 3.2e-4, 1.1e-4, 0.4e-4, 0.1e-4},
}

// Presets are ready-made scenarios keyed by name.
var Presets = map[string]*Config{
	"passive-100km": Default(),

	"ssmf-counter-pumped": {
		Fiber: FiberConfig{
			Length: 100e3,
			Attenuation: Samples{
				Frequency: []float64{193.5e12},
				Value:     []float64{0.046e-3},
			},
			RamanGain: ssmfRamanGain,
		},
		Comb: CombConfig{
			Channels:       91,
			StartFrequency: 191.0e12,
			Spacing:        50e9,
			Power:          1e-3,
		},
		Pumps: []PumpConfig{
			{Frequency: 200.2670e12, Power: 150e-3, Direction: -1},
			{Frequency: 201.6129e12, Power: 250e-3, Direction: -1},
			{Frequency: 207.1823e12, Power: 150e-3, Direction: -1},
			{Frequency: 208.6231e12, Power: 250e-3, Direction: -1},
			{Frequency: 210.0840e12, Power: 200e-3, Direction: -1},
		},
		Solver: SolverConfig{
			ZResolution:   1e3,
			Tolerance:     1e-8,
			MaxIterations: 200,
		},
	},

	"ssmf-copumped-short": {
		Fiber: FiberConfig{
			Length: 40e3,
			Attenuation: Samples{
				Frequency: []float64{193.5e12},
				Value:     []float64{0.046e-3},
			},
			RamanGain: ssmfRamanGain,
		},
		Comb: CombConfig{
			Channels:       40,
			StartFrequency: 191.0e12,
			Spacing:        100e9,
			Power:          0.5e-3,
		},
		Pumps: []PumpConfig{
			{Frequency: 206.5e12, Power: 200e-3, Direction: +1},
		},
		Solver: SolverConfig{
			ZResolution:   500,
			Tolerance:     1e-8,
			MaxIterations: 200,
		},
	},
}
