package consts

const (
	Planck    = 6.62607015e-34 // Planck constant (J s)
	Boltzmann = 1.380649e-23   // Boltzmann constant (J/K)

	// RefTemperature is the fiber temperature assumed for the phonon
	// occupancy factor in spontaneous Raman scattering (K).
	RefTemperature = 298.0

	// NoiseBandwidth is the noise-equivalent bandwidth used when
	// accumulating ASE power (Hz).
	NoiseBandwidth = 32e9
)
