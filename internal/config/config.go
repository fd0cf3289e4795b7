// Package config describes a complete solver scenario in YAML: the fiber,
// the WDM comb, the Raman pump ensemble, and the numerical settings. It also
// loads Raman gain efficiency tables from two-column CSV files.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/optalix/ramansim/internal/fiber"
	"github.com/optalix/ramansim/internal/raman"
	"github.com/optalix/ramansim/internal/spectrum"
)

const (
	DefaultZResolution  = 1e3      // m
	DefaultTolerance    = 1e-8
	DefaultLength       = 100e3    // m
	DefaultAlpha        = 0.046e-3 // 1/m
	DefaultChannelPower = 1e-3     // W
	DefaultChannelCount = 91
	DefaultStartFreq    = 191.0e12 // Hz
	DefaultSpacing      = 50e9     // Hz
)

type Config struct {
	Fiber  FiberConfig  `yaml:"fiber"`
	Comb   CombConfig   `yaml:"comb"`
	Pumps  []PumpConfig `yaml:"pumps"`
	Solver SolverConfig `yaml:"solver"`
}

type FiberConfig struct {
	Length      float64 `yaml:"length"` // m
	Attenuation Samples `yaml:"attenuation"`
	// RamanGain samples the gain efficiency over frequency offset; if
	// RamanGainFile is set it is loaded from CSV instead.
	RamanGain     Samples `yaml:"raman_gain"`
	RamanGainFile string  `yaml:"raman_gain_file"`
}

// Samples is a sparse coefficient table: parallel axis/value arrays.
type Samples struct {
	Frequency []float64 `yaml:"frequency"` // Hz
	Value     []float64 `yaml:"value"`
}

type CombConfig struct {
	Channels       int     `yaml:"channels"`
	StartFrequency float64 `yaml:"start_frequency"` // Hz
	Spacing        float64 `yaml:"spacing"`         // Hz
	Power          float64 `yaml:"power"`           // W per channel
}

type PumpConfig struct {
	Frequency float64 `yaml:"frequency"` // Hz
	Power     float64 `yaml:"power"`     // W
	Direction int     `yaml:"direction"` // +1 forward, -1 backward
}

type SolverConfig struct {
	ZResolution    float64 `yaml:"z_resolution"` // m
	Tolerance      float64 `yaml:"tolerance"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxRefinements int     `yaml:"max_refinements"`
	Verbose        int     `yaml:"verbose"`
}

// Default is a passive 100 km SSMF span with a full C-band comb.
func Default() *Config {
	return &Config{
		Fiber: FiberConfig{
			Length: DefaultLength,
			Attenuation: Samples{
				Frequency: []float64{193.5e12},
				Value:     []float64{DefaultAlpha},
			},
			RamanGain: Samples{
				Frequency: []float64{0},
				Value:     []float64{0},
			},
		},
		Comb: CombConfig{
			Channels:       DefaultChannelCount,
			StartFrequency: DefaultStartFreq,
			Spacing:        DefaultSpacing,
			Power:          DefaultChannelPower,
		},
		Solver: SolverConfig{
			ZResolution: DefaultZResolution,
			Tolerance:   DefaultTolerance,
		},
	}
}

// Clone returns an independent copy, so callers can override fields without
// mutating shared preset state.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Fiber.Attenuation = c.Fiber.Attenuation.clone()
	cp.Fiber.RamanGain = c.Fiber.RamanGain.clone()
	cp.Pumps = append([]PumpConfig(nil), c.Pumps...)
	return &cp
}

func (s Samples) clone() Samples {
	return Samples{
		Frequency: append([]float64(nil), s.Frequency...),
		Value:     append([]float64(nil), s.Value...),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadRamanGainCSV reads a two-column (frequency offset, efficiency) table
// with a header row.
func LoadRamanGainCSV(path string) (Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return Samples{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return Samples{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if len(rows) < 2 {
		return Samples{}, fmt.Errorf("config: %s has no data rows", path)
	}

	var s Samples
	for i, row := range rows[1:] { // skip header
		if len(row) < 2 {
			return Samples{}, fmt.Errorf("config: %s row %d: want 2 columns, got %d", path, i+2, len(row))
		}
		freq, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return Samples{}, fmt.Errorf("config: %s row %d: %w", path, i+2, err)
		}
		val, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return Samples{}, fmt.Errorf("config: %s row %d: %w", path, i+2, err)
		}
		s.Frequency = append(s.Frequency, freq)
		s.Value = append(s.Value, val)
	}
	return s, nil
}

// FiberParams resolves the fiber section, loading the CSV gain table when
// one is referenced.
func (c *Config) FiberParams() (fiber.Params, error) {
	gain := c.Fiber.RamanGain
	if c.Fiber.RamanGainFile != "" {
		loaded, err := LoadRamanGainCSV(c.Fiber.RamanGainFile)
		if err != nil {
			return fiber.Params{}, err
		}
		gain = loaded
	}

	p := fiber.Params{
		Length: c.Fiber.Length,
		Attenuation: fiber.AttenuationTable{
			Frequency: c.Fiber.Attenuation.Frequency,
			Alpha:     c.Fiber.Attenuation.Value,
		},
		RamanGain: fiber.RamanGainTable{
			FrequencyOffset: gain.Frequency,
			Efficiency:      gain.Value,
		},
	}
	return p, p.Validate()
}

// Assembly expands the comb and pump sections into the solver's slice list.
func (c *Config) Assembly() (*spectrum.Assembly, error) {
	channels := make([]spectrum.Channel, c.Comb.Channels)
	for i := range channels {
		channels[i] = spectrum.Channel{
			Frequency: c.Comb.StartFrequency + float64(i)*c.Comb.Spacing,
			Power:     c.Comb.Power,
		}
	}
	pumps := make([]spectrum.Pump, len(c.Pumps))
	for i, p := range c.Pumps {
		pumps[i] = spectrum.Pump{Frequency: p.Frequency, Power: p.Power, Direction: p.Direction}
	}
	return spectrum.Build(channels, pumps)
}

// SolverSettings maps the solver section onto the solver configuration.
func (c *Config) SolverSettings() raman.Config {
	return raman.Config{
		ZResolution:    c.Solver.ZResolution,
		Tolerance:      c.Solver.Tolerance,
		MaxIterations:  c.Solver.MaxIterations,
		MaxRefinements: c.Solver.MaxRefinements,
		Verbose:        c.Solver.Verbose,
	}
}
