package main

import (
	"testing"

	"github.com/optalix/ramansim/internal/config"
)

func TestLoadScenarioCopiesPreset(t *testing.T) {
	presetName = "ssmf-counter-pumped"
	configFile = ""
	defer func() { presetName = "" }()

	name, cfg, err := loadScenario()
	if err != nil {
		t.Fatal(err)
	}
	if name != "ssmf-counter-pumped" {
		t.Errorf("scenario name %q", name)
	}

	orig := config.Presets["ssmf-counter-pumped"]
	if cfg == orig {
		t.Fatal("loadScenario returned the shared preset pointer")
	}

	cfg.Solver.Verbose = 2
	cfg.Pumps[0].Power = 999
	if orig.Solver.Verbose != 0 {
		t.Error("verbose override leaked into the preset table")
	}
	if orig.Pumps[0].Power == 999 {
		t.Error("pump override leaked into the preset table")
	}
}

func TestLoadScenarioUnknownPreset(t *testing.T) {
	presetName = "no-such-preset"
	configFile = ""
	defer func() { presetName = "" }()

	if _, _, err := loadScenario(); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestFormatDbm(t *testing.T) {
	tests := []struct {
		power float64
		want  string
	}{
		{1e-3, "0.00"},
		{1e-6, "-30.00"},
		{0, "-"},
		{-1e-9, "-"},
	}
	for _, tt := range tests {
		if got := formatDbm(tt.power); got != tt.want {
			t.Errorf("formatDbm(%g) = %q, want %q", tt.power, got, tt.want)
		}
	}
}
