// Package export persists solved profiles as a run directory: metadata.json
// describing the scenario and solve statistics, plus one CSV per profile
// (power, rho, ASE) with the z grid in the first column and one column per
// frequency slice.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/optalix/ramansim/internal/raman"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string    `json:"id"`
	Scenario    string    `json:"scenario"`
	Timestamp   time.Time `json:"timestamp"`
	FiberLength float64   `json:"fiber_length_m"`
	Slices      int       `json:"slices"`
	MeshPoints  int       `json:"mesh_points"`
	Iterations  int       `json:"iterations"`
	Refinements int       `json:"refinements"`
	Residual    float64   `json:"residual"`
	HasASE      bool      `json:"has_ase"`
}

// Save writes one run directory. ase may be nil when only the Raman profile
// was computed.
func (s *Store) Save(scenario string, prof *raman.Profile, ase *raman.AseProfile) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    scenario,
		Timestamp:   time.Now(),
		FiberLength: prof.Z[len(prof.Z)-1],
		Slices:      len(prof.Frequency),
		MeshPoints:  len(prof.Z),
		Iterations:  prof.Stats.Iterations,
		Refinements: prof.Stats.Refinements,
		Residual:    prof.Stats.Residual,
		HasASE:      ase != nil,
	}
	if err := writeMetadata(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	if err := writeProfileCSV(filepath.Join(runDir, "power.csv"), prof.Z, prof.Frequency, prof.Power); err != nil {
		return "", err
	}
	if err := writeProfileCSV(filepath.Join(runDir, "rho.csv"), prof.Z, prof.Frequency, prof.Rho); err != nil {
		return "", err
	}
	if ase != nil {
		if err := writeProfileCSV(filepath.Join(runDir, "ase.csv"), ase.Z, ase.Frequency, ase.Power); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// Load reads back one run's metadata.
func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	return meta, json.Unmarshal(data, &meta)
}

// List returns the metadata of every run under the base directory.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeProfileCSV(path string, z, freq []float64, values *mat.Dense) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"z_m"}
	for _, f := range freq {
		header = append(header, fmt.Sprintf("f_%.4fTHz", f*1e-12))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for k, zk := range z {
		row := []string{strconv.FormatFloat(zk, 'f', 3, 64)}
		for i := range freq {
			row = append(row, strconv.FormatFloat(values.At(i, k), 'e', 9, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
