package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/optalix/ramansim/internal/config"
	"github.com/optalix/ramansim/internal/export"
	"github.com/optalix/ramansim/internal/raman"
)

var (
	configFile string
	presetName string
	dataDir    string
	outDir     string
	withASE    bool
	plotSlice  int
	verbose    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ramansim",
		Short: "stimulated Raman scattering fiber propagation solver",
	}

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve the fiber power profile (and optionally ASE noise)",
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	solveCmd.Flags().StringVar(&presetName, "preset", "", "use a named preset scenario")
	solveCmd.Flags().StringVar(&outDir, "out", "", "export profiles to this directory")
	solveCmd.Flags().BoolVar(&withASE, "ase", false, "also compute the ASE noise profile")
	solveCmd.Flags().IntVar(&plotSlice, "plot", -1, "plot rho of the given slice index (dB vs z)")
	solveCmd.Flags().IntVar(&verbose, "verbose", 0, "solver verbosity (0-2)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the default scenario to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.Default())
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list exported runs",
		RunE:  listRuns,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ramansim", "data directory")
	rootCmd.AddCommand(solveCmd, presetsCmd, initCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadScenario() (string, *config.Config, error) {
	switch {
	case configFile != "" && presetName != "":
		return "", nil, fmt.Errorf("--config and --preset are mutually exclusive")
	case configFile != "":
		cfg, err := config.Load(configFile)
		return "scenario", cfg, err
	case presetName != "":
		cfg, ok := config.Presets[presetName]
		if !ok {
			return "", nil, fmt.Errorf("unknown preset %q (see 'ramansim presets')", presetName)
		}
		// Flag overrides must not touch the shared preset table.
		return presetName, cfg.Clone(), nil
	default:
		return "default", config.Default(), nil
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Solver.Verbose = verbose
	}

	fiberParams, err := cfg.FiberParams()
	if err != nil {
		return err
	}
	assembly, err := cfg.Assembly()
	if err != nil {
		return err
	}

	solver, err := raman.New(fiberParams, assembly, cfg.SolverSettings())
	if err != nil {
		return err
	}

	prof, err := solver.Profile()
	if err != nil {
		return err
	}

	var ase *raman.AseProfile
	if withASE {
		if ase, err = solver.ASE(); err != nil {
			return err
		}
	}

	printSummary(cfg, prof, ase)

	if plotSlice >= 0 {
		if err := plotRho(prof, plotSlice); err != nil {
			return err
		}
	}

	if outDir != "" {
		st := export.New(outDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(name, prof, ase)
		if err != nil {
			return err
		}
		fmt.Printf("exported run %s\n", runID)
	}
	return nil
}

func printSummary(cfg *config.Config, prof *raman.Profile, ase *raman.AseProfile) {
	m := len(prof.Z)
	lengthKm := prof.Z[m-1] * 1e-3

	fmt.Printf("span %.1f km, %d slices (%d channels, %d pumps), %d mesh points\n",
		lengthKm, len(prof.Frequency), cfg.Comb.Channels, len(cfg.Pumps), m)
	fmt.Printf("converged in %d iterations, residual %.2e\n\n",
		prof.Stats.Iterations, prof.Stats.Residual)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if ase != nil {
		fmt.Fprintln(w, "slice\tf [THz]\tdir\tP_in [dBm]\tP_out [dBm]\trho_out [dB]\tASE_out [dBm]")
	} else {
		fmt.Fprintln(w, "slice\tf [THz]\tdir\tP_in [dBm]\tP_out [dBm]\trho_out [dB]")
	}

	for i, f := range prof.Frequency {
		dir := "fwd"
		launch, out := 0, m-1
		if i >= cfg.Comb.Channels && cfg.Pumps[i-cfg.Comb.Channels].Direction < 0 {
			dir = "bwd"
			launch, out = m-1, 0
		}
		line := fmt.Sprintf("%d\t%.4f\t%s\t%.2f\t%.2f\t%.2f",
			i, f*1e-12, dir,
			dbm(prof.Power.At(i, launch)),
			dbm(prof.Power.At(i, out)),
			db(prof.Rho.At(i, out)))
		if ase != nil {
			line += "\t" + formatDbm(ase.Power.At(i, m-1))
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()
}

func plotRho(prof *raman.Profile, slice int) error {
	if slice >= len(prof.Frequency) {
		return fmt.Errorf("slice %d out of range (%d slices)", slice, len(prof.Frequency))
	}

	data := make([]float64, len(prof.Z))
	for k := range data {
		data[k] = db(prof.Rho.At(slice, k))
	}

	caption := fmt.Sprintf("rho [dB] vs z, slice %d (%.4f THz)", slice, prof.Frequency[slice]*1e-12)
	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println()
	fmt.Println(graph)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := make([]string, 0, len(config.Presets))
	for name := range config.Presets {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "name\tlength [km]\tchannels\tpumps")
	for _, name := range names {
		cfg := config.Presets[name]
		fmt.Fprintf(w, "%s\t%.0f\t%d\t%d\n",
			name, cfg.Fiber.Length*1e-3, cfg.Comb.Channels, len(cfg.Pumps))
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := export.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "id\tscenario\tslices\tmesh\titerations\tresidual\tase")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.2e\t%v\n",
			r.ID, r.Scenario, r.Slices, r.MeshPoints, r.Iterations, r.Residual, r.HasASE)
	}
	return w.Flush()
}

// dbm converts Watts to dBm.
func dbm(p float64) float64 { return 10*math.Log10(p) + 30 }

// formatDbm renders a power in dBm, with a placeholder for zero power
// (a pump's own ASE row, or an unseeded slice).
func formatDbm(p float64) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", dbm(p))
}

// db converts a field amplitude ratio to dB.
func db(r float64) float64 { return 20 * math.Log10(r) }
