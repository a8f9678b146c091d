package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/phantomachine/assortative-matching-large-firms/internal/config"
	"github.com/phantomachine/assortative-matching-large-firms/internal/experiment"
	"github.com/phantomachine/assortative-matching-large-firms/internal/export"
	"github.com/phantomachine/assortative-matching-large-firms/internal/optim"
	"github.com/phantomachine/assortative-matching-large-firms/internal/solver"
	"github.com/phantomachine/assortative-matching-large-firms/internal/store"
	"github.com/phantomachine/assortative-matching-large-firms/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	// Technology parameters
	alpha  float64
	beta   float64
	omegaA float64
	omegaB float64
	sigmaA float64
	sigmaB float64
	// Solver knobs
	assortativity string
	guess         float64
	tol           float64
	knots         int
	integrator    string
	// Sweep mode
	parallel bool
	// Plot output
	svgPrefix string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "amlf",
		Short: "sorting equilibrium solver for matching workers with large firms",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".amlf", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve for the sorting equilibrium",
		RunE:  runSolve,
	}
	addModelFlags(solveCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "solve with a live view of the bisection",
		RunE:  runLive,
	}
	addModelFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [param] [values...]",
		Short: "re-solve across values of one technology parameter",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSweep,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().BoolVar(&parallel, "parallel", false, "solve sweep points concurrently")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "chart a stored solution",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPrefix, "svg", "", "also write SVG charts with this path prefix")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate [metric] [target] [param=v1,v2,...]...",
		Short: "grid-search technology parameters against a target moment",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runCalibrate,
	}
	addModelFlags(calibrateCmd)

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, liveCmd, sweepCmd, calibrateCmd, listCmd, plotCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&alpha, "alpha", 1.0, "outer exponent on the type aggregator")
	cmd.Flags().Float64Var(&beta, "beta", 1.0, "outer exponent on the quantity aggregator")
	cmd.Flags().Float64Var(&omegaA, "omega-a", 0.5, "type aggregator weight")
	cmd.Flags().Float64Var(&omegaB, "omega-b", 0.5, "quantity aggregator weight")
	cmd.Flags().Float64Var(&sigmaA, "sigma-a", 1.0, "type elasticity of substitution")
	cmd.Flags().Float64Var(&sigmaB, "sigma-b", 1.0, "quantity elasticity of substitution")
	cmd.Flags().StringVar(&assortativity, "assortativity", "positive", "positive or negative sorting")
	cmd.Flags().Float64Var(&guess, "guess", config.DefaultGuess, "upper bound on initial firm size")
	cmd.Flags().Float64Var(&tol, "tol", config.DefaultTol, "boundary matching tolerance")
	cmd.Flags().IntVar(&knots, "knots", config.DefaultKnots, "solution grid points")
	cmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator (rk45, rk4, euler, trapezoid)")
}

// buildConfig resolves the configuration for a solve: preset, then config
// file, then explicit CLI flags, later sources winning.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("alpha") {
		cfg.Technology.Alpha = alpha
	}
	if cmd.Flags().Changed("beta") {
		cfg.Technology.Beta = beta
	}
	if cmd.Flags().Changed("omega-a") {
		cfg.Technology.OmegaA = omegaA
	}
	if cmd.Flags().Changed("omega-b") {
		cfg.Technology.OmegaB = omegaB
	}
	if cmd.Flags().Changed("sigma-a") {
		cfg.Technology.SigmaA = sigmaA
	}
	if cmd.Flags().Changed("sigma-b") {
		cfg.Technology.SigmaB = sigmaB
	}
	if cmd.Flags().Changed("assortativity") {
		cfg.Assortativity = assortativity
	}
	if cmd.Flags().Changed("guess") {
		cfg.Solver.GuessFirmSizeUpper = guess
	}
	if cmd.Flags().Changed("tol") {
		cfg.Solver.Tol = tol
	}
	if cmd.Flags().Changed("knots") {
		cfg.Solver.Knots = knots
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}
	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	fmt.Println("solving for the sorting equilibrium...")
	start := time.Now()

	out, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(runMetadata(cfg, out), out.Result.Rows)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("initial firm size: %.9g\n", out.Result.InitialFirmSize)
	fmt.Printf("attempts: %d (%d integrator steps)\n", out.Result.Attempts, out.Result.Steps)
	fmt.Printf("peak residual: %.3g\n", out.PeakResidual)
	fmt.Println("\nmetrics:")
	for name, val := range out.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func runMetadata(cfg *config.Config, out *experiment.Outcome) store.RunMetadata {
	params := make(map[string]float64)
	names, values := cfg.ParamNames(), cfg.ParamValues()
	for i, name := range names {
		params[name] = values[i]
	}
	return store.RunMetadata{
		Assortativity:   cfg.Assortativity,
		Params:          params,
		InitialFirmSize: out.Result.InitialFirmSize,
		Attempts:        out.Result.Attempts,
		Steps:           out.Result.Steps,
		Metrics:         out.Metrics,
		PeakResidual:    out.PeakResidual,
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	updates := make(chan solver.ProgressUpdate)
	done := make(chan viz.DoneMsg, 1)

	go func() {
		out, err := exp.RunWithProgress(context.Background(), viz.ForwardProgress(updates))
		close(updates)
		if err != nil {
			done <- viz.DoneMsg{Err: err}
			return
		}
		done <- viz.DoneMsg{Result: out.Result}
	}()

	model := viz.NewLiveModel(cfg.Solver.GuessFirmSizeUpper, updates, done)
	_, err = tea.NewProgram(model).Run()
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	param := args[0]
	values := make([]float64, len(args)-1)
	for i, arg := range args[1:] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("bad sweep value %q: %w", arg, err)
		}
		values[i] = v
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %d values...\n\n", param, len(values))
	var points []experiment.SweepPoint
	if parallel {
		points = exp.SweepParallel(context.Background(), param, values)
	} else {
		points = exp.Sweep(context.Background(), param, values)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTHETA0\tATTEMPTS\tWAGE DISP\tLABOR SHARE\tRESIDUAL\n", param)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%.4g\terror: %v\n", p.Value, p.Err)
			continue
		}
		fmt.Fprintf(w, "%.4g\t%.6g\t%d\t%.4f\t%.4f\t%.2g\n",
			p.Value,
			p.Outcome.Result.InitialFirmSize,
			p.Outcome.Result.Attempts,
			p.Outcome.Metrics["wage_dispersion"],
			p.Outcome.Metrics["labor_share"],
			p.Outcome.PeakResidual,
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	ids, err := st.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSORTING\tTHETA0\tATTEMPTS\tRESIDUAL")
	for _, id := range ids {
		meta, err := st.Load(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%d\t%.2g\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Assortativity,
			meta.InitialFirmSize,
			meta.Attempts,
			meta.PeakResidual,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("sorting: %s\n", meta.Assortativity)
	fmt.Printf("samples: %d\n\n", len(rows))
	fmt.Println(viz.RenderSolution(rows))

	if svgPrefix != "" {
		for _, schedule := range export.Schedules() {
			path := fmt.Sprintf("%s_%s.svg", svgPrefix, schedule)
			svg := export.ScheduleToSVG(rows, schedule, 800, 500)
			if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
		}
	}
	return nil
}

// parseGridSpecs turns param=v1,v2,... arguments into grid search inputs.
func parseGridSpecs(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad grid spec %q: want param=v1,v2,...", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad grid value %q in %q: %w", field, spec, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	metric := args[0]
	target, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("bad target %q: %w", args[1], err)
	}
	names, ranges, err := parseGridSpecs(args[2:])
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	fmt.Printf("calibrating %s to %g...\n", metric, target)
	best, loss, err := g.Calibrate(context.Background(), exp, metric, target)
	if err != nil {
		return err
	}

	fmt.Println("\nbest point:")
	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	fmt.Printf("distance from target: %g\n", loss)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	return st.ExportJSONTo(args[0], os.Stdout)
}
