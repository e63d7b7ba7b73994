package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/stockflow/internal/config"
	"github.com/san-kum/stockflow/internal/logging"
	"github.com/san-kum/stockflow/internal/telemetry"
)

var (
	dataDir     string
	logLevel    string
	logFormat   string
	metricsFile string

	recorder = telemetry.New()

	// run and live
	dt         float64
	duration   float64
	preset     string
	configFile string
	modelFile  string
	params     []string
	detailed   bool
	stride     int
	noSave     bool

	// run inspection
	stocks     []string
	plotHeight int
	plotWidth  int
	svgWidth   int
	svgHeight  int
	output     string
	xStock     string
	yStock     string
	svgFile    string
	settleTol  float64
	asJSON     bool

	// automation
	sweepParam   string
	sweepFlow    string
	sweepMin     float64
	sweepMax     float64
	sweepSteps   int
	trials       int
	perturbation float64
	seed         uint64
	saveRuns     bool

	gridSpecs []string
	objective string
	maximize  bool

	fitSpecs     []string
	observedFile string
	observedRun  string
	maxEvals     int

	dumpModel string
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "stockflow",
		Short:         "stock and flow simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(os.Stderr, logLevel, logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", env.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", env.LogFormat, "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", env.MetricsFile, "write run counters to this Prometheus textfile")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the model's own)")
	runCmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "simulated duration")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&configFile, "config", "", "run config file path (yaml)")
	runCmd.Flags().StringVarP(&modelFile, "file", "f", "", "model definition file (yaml)")
	runCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "model parameter as key=value")
	runCmd.Flags().BoolVar(&detailed, "detailed", false, "print every recorded time")
	runCmd.Flags().IntVar(&stride, "stride", 1, "row stride for --detailed")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run summary (latest when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print run metadata as JSON")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stock series",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVarP(&stocks, "stocks", "s", nil, "stocks to plot (default all)")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "chart height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export stock series as an SVG chart",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().StringSliceVarP(&stocks, "stocks", "s", nil, "stocks to draw (default all)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 400, "image height")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two stocks",
		Args:  cobra.MaximumNArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVarP(&xStock, "x", "x", "", "stock on the x axis")
	phaseCmd.Flags().StringVarP(&yStock, "y", "y", "", "stock on the y axis")
	phaseCmd.Flags().StringVar(&svgFile, "svg", "", "also write the portrait as SVG")
	phaseCmd.MarkFlagRequired("x")
	phaseCmd.MarkFlagRequired("y")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics and frequency analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringSliceVarP(&stocks, "stocks", "s", nil, "stocks to analyze (default all)")
	analyzeCmd.Flags().Float64Var(&settleTol, "tolerance", 0.01, "settling tolerance")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}
	modelsCmd.Flags().StringVar(&dumpModel, "dump", "", "print a built-in model as a model file")
	modelsCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "model parameter as key=value (with --dump)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a multi-phase scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveRuns, "save", false, "store every phase as a run")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep a parameter or constant flow rate",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param-name", "", "model parameter to sweep")
	sweepCmd.Flags().StringVar(&sweepFlow, "flow", "", "constant flow whose rate is swept")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "simulated duration")
	sweepCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the model's own)")
	sweepCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "fixed model parameter as key=value")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "perturb initial stock values and collect outcomes",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 1, "maximum initial value perturbation")
	monteCarloCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 uses the clock)")
	monteCarloCmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "simulated duration")
	monteCarloCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the model's own)")
	monteCarloCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "model parameter as key=value")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [model]",
		Short: "grid search model parameters against a metric or final value",
		Args:  cobra.ExactArgs(1),
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringArrayVarP(&gridSpecs, "grid", "g", nil, "parameter grid as name=v1,v2,...")
	optimizeCmd.Flags().StringVar(&objective, "objective", "drift", "metric name or final:<stock>")
	optimizeCmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")
	optimizeCmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "simulated duration")
	optimizeCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the model's own)")
	optimizeCmd.MarkFlagRequired("grid")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate [model]",
		Short: "fit model parameters to observed stock series",
		Args:  cobra.ExactArgs(1),
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().StringArrayVar(&fitSpecs, "fit", nil, "parameter to fit with its starting value, name=value")
	calibrateCmd.Flags().StringVar(&observedFile, "data", "", "observed series CSV (time,stock,value)")
	calibrateCmd.Flags().StringVar(&observedRun, "run", "", "use a stored run as the observed series")
	calibrateCmd.Flags().IntVar(&maxEvals, "max-evals", 0, "limit on model evaluations (0 for none)")
	calibrateCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the model's own)")
	calibrateCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "fixed model parameter as key=value")
	calibrateCmd.MarkFlagRequired("fit")
	calibrateCmd.MarkFlagsOneRequired("data", "run")
	calibrateCmd.MarkFlagsMutuallyExclusive("data", "run")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", 0, "timestep (0 keeps the model's own)")
	liveCmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "simulated duration")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().StringVarP(&modelFile, "file", "f", "", "model definition file (yaml)")
	liveCmd.Flags().StringArrayVarP(&params, "param", "p", nil, "model parameter as key=value")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		phaseCmd, analyzeCmd, presetsCmd, modelsCmd, scenarioCmd, sweepCmd, monteCarloCmd, optimizeCmd, calibrateCmd, liveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = rootCmd.ExecuteContext(ctx)
	if metricsFile != "" {
		if werr := recorder.WriteTextfile(metricsFile); werr != nil {
			slog.Error("failed to write metrics file", "path", metricsFile, "err", werr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
