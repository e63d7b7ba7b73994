package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/stockflow/internal/automation"
	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
	"github.com/san-kum/stockflow/internal/storage"
	"github.com/san-kum/stockflow/internal/viz"
)

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	results, runErr := automation.RunScenario(cmd.Context(), scenario, registry, slog.Default())

	st := storage.New(dataDir)
	model := scenario.Model
	if scenario.Definition != nil {
		model = scenario.Definition.Name
	}

	for _, pr := range results {
		recorder.Observe(model, pr.Result, 0)
		fmt.Printf("== %s ==\n", pr.Phase)
		if saveRuns {
			runID, err := st.Save(storage.RunInfo{
				Source:   fmt.Sprintf("%s#%s", args[0], pr.Phase),
				Duration: pr.Result.FinalTime() - pr.Result.TimeSeries[0],
				Params:   scenario.Params,
			}, pr.Result)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
		}
		fmt.Println(viz.Summary(pr.Result))
	}
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	fixed, err := parseParams(params)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Model:    args[0],
		Param:    sweepParam,
		Flow:     sweepFlow,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Duration: duration,
		Dt:       dt,
		Params:   fixed,
	}

	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	ids := sortedKeys(results[0].Final)
	target := sweepParam
	if target == "" {
		target = sweepFlow
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(target)+"\t"+strings.Join(ids, "\t"))
	for _, r := range results {
		row := []string{fmt.Sprintf("%.4f", r.Value)}
		for _, id := range ids {
			row = append(row, fmt.Sprintf("%.4f", r.Final[id]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	fixed, err := parseParams(params)
	if err != nil {
		return err
	}

	cfg := &automation.MonteCarloConfig{
		Model:        args[0],
		Params:       fixed,
		Perturbation: perturbation,
		NumTrials:    trials,
		Duration:     duration,
		Dt:           dt,
		Seed:         seed,
	}

	slog.Info("running monte carlo", "model", cfg.Model, "trials", cfg.NumTrials, "perturbation", cfg.Perturbation)
	results, err := automation.RunMonteCarlo(cmd.Context(), cfg, experiment.NewRegistry())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d (stable %d, unstable %d)\n\n", len(results), stable, unstable)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STOCK\tMEAN FINAL\tSTD")
	for _, id := range sortedKeys(results[0].Final) {
		mean, std := automation.FinalSpread(results, id)
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", id, mean, std)
	}
	return w.Flush()
}

// parseGrid reads name=v1,v2,... specs in order.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid grid %q: want name=v1,v2,...", spec)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid grid %q: %w", spec, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	names, ranges, err := parseGrid(gridSpecs)
	if err != nil {
		return err
	}

	search := &automation.GridSearch{
		Model:     args[0],
		Params:    names,
		Ranges:    ranges,
		Objective: objective,
		Maximize:  maximize,
		Duration:  duration,
		Dt:        dt,
	}
	best, err := search.Search(cmd.Context(), experiment.NewRegistry())
	if err != nil {
		return err
	}
	if best.Params == nil {
		return fmt.Errorf("no run produced a finite %s", objective)
	}

	fmt.Printf("runs: %d
", best.Runs)
	fmt.Printf("best %s: %.6f
", objective, best.Value)
	for _, name := range sortedKeys(best.Params) {
		fmt.Printf("  %s = %g
", name, best.Params[name])
	}
	return nil
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	fit, err := parseParams(fitSpecs)
	if err != nil {
		return err
	}
	fixed, err := parseParams(params)
	if err != nil {
		return err
	}

	var observed *dynamo.Result
	if observedRun != "" {
		_, observed, err = loadRun([]string{observedRun})
		if err != nil {
			return err
		}
	} else {
		f, err := os.Open(observedFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if observed, err = storage.ReadSeries(f); err != nil {
			return fmt.Errorf("read %s: %w", observedFile, err)
		}
	}

	names := sortedKeys(fit)
	initial := make([]float64, len(names))
	for i, name := range names {
		initial[i] = fit[name]
	}

	c := &automation.Calibration{
		Model:    args[0],
		Params:   names,
		Initial:  initial,
		Fixed:    fixed,
		Observed: observed,
		Dt:       dt,
		MaxEvals: maxEvals,
	}

	slog.Info("calibrating", "model", c.Model, "params", names, "points", observed.Len())
	res, err := c.Fit(cmd.Context(), experiment.NewRegistry())
	if err != nil {
		return err
	}

	fmt.Printf("evaluations: %d\n", res.Evaluations)
	fmt.Printf("loss: %.6g\n", res.Loss)
	for _, name := range names {
		fmt.Printf("  %s = %.6g\n", name, res.Params[name])
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
