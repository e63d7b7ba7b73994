package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/stockflow/internal/config"
	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
	"github.com/san-kum/stockflow/internal/storage"
	"github.com/san-kum/stockflow/internal/viz"
)

// parseParams reads key=value pairs into a map.
func parseParams(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q: want key=value", p)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid param %q: %w", p, err)
		}
		out[strings.TrimSpace(key)] = v
	}
	return out, nil
}

// runPlan is the resolved setup of a single run: either a built-in model
// with a run config or a model file.
type runPlan struct {
	cfg    *config.Config
	file   *config.ModelFile
	source string
}

func (p *runPlan) name() string {
	if p.file != nil {
		return p.file.Name
	}
	return p.cfg.Model
}

// resolveRun merges the preset, config file, model file and flags in that
// order. Flags only win when set explicitly.
func resolveRun(cmd *cobra.Command, args []string) (*runPlan, error) {
	plan := &runPlan{cfg: config.DefaultConfig()}
	if len(args) > 0 {
		plan.cfg.Model = args[0]
	}

	if preset != "" {
		cfg := config.GetPreset(plan.cfg.Model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(plan.cfg.Model))
		}
		plan.cfg = cfg
		plan.source = "preset:" + preset
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			cfg.Model = args[0]
		}
		plan.cfg = cfg
		plan.source = configFile
	}

	if modelFile != "" {
		mf, err := config.LoadModel(modelFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		plan.file = mf
		plan.source = modelFile
		plan.cfg.Dt = 0
		plan.cfg.Duration = mf.Duration
	}

	if cmd.Flags().Changed("dt") {
		plan.cfg.Dt = dt
	}
	if cmd.Flags().Changed("duration") {
		plan.cfg.Duration = duration
	}

	overrides, err := parseParams(params)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		merged := make(map[string]float64, len(plan.cfg.Params)+len(overrides))
		for k, v := range plan.cfg.Params {
			merged[k] = v
		}
		for k, v := range overrides {
			merged[k] = v
		}
		plan.cfg.Params = merged
	}

	return plan, nil
}

// setup prepares the run with the registry's default metrics.
func (p *runPlan) setup(registry *experiment.Registry) (*experiment.Experiment, error) {
	exp := experiment.New(experiment.Config{
		Model:    p.name(),
		Dt:       p.cfg.Dt,
		Duration: p.cfg.Duration,
		Params:   p.cfg.Params,
	})
	metrics := registry.DefaultMetrics(p.name())

	if p.file != nil {
		m, err := p.file.Build()
		if err != nil {
			return nil, err
		}
		exp.SetupModel(m, metrics)
		return exp, nil
	}

	def, err := registry.GetModel(p.cfg.Model)
	if err != nil {
		return nil, err
	}
	if err := exp.Setup(def, metrics); err != nil {
		return nil, err
	}
	return exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	plan, err := resolveRun(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp, err := plan.setup(registry)
	if err != nil {
		return err
	}
	if err := exp.Model().Validate(); err != nil {
		slog.Warn("model has conflicting definitions", "model", plan.name(), "err", err)
	}

	slog.Info("running simulation", "model", plan.name(), "dt", exp.Model().TimeStep(), "duration", plan.cfg.Duration)
	start := time.Now()

	result, err := exp.Run(cmd.Context())
	elapsed := time.Since(start)
	recorder.Observe(plan.name(), result, elapsed)
	if err != nil {
		return err
	}
	slog.Debug("simulation finished", "steps", result.StepsTaken, "elapsed", elapsed)

	if !noSave {
		st := storage.New(dataDir)
		runID, err := st.Save(storage.RunInfo{
			Source:   plan.source,
			Duration: plan.cfg.Duration,
			Params:   plan.cfg.Params,
		}, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n\n", runID)
	}

	fmt.Print(viz.Summary(result))
	if detailed {
		fmt.Println(viz.Detailed(result, result.StockIDs(), stride))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	plan, err := resolveRun(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	build := func() (*dynamo.Model, error) {
		exp, err := plan.setup(registry)
		if err != nil {
			return nil, err
		}
		return exp.Model(), nil
	}

	live, err := viz.NewLiveModel(plan.name(), build, plan.cfg.Duration)
	if err != nil {
		return err
	}
	p := tea.NewProgram(live, tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
