package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
)

var ErrNotConstant = errors.New("automation: flow rate is not constant")

// ParameterSweep runs a built-in model once per value between Min and Max.
// The value goes either to a model parameter (Param) or replaces the rate of
// a constant flow (Flow).
type ParameterSweep struct {
	Model    string
	Param    string
	Flow     string
	Min      float64
	Max      float64
	NumSteps int
	Duration float64
	Dt       float64
	Params   map[string]float64
}

// SweepResult holds the outcome of one sweep run.
type SweepResult struct {
	Value   float64
	Final   map[string]float64
	Metrics map[string]float64
}

// Values returns the swept values. A single step uses Min.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	return vals
}

// RunSweep builds one model per value and runs them concurrently. Results
// follow the order of Values.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	if (sweep.Param == "") == (sweep.Flow == "") {
		return nil, fmt.Errorf("sweep: set exactly one of param or flow")
	}

	values := sweep.Values()
	exps := make([]*experiment.Experiment, 0, len(values))
	for _, v := range values {
		m, err := sweep.build(registry, v)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(experiment.Config{Model: sweep.Model, Duration: sweep.Duration})
		exp.SetupModel(m, registry.DefaultMetrics(sweep.Model))
		exps = append(exps, exp)
	}

	logger.Debug("starting sweep",
		"model", sweep.Model,
		"target", sweep.target(),
		"runs", len(values),
	)

	runs, err := experiment.NewEnsemble(0).Run(ctx, exps)
	if err != nil {
		return nil, fmt.Errorf("sweep %s: %w", sweep.target(), err)
	}

	results := make([]SweepResult, 0, len(runs))
	for i, result := range runs {
		final := make(map[string]float64, len(result.StockValues))
		for _, id := range result.StockIDs() {
			final[id], _ = result.Final(id)
		}
		results = append(results, SweepResult{Value: values[i], Final: final, Metrics: result.Metrics})
	}
	return results, nil
}

func (s *ParameterSweep) target() string {
	if s.Param != "" {
		return s.Param
	}
	return s.Flow
}

func (s *ParameterSweep) build(registry *experiment.Registry, v float64) (*dynamo.Model, error) {
	def, err := registry.GetModel(s.Model)
	if err != nil {
		return nil, err
	}

	params := make(map[string]float64, len(s.Params)+1)
	for k, pv := range s.Params {
		params[k] = pv
	}
	if s.Param != "" {
		params[s.Param] = v
	}
	def.Apply(params)

	m := def.Build()
	if s.Dt != 0 {
		m.SetTimeStep(s.Dt)
	}

	if s.Flow != "" {
		f, ok := m.Flow(s.Flow)
		if !ok {
			return nil, fmt.Errorf("sweep: model %s has no flow %q", s.Model, s.Flow)
		}
		if _, ok := f.Rate.(dynamo.Constant); !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotConstant, s.Flow)
		}
		f.Rate = dynamo.Constant{Rate: v}
		m.ReplaceFlow(f)
	}
	return m, nil
}
