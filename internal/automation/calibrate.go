package automation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
)

var ErrNoOverlap = errors.New("automation: observed data shares no stock or time with the model")

// Calibration fits model parameters so the simulated stocks track an observed
// result. Observed times are matched to the nearest step of the model's grid;
// points outside the simulated span are ignored.
type Calibration struct {
	Model    string
	Params   []string
	Initial  []float64
	Fixed    map[string]float64
	Observed *dynamo.Result
	Dt       float64
	MaxEvals int
}

type CalibrationResult struct {
	Params      map[string]float64
	Loss        float64
	Evaluations int
}

func (c *Calibration) params(x []float64) map[string]float64 {
	p := make(map[string]float64, len(c.Fixed)+len(x))
	for k, v := range c.Fixed {
		p[k] = v
	}
	for i, name := range c.Params {
		p[name] = x[i]
	}
	return p
}

func (c *Calibration) simulate(ctx context.Context, registry *experiment.Registry, x []float64) (*dynamo.Result, error) {
	def, err := registry.GetModel(c.Model)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(experiment.Config{
		Model:    c.Model,
		Dt:       c.Dt,
		Duration: c.Observed.FinalTime(),
		Params:   c.params(x),
	})
	if err := exp.Setup(def, nil); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

// loss is the sum of squared differences over every matched point.
func (c *Calibration) loss(sim *dynamo.Result) (float64, int) {
	if sim.Len() == 0 || sim.TimeStep <= 0 {
		return math.Inf(1), 0
	}
	t0 := sim.TimeSeries[0]

	var simVals, obsVals []float64
	for _, id := range c.Observed.StockIDs() {
		series, ok := sim.StockValues[id]
		if !ok {
			continue
		}
		for i, v := range c.Observed.StockValues[id] {
			if i >= c.Observed.Len() {
				break
			}
			k := int(math.Round((c.Observed.TimeSeries[i] - t0) / sim.TimeStep))
			if k < 0 || k >= len(series) {
				continue
			}
			simVals = append(simVals, series[k])
			obsVals = append(obsVals, v)
		}
	}
	if len(simVals) == 0 {
		return math.Inf(1), 0
	}
	d := floats.Distance(simVals, obsVals, 2)
	return d * d, len(simVals)
}

// Fit minimizes the loss with Nelder-Mead starting from Initial.
func (c *Calibration) Fit(ctx context.Context, registry *experiment.Registry) (*CalibrationResult, error) {
	if len(c.Params) == 0 || len(c.Params) != len(c.Initial) {
		return nil, fmt.Errorf("calibrate: %d params but %d initial values", len(c.Params), len(c.Initial))
	}
	if c.Observed == nil || c.Observed.Len() == 0 {
		return nil, fmt.Errorf("calibrate: no observed data")
	}

	sim, err := c.simulate(ctx, registry, c.Initial)
	if err != nil {
		return nil, err
	}
	if _, n := c.loss(sim); n == 0 {
		return nil, ErrNoOverlap
	}

	var simErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if simErr != nil {
				return math.Inf(1)
			}
			sim, err := c.simulate(ctx, registry, x)
			if err != nil {
				simErr = err
				return math.Inf(1)
			}
			l, _ := c.loss(sim)
			return l
		},
	}

	settings := &optimize.Settings{}
	if c.MaxEvals > 0 {
		settings.FuncEvaluations = c.MaxEvals
	}

	result, err := optimize.Minimize(problem, c.Initial, settings, &optimize.NelderMead{})
	if simErr != nil {
		return nil, simErr
	}
	if result == nil {
		return nil, err
	}

	return &CalibrationResult{
		Params:      c.params(result.X),
		Loss:        result.F,
		Evaluations: result.FuncEvaluations,
	}, nil
}
