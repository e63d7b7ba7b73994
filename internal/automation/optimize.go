package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
)

var ErrUnknownObjective = errors.New("automation: objective not found in result")

// GridSearch tries every combination of the listed parameter values on a
// built-in model and keeps the one with the lowest objective, or the highest
// when Maximize is set. Objective names a metric, or "final:<stock>" for a
// stock's final value.
type GridSearch struct {
	Model     string
	Params    []string
	Ranges    [][]float64
	Objective string
	Maximize  bool
	Duration  float64
	Dt        float64
}

type GridResult struct {
	Params map[string]float64
	Value  float64
	Runs   int
}

func (g *GridSearch) combinations() []map[string]float64 {
	combos := []map[string]float64{{}}
	for i, name := range g.Params {
		next := make([]map[string]float64, 0, len(combos)*len(g.Ranges[i]))
		for _, base := range combos {
			for _, v := range g.Ranges[i] {
				c := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					c[k] = bv
				}
				c[name] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	return combos
}

func objective(result *dynamo.Result, name string) (float64, error) {
	if id, ok := strings.CutPrefix(name, "final:"); ok {
		v, ok := result.Final(id)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownObjective, name)
		}
		return v, nil
	}
	v, ok := result.Metrics[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownObjective, name)
	}
	return v, nil
}

// Search runs the grid and returns the best combination.
func (g *GridSearch) Search(ctx context.Context, registry *experiment.Registry) (*GridResult, error) {
	if len(g.Params) != len(g.Ranges) {
		return nil, fmt.Errorf("grid search: %d params but %d ranges", len(g.Params), len(g.Ranges))
	}

	combos := g.combinations()
	exps := make([]*experiment.Experiment, 0, len(combos))
	for _, params := range combos {
		def, err := registry.GetModel(g.Model)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(experiment.Config{
			Model:    g.Model,
			Dt:       g.Dt,
			Duration: g.Duration,
			Params:   params,
		})
		if err := exp.Setup(def, registry.DefaultMetrics(g.Model)); err != nil {
			return nil, err
		}
		exps = append(exps, exp)
	}

	results, err := experiment.NewEnsemble(0).Run(ctx, exps)
	if err != nil {
		return nil, err
	}

	best := &GridResult{Value: math.Inf(1), Runs: len(results)}
	if g.Maximize {
		best.Value = math.Inf(-1)
	}
	for i, res := range results {
		v, err := objective(res, g.Objective)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(v) {
			continue
		}
		if (g.Maximize && v > best.Value) || (!g.Maximize && v < best.Value) {
			best.Value = v
			best.Params = combos[i]
		}
	}
	return best, nil
}
