package automation

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/stockflow/internal/experiment"
)

// MonteCarloConfig perturbs every stock's initial value uniformly by up to
// ±Perturbation and runs the model NumTrials times.
type MonteCarloConfig struct {
	Model        string
	Params       map[string]float64
	Perturbation float64
	NumTrials    int
	Duration     float64
	Dt           float64
	Seed         uint64
}

type MonteCarloResult struct {
	Trial   int
	Initial map[string]float64
	Final   map[string]float64
	Stable  bool
}

// RunMonteCarlo executes the trials. A zero seed draws one from the clock.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		def, err := registry.GetModel(cfg.Model)
		if err != nil {
			return nil, err
		}
		def.Apply(cfg.Params)
		m := def.Build()
		if cfg.Dt != 0 {
			m.SetTimeStep(cfg.Dt)
		}

		state := m.State()
		initial := make(map[string]float64, state.Len())
		for _, id := range state.StockIDs() {
			st, _ := state.Stock(id)
			v := st.Clamp(st.CurrentValue + (rng.Float64()-0.5)*2*cfg.Perturbation)
			state.SetStockValue(id, v)
			initial[id] = v
		}

		result, err := m.Simulate(cfg.Duration)
		if err != nil {
			return results, err
		}

		final := make(map[string]float64, len(initial))
		stable := true
		for _, id := range result.StockIDs() {
			v, _ := result.Final(id)
			final[id] = v
			if math.IsNaN(v) || math.Abs(v) > 1e6 {
				stable = false
			}
		}

		results = append(results, MonteCarloResult{
			Trial:   trial,
			Initial: initial,
			Final:   final,
			Stable:  stable,
		})
	}

	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// FinalSpread returns the mean and standard deviation of a stock's final
// value across trials.
func FinalSpread(results []MonteCarloResult, stockID string) (mean, std float64) {
	vals := make([]float64, 0, len(results))
	for _, r := range results {
		if v, ok := r.Final[stockID]; ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	if len(vals) == 1 {
		return vals[0], 0
	}
	return stat.MeanStdDev(vals, nil)
}
