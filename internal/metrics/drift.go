package metrics

import (
	"math"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// Drift tracks the largest relative change of the total held across a set of
// stocks. For a closed system whose flows only move quantity between those
// stocks the value stays at zero until a bound clips a step.
//
// With no stock ids the total covers every stock in the state.
type Drift struct {
	name     string
	stockIDs []string
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift(stockIDs ...string) *Drift {
	ids := make([]string, len(stockIDs))
	copy(ids, stockIDs)
	return &Drift{
		name:     "drift",
		stockIDs: ids,
	}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(state *dynamo.SystemState) {
	total := d.total(state)
	if d.samples == 0 {
		d.initial = total
	}
	d.samples++

	diff := math.Abs(total - d.initial)
	if d.initial != 0 {
		diff /= math.Abs(d.initial)
	}
	d.maxDrift = math.Max(d.maxDrift, diff)
}

func (d *Drift) total(state *dynamo.SystemState) float64 {
	var sum float64
	if len(d.stockIDs) == 0 {
		state.Each(func(st dynamo.Stock) { sum += st.CurrentValue })
		return sum
	}
	for _, id := range d.stockIDs {
		if v, ok := state.StockValue(id); ok {
			sum += v
		}
	}
	return sum
}

func (d *Drift) Value() float64 {
	return d.maxDrift
}

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}
