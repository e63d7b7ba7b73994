package metrics

import (
	"math"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// Stability is the fraction of recorded states in which every stock stays
// within ±threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(state *dynamo.SystemState) {
	s.samples++
	violated := false
	state.Each(func(st dynamo.Stock) {
		if math.Abs(st.CurrentValue) > s.threshold {
			violated = true
		}
	})
	if violated {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
