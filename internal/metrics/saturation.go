package metrics

import "github.com/san-kum/stockflow/internal/dynamo"

// Saturation is the fraction of recorded states in which a stock sits on its
// minimum or maximum. A stock with no bounds never saturates.
type Saturation struct {
	name    string
	stockID string
	hits    int
	samples int
}

func NewSaturation(stockID string) *Saturation {
	return &Saturation{
		name:    "saturation:" + stockID,
		stockID: stockID,
	}
}

func (s *Saturation) Name() string { return s.name }

func (s *Saturation) Observe(state *dynamo.SystemState) {
	st, ok := state.Stock(s.stockID)
	if !ok {
		return
	}
	s.samples++
	if st.Bounded(st.CurrentValue) {
		s.hits++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.hits) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.hits = 0
	s.samples = 0
}
