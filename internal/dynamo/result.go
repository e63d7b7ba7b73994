package dynamo

import "sort"

// Result is the time-indexed record produced by one Simulate call. For every
// stock present throughout the run, len(StockValues[id]) == len(TimeSeries).
type Result struct {
	Model       string               `json:"model"`
	TimeStep    float64              `json:"dt"`
	TimeSeries  []float64            `json:"time_series"`
	StockValues map[string][]float64 `json:"stock_values"`
	Metrics     map[string]float64   `json:"metrics,omitempty"`
	StepsTaken  int                  `json:"steps"`
}

// NewResult returns an empty result ready for Record.
func NewResult(model string, dt float64) *Result {
	return newResult(model, dt, 0)
}

func newResult(model string, dt float64, capacity int) *Result {
	return &Result{
		Model:       model,
		TimeStep:    dt,
		TimeSeries:  make([]float64, 0, capacity),
		StockValues: make(map[string][]float64),
		Metrics:     make(map[string]float64),
	}
}

// Record appends t and the current value of every stock in s. A stock seen for
// the first time gets a new series; stocks absent from s get nothing appended.
func (r *Result) Record(t float64, s *SystemState) {
	r.TimeSeries = append(r.TimeSeries, t)
	capacity := cap(r.TimeSeries)
	s.Each(func(st Stock) {
		series, ok := r.StockValues[st.ID]
		if !ok {
			series = make([]float64, 0, capacity)
		}
		r.StockValues[st.ID] = append(series, st.CurrentValue)
	})
}

// Len is the number of recorded time points.
func (r *Result) Len() int { return len(r.TimeSeries) }

// Times returns a copy of the recorded times.
func (r *Result) Times() []float64 {
	out := make([]float64, len(r.TimeSeries))
	copy(out, r.TimeSeries)
	return out
}

// Series returns a copy of the values recorded for a stock.
func (r *Result) Series(id string) ([]float64, bool) {
	vals, ok := r.StockValues[id]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(vals))
	copy(out, vals)
	return out, true
}

func (r *Result) Initial(id string) (float64, bool) {
	vals := r.StockValues[id]
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

func (r *Result) Final(id string) (float64, bool) {
	vals := r.StockValues[id]
	if len(vals) == 0 {
		return 0, false
	}
	return vals[len(vals)-1], true
}

// FinalTime returns the last recorded time, or zero for an empty result.
func (r *Result) FinalTime() float64 {
	if len(r.TimeSeries) == 0 {
		return 0
	}
	return r.TimeSeries[len(r.TimeSeries)-1]
}

// StockIDs returns the recorded stock ids in sorted order.
func (r *Result) StockIDs() []string {
	ids := make([]string, 0, len(r.StockValues))
	for id := range r.StockValues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Aligned reports whether every series has one value per recorded time.
func (r *Result) Aligned() bool {
	for _, vals := range r.StockValues {
		if len(vals) != len(r.TimeSeries) {
			return false
		}
	}
	return true
}
