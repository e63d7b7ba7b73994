package dynamo

import (
	"errors"
	"math"
	"sort"
)

// DefaultTimeStep is used until SetTimeStep is called.
const DefaultTimeStep = 1.0

// maxPrealloc caps the result capacity reserved up front for long runs.
const maxPrealloc = 1 << 16

// Model owns a system state and a flow registry and integrates them forward
// in fixed steps. The builder methods return the model so calls can be chained;
// repeating a call with the same id replaces the earlier entry.
type Model struct {
	name      string
	dt        float64
	state     *SystemState
	flows     []Flow
	flowIndex map[string]int
	metrics   []Metric
	observers []Observer
	conflicts []error

	// scratch reused across steps
	snap     *Snapshot
	deriv    []float64
	compiled []compiledFlow
}

func New(name string) *Model {
	return &Model{
		name:      name,
		dt:        DefaultTimeStep,
		state:     NewSystemState(),
		flows:     make([]Flow, 0),
		flowIndex: make(map[string]int),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		snap:      &Snapshot{},
	}
}

func (m *Model) Name() string        { return m.name }
func (m *Model) TimeStep() float64   { return m.dt }
func (m *Model) Time() float64       { return m.state.Time }
func (m *Model) State() *SystemState { return m.state }

func (m *Model) SetTimeStep(dt float64) *Model {
	m.dt = dt
	return m
}

// AddStock registers s. A stock with an id already present replaces it.
func (m *Model) AddStock(s Stock) *Model {
	if m.state.AddStock(s) {
		m.conflicts = append(m.conflicts, &ConfigError{ID: s.ID, Wrapped: ErrDuplicateStock})
	}
	return m
}

// AddStockArray expands a and registers every member stock.
func (m *Model) AddStockArray(a StockArray) *Model {
	for _, s := range a.Expand() {
		m.AddStock(s)
	}
	return m
}

// RemoveStock drops a stock. Flows referring to it stop contributing.
func (m *Model) RemoveStock(id string) *Model {
	m.state.RemoveStock(id)
	return m
}

// AddFlow registers f. A flow with an id already present replaces it.
func (m *Model) AddFlow(f Flow) *Model {
	if i, ok := m.flowIndex[f.ID]; ok {
		m.flows[i] = f
		m.conflicts = append(m.conflicts, &ConfigError{ID: f.ID, Wrapped: ErrDuplicateFlow})
		return m
	}
	m.flowIndex[f.ID] = len(m.flows)
	m.flows = append(m.flows, f)
	return m
}

// ReplaceFlow swaps in f for the registered flow with the same id and reports
// whether one existed. Unlike AddFlow it does not record a conflict.
func (m *Model) ReplaceFlow(f Flow) bool {
	i, ok := m.flowIndex[f.ID]
	if !ok {
		return false
	}
	m.flows[i] = f
	return true
}

func (m *Model) Flow(id string) (Flow, bool) {
	i, ok := m.flowIndex[id]
	if !ok {
		return Flow{}, false
	}
	return m.flows[i], true
}

// Flows returns the registered flows sorted by id.
func (m *Model) Flows() []Flow {
	out := make([]Flow, len(m.flows))
	copy(out, m.flows)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Model) AddMetric(mt Metric) *Model {
	m.metrics = append(m.metrics, mt)
	return m
}

func (m *Model) AddObserver(o Observer) *Model {
	m.observers = append(m.observers, o)
	return m
}

// Validate reports configuration conflicts without altering the model:
// replaced stock or flow ids, stocks whose minimum exceeds their maximum and
// an invalid time step. The model still runs with such conflicts; duplicates
// keep the last definition and inverted bounds resolve to the maximum.
func (m *Model) Validate() error {
	errs := make([]error, 0, len(m.conflicts)+1)
	if err := validateTimeStep(m.dt); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, m.conflicts...)
	for _, id := range m.state.StockIDs() {
		s, _ := m.state.Stock(id)
		if s.boundsConflict() {
			errs = append(errs, &ConfigError{ID: id, Wrapped: ErrInvalidBounds})
		}
	}
	return errors.Join(errs...)
}

// Simulate advances the model by duration from its current time and returns
// every recorded state: one at the starting time and one after each step.
// Time and stock values persist, so consecutive calls continue the run.
func (m *Model) Simulate(duration float64) (*Result, error) {
	if err := validateTimeStep(m.dt); err != nil {
		return nil, err
	}
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, ErrInvalidDuration
	}

	result := newResult(m.name, m.dt, resultCapacity(duration, m.dt))

	for _, mt := range m.metrics {
		mt.Reset()
	}

	m.compile()
	end := m.state.Time + duration

	m.record(result)
	for m.state.Time < end {
		m.step()
		result.StepsTaken++
		m.record(result)
	}

	for _, mt := range m.metrics {
		result.Metrics[mt.Name()] = mt.Value()
	}
	return result, nil
}

// Step performs a single integration step. Observers are notified but
// nothing is recorded.
func (m *Model) Step() error {
	if err := validateTimeStep(m.dt); err != nil {
		return err
	}
	m.compile()
	m.step()
	for _, o := range m.observers {
		o.OnStep(m.state)
	}
	return nil
}

// resultCapacity is the number of points to reserve for a run of duration,
// at most maxPrealloc+1. The bound is applied before converting to int.
func resultCapacity(duration, dt float64) int {
	n := math.Ceil(duration / dt)
	if !(n < maxPrealloc) {
		n = maxPrealloc
	}
	return int(n) + 1
}

func validateTimeStep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return ErrInvalidTimeStep
	}
	return nil
}

// compile resolves flow endpoints against the current stock layout.
func (m *Model) compile() {
	if cap(m.compiled) < len(m.flows) {
		m.compiled = make([]compiledFlow, len(m.flows))
	}
	m.compiled = m.compiled[:len(m.flows)]
	for i, f := range m.flows {
		m.compiled[i] = compileFlow(f, m.state.index)
	}
	if cap(m.deriv) < m.state.Len() {
		m.deriv = make([]float64, m.state.Len())
	}
	m.deriv = m.deriv[:m.state.Len()]
}

func (m *Model) step() {
	m.snap.capture(m.state)

	for i := range m.deriv {
		m.deriv[i] = 0
	}

	for i := range m.compiled {
		cf := &m.compiled[i]
		rate := cf.evaluate(m.snap)
		if cf.from >= 0 {
			m.deriv[cf.from] -= rate
		}
		if cf.to >= 0 {
			m.deriv[cf.to] += rate
		}
	}

	stocks := m.state.stocks
	for i := range stocks {
		v := m.snap.values[i] + m.deriv[i]*m.dt
		stocks[i].CurrentValue = stocks[i].Clamp(v)
	}

	m.state.Time += m.dt
}

func (m *Model) record(r *Result) {
	r.Record(m.state.Time, m.state)
	for _, mt := range m.metrics {
		mt.Observe(m.state)
	}
	for _, o := range m.observers {
		o.OnStep(m.state)
	}
}
