package dynamo

// StateReader looks up stock values by id. Both SystemState and Snapshot
// implement it.
type StateReader interface {
	StockValue(id string) (float64, bool)
}

// Metric accumulates a scalar over every recorded state of a run. Its final
// value is stored in Result.Metrics under Name.
type Metric interface {
	Name() string
	Observe(s *SystemState)
	Value() float64
	Reset()
}

// Observer is notified after every recorded state.
type Observer interface {
	OnStep(s *SystemState)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(s *SystemState)

func (f ObserverFunc) OnStep(s *SystemState) { f(s) }
