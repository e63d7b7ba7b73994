package models

import "github.com/san-kum/stockflow/internal/dynamo"

// WorkingMemory holds items in a stock capped at Capacity. Encoding adds items
// at a constant rate and forgetting grows with the current load.
type WorkingMemory struct {
	Capacity   float64
	Encoding   float64
	Forgetting float64
}

func NewWorkingMemory() *WorkingMemory {
	return &WorkingMemory{
		Capacity:   7,
		Encoding:   2,
		Forgetting: 0.15,
	}
}

func (w *WorkingMemory) Name() string { return "working_memory" }

func (w *WorkingMemory) Apply(params map[string]float64) {
	set(params, "capacity", &w.Capacity)
	set(params, "encoding", &w.Encoding)
	set(params, "forgetting", &w.Forgetting)
}

func (w *WorkingMemory) Build() *dynamo.Model {
	const items = "items_in_memory"
	return dynamo.New("working_memory").
		AddStock(dynamo.NewStock(items, "Items in Working Memory", 0, "items").
			WithMin(0).
			WithMax(w.Capacity)).
		AddFlow(dynamo.ConstantFlow("encoding", "Encoding Rate", w.Encoding, "items/sec").To(items)).
		AddFlow(dynamo.LinearFlow("forgetting", "Forgetting Rate", w.Forgetting, 0, items, "items/sec").
			From(items)).
		SetTimeStep(0.1)
}
