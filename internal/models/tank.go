package models

import "github.com/san-kum/stockflow/internal/dynamo"

// Tank drains a bounded reservoir at a constant rate and optionally refills it.
type Tank struct {
	Level    float64
	Capacity float64
	Drain    float64
	Fill     float64
}

func NewTank() *Tank {
	return &Tank{
		Level:    10,
		Capacity: 15,
		Drain:    5,
	}
}

func (t *Tank) Name() string { return "tank" }

func (t *Tank) Apply(params map[string]float64) {
	set(params, "level", &t.Level)
	set(params, "capacity", &t.Capacity)
	set(params, "drain", &t.Drain)
	set(params, "fill", &t.Fill)
}

func (t *Tank) Build() *dynamo.Model {
	m := dynamo.New("tank").
		AddStock(dynamo.NewStock("tank", "Tank", t.Level, "l").WithMin(0).WithMax(t.Capacity)).
		AddFlow(dynamo.ConstantFlow("drain", "Drain", t.Drain, "l/s").From("tank"))
	if t.Fill != 0 {
		m.AddFlow(dynamo.ConstantFlow("fill", "Fill", t.Fill, "l/s").To("tank"))
	}
	return m.SetTimeStep(1)
}
