package models

import "github.com/san-kum/stockflow/internal/dynamo"

// Oscillator couples a position and a velocity stock. Velocity feeds position
// and position drains velocity in proportion to Stiffness, so the pair swings
// with period 2π/√Stiffness. Explicit Euler slowly pumps energy into it.
type Oscillator struct {
	Stiffness float64
	Position  float64
	Velocity  float64
}

func NewOscillator() *Oscillator {
	return &Oscillator{
		Stiffness: 1,
		Position:  1,
		Velocity:  0,
	}
}

func (o *Oscillator) Name() string { return "oscillator" }

func (o *Oscillator) Apply(params map[string]float64) {
	set(params, "stiffness", &o.Stiffness)
	set(params, "position", &o.Position)
	set(params, "velocity", &o.Velocity)
}

func (o *Oscillator) Build() *dynamo.Model {
	return dynamo.New("oscillator").
		AddStock(dynamo.NewStock("x", "Position", o.Position, "m")).
		AddStock(dynamo.NewStock("v", "Velocity", o.Velocity, "m/s")).
		AddFlow(dynamo.LinearFlow("motion", "Motion", 1, 0, "v", "m/s").To("x")).
		AddFlow(dynamo.LinearFlow("restoring", "Restoring Force", o.Stiffness, 0, "x", "m/s²").From("v")).
		SetTimeStep(0.05)
}
