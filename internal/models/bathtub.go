package models

import "github.com/san-kum/stockflow/internal/dynamo"

// Bathtub is the textbook stock with one constant inflow and one constant
// outflow. Its level changes linearly by (Inflow-Outflow) per unit time.
type Bathtub struct {
	Initial float64
	Inflow  float64
	Outflow float64
}

func NewBathtub() *Bathtub {
	return &Bathtub{
		Initial: 0,
		Inflow:  2,
		Outflow: 1,
	}
}

func (b *Bathtub) Name() string { return "bathtub" }

func (b *Bathtub) Apply(params map[string]float64) {
	set(params, "initial", &b.Initial)
	set(params, "inflow", &b.Inflow)
	set(params, "outflow", &b.Outflow)
}

func (b *Bathtub) Build() *dynamo.Model {
	return dynamo.New("bathtub").
		AddStock(dynamo.NewStock("amount", "Amount", b.Initial, "units")).
		AddFlow(dynamo.ConstantFlow("input", "Input", b.Inflow, "units").To("amount")).
		AddFlow(dynamo.ConstantFlow("output", "Output", b.Outflow, "units").From("amount")).
		SetTimeStep(1)
}
