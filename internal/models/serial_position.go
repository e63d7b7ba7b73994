package models

import (
	"fmt"
	"math"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// SerialPosition models the strength of each position in a remembered list.
// Every position decays in proportion to itself; early positions gain from
// rehearsal and late positions from recency, which leaves a U-shaped curve.
type SerialPosition struct {
	Size      int
	Initial   float64
	Decay     float64
	Rehearsal float64
	Recency   float64
}

func NewSerialPosition() *SerialPosition {
	return &SerialPosition{
		Size:      7,
		Initial:   0.5,
		Decay:     0.1,
		Rehearsal: 0.1,
		Recency:   0.05,
	}
}

func (s *SerialPosition) Name() string { return "serial_position" }

func (s *SerialPosition) Apply(params map[string]float64) {
	if v, ok := params["size"]; ok {
		s.Size = int(v)
	}
	set(params, "initial", &s.Initial)
	set(params, "decay", &s.Decay)
	set(params, "rehearsal", &s.Rehearsal)
	set(params, "recency", &s.Recency)
}

// Array returns the strength array the model is built on.
func (s *SerialPosition) Array() dynamo.StockArray {
	return dynamo.NewStockArray("strength", "Memory Strength", s.Size, s.Initial, "strength").
		WithMin(0).
		WithMax(1)
}

func (s *SerialPosition) Build() *dynamo.Model {
	arr := s.Array()
	m := dynamo.New("serial_position").AddStockArray(arr)

	for i := 0; i < arr.Size; i++ {
		id := arr.StockID(i)
		m.AddFlow(dynamo.LinearFlow(
			fmt.Sprintf("decay_%d", i), fmt.Sprintf("Decay [%d]", i),
			s.Decay, 0, id, "strength/sec",
		).From(id))
	}

	for i := 0; i < arr.Size; i++ {
		rate := s.Rehearsal - float64(i)*0.01
		m.AddFlow(dynamo.ConstantFlow(
			fmt.Sprintf("rehearsal_%d", i), fmt.Sprintf("Rehearsal [%d]", i),
			rate, "strength/sec",
		).To(arr.StockID(i)))
	}

	for i := 0; i < arr.Size; i++ {
		distance := float64(arr.Size - 1 - i)
		rate := math.Max(s.Recency-distance*0.02, 0)
		m.AddFlow(dynamo.ConstantFlow(
			fmt.Sprintf("recency_%d", i), fmt.Sprintf("Recency [%d]", i),
			rate, "strength/sec",
		).To(arr.StockID(i)))
	}

	return m.SetTimeStep(0.1)
}
