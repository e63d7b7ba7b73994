package models

import "github.com/san-kum/stockflow/internal/dynamo"

// Population is the STELLA births/deaths model: one stock fed and drained by
// flows proportional to itself.
type Population struct {
	Initial   float64
	BirthRate float64
	DeathRate float64
}

func NewPopulation() *Population {
	return &Population{
		Initial:   25,
		BirthRate: 0.05,
		DeathRate: 1.0 / 60.0,
	}
}

func (p *Population) Name() string { return "population" }

func (p *Population) Apply(params map[string]float64) {
	set(params, "initial", &p.Initial)
	set(params, "birth_rate", &p.BirthRate)
	set(params, "death_rate", &p.DeathRate)
}

func (p *Population) Build() *dynamo.Model {
	return dynamo.New("population").
		AddStock(dynamo.NewStock("population", "Population", p.Initial, "people").WithMin(0)).
		AddFlow(dynamo.LinearFlow("births", "Birth Rate", p.BirthRate, 0, "population", "people/time").
			To("population")).
		AddFlow(dynamo.LinearFlow("deaths", "Death Rate", p.DeathRate, 0, "population", "people/time").
			From("population")).
		SetTimeStep(1)
}
