package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/models"
)

// Config selects a model and how long to run it. A zero Dt keeps the model's
// own time step.
type Config struct {
	Model    string
	Dt       float64
	Duration float64
	Params   map[string]float64
}

type Experiment struct {
	cfg   Config
	model *dynamo.Model
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup applies the configured parameters to def and builds the model.
func (e *Experiment) Setup(def models.Definition, metrics []dynamo.Metric) error {
	if def == nil {
		return fmt.Errorf("experiment: no model definition")
	}
	def.Apply(e.cfg.Params)
	e.model = def.Build()
	if e.cfg.Dt != 0 {
		e.model.SetTimeStep(e.cfg.Dt)
	}
	for _, m := range metrics {
		e.model.AddMetric(m)
	}
	return nil
}

// SetupModel uses an already built model, such as one loaded from a file.
func (e *Experiment) SetupModel(m *dynamo.Model, metrics []dynamo.Metric) {
	e.model = m
	if e.cfg.Dt != 0 {
		m.SetTimeStep(e.cfg.Dt)
	}
	for _, mt := range metrics {
		m.AddMetric(mt)
	}
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.model.Simulate(e.cfg.Duration)
}

// Model returns the underlying model for adding observers.
func (e *Experiment) Model() *dynamo.Model {
	return e.model
}
