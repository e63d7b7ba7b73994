package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/metrics"
	"github.com/san-kum/stockflow/internal/models"
)

type Registry struct {
	models map[string]func() models.Definition
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]func() models.Definition),
	}

	r.models["population"] = func() models.Definition { return models.NewPopulation() }
	r.models["working_memory"] = func() models.Definition { return models.NewWorkingMemory() }
	r.models["serial_position"] = func() models.Definition { return models.NewSerialPosition() }
	r.models["tank"] = func() models.Definition { return models.NewTank() }
	r.models["bathtub"] = func() models.Definition { return models.NewBathtub() }
	r.models["oscillator"] = func() models.Definition { return models.NewOscillator() }

	return r
}

// Register adds or replaces a model factory.
func (r *Registry) Register(name string, fn func() models.Definition) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (models.Definition, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

// ListModels returns the registered model names in sorted order.
func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns fresh metrics suited to a model.
func (r *Registry) DefaultMetrics(model string) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewStability(1e6),
		metrics.NewDrift(),
	}
	switch model {
	case "tank":
		ms = append(ms, metrics.NewSaturation("tank"))
	case "working_memory":
		ms = append(ms, metrics.NewSaturation("items_in_memory"))
	}
	return ms
}
