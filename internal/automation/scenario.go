package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stockflow/internal/config"
	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
)

// Scenario runs one model through ordered phases. Each phase continues from
// where the previous one stopped, after applying its own edits.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Model       string             `yaml:"model,omitempty"`
	Definition  *config.ModelFile  `yaml:"definition,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Dt          float64            `yaml:"dt,omitempty"`
	Phases      []Phase            `yaml:"phases"`
}

// Phase edits the model and then simulates it for Duration. Set overrides
// current stock values, Flows adds or replaces flows and RemoveStocks drops
// stocks.
type Phase struct {
	Name         string             `yaml:"name"`
	Duration     float64            `yaml:"duration"`
	Set          map[string]float64 `yaml:"set,omitempty"`
	Flows        []config.FlowSpec  `yaml:"flows,omitempty"`
	RemoveStocks []string           `yaml:"remove_stocks,omitempty"`
}

type PhaseResult struct {
	Phase  string
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &scenario, nil
}

// Build creates the scenario's starting model, either from the inline
// definition or from the named built-in model.
func (s *Scenario) Build(registry *experiment.Registry) (*dynamo.Model, error) {
	var m *dynamo.Model
	switch {
	case s.Definition != nil:
		def := *s.Definition
		if def.Dt == 0 {
			def.Dt = config.DefaultDt
		}
		built, err := def.Build()
		if err != nil {
			return nil, err
		}
		m = built
	case s.Model != "":
		def, err := registry.GetModel(s.Model)
		if err != nil {
			return nil, err
		}
		def.Apply(s.Params)
		m = def.Build()
	default:
		return nil, fmt.Errorf("scenario %q: no model or definition", s.Name)
	}
	if s.Dt != 0 {
		m.SetTimeStep(s.Dt)
	}
	return m, nil
}

// RunScenario executes every phase in order and returns one result per phase.
// Results gathered before a failing phase are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, logger *slog.Logger) ([]PhaseResult, error) {
	m, err := scenario.Build(registry)
	if err != nil {
		return nil, err
	}

	results := make([]PhaseResult, 0, len(scenario.Phases))
	for i, phase := range scenario.Phases {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := phase.Name
		if name == "" {
			name = fmt.Sprintf("phase_%d", i+1)
		}
		logger.Info("running phase",
			"scenario", scenario.Name,
			"phase", name,
			"index", i+1,
			"of", len(scenario.Phases),
			"start", m.Time(),
		)

		if err := phase.apply(m, logger); err != nil {
			return results, fmt.Errorf("phase %d (%s): %w", i+1, name, err)
		}

		result, err := m.Simulate(phase.Duration)
		if err != nil {
			return results, fmt.Errorf("phase %d (%s) run: %w", i+1, name, err)
		}
		results = append(results, PhaseResult{Phase: name, Result: result})
	}

	return results, nil
}

func (p Phase) apply(m *dynamo.Model, logger *slog.Logger) error {
	for _, id := range p.RemoveStocks {
		m.RemoveStock(id)
	}

	state := m.State()
	for id, v := range p.Set {
		if !state.Has(id) {
			logger.Warn("ignoring value for unknown stock", "stock", id)
			continue
		}
		state.SetStockValue(id, v)
	}

	for _, spec := range p.Flows {
		f, err := spec.Flow()
		if err != nil {
			return err
		}
		if m.ReplaceFlow(f) {
			logger.Debug("replacing flow", "flow", f.ID)
			continue
		}
		m.AddFlow(f)
	}
	return nil
}
