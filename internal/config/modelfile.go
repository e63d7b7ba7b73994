package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// Rate kinds accepted in a model file.
const (
	RateConstant = "constant"
	RateLinear   = "linear"
)

var (
	ErrMissingID       = errors.New("config: missing id")
	ErrUnknownRateKind = errors.New("config: unknown rate kind")
	ErrArraySize       = errors.New("config: array size must be at least 1")
	ErrArrayValues     = errors.New("config: array values do not match size")
)

// ModelFile is the YAML form of a stock-and-flow model.
//
//	name: bathtub
//	dt: 1
//	duration: 5
//	stocks:
//	  - id: amount
//	    initial: 0
//	flows:
//	  - id: input
//	    to: amount
//	    rate: {kind: constant, value: 2}
type ModelFile struct {
	Name     string      `yaml:"name"`
	Dt       float64     `yaml:"dt,omitempty"`
	Duration float64     `yaml:"duration,omitempty"`
	Stocks   []StockSpec `yaml:"stocks,omitempty"`
	Arrays   []ArraySpec `yaml:"arrays,omitempty"`
	Flows    []FlowSpec  `yaml:"flows,omitempty"`
}

type StockSpec struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name,omitempty"`
	Initial float64  `yaml:"initial"`
	Units   string   `yaml:"units,omitempty"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
}

// ArraySpec declares Size stocks id[0] .. id[Size-1]. Values, when present,
// gives each member its own initial value and must have Size entries.
type ArraySpec struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name,omitempty"`
	Size    int       `yaml:"size"`
	Initial float64   `yaml:"initial,omitempty"`
	Values  []float64 `yaml:"values,omitempty"`
	Units   string    `yaml:"units,omitempty"`
	Min     *float64  `yaml:"min,omitempty"`
	Max     *float64  `yaml:"max,omitempty"`
}

type FlowSpec struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name,omitempty"`
	From  string   `yaml:"from,omitempty"`
	To    string   `yaml:"to,omitempty"`
	Units string   `yaml:"units,omitempty"`
	Rate  RateSpec `yaml:"rate"`
}

type RateSpec struct {
	Kind      string  `yaml:"kind"`
	Value     float64 `yaml:"value,omitempty"`
	Slope     float64 `yaml:"slope,omitempty"`
	Intercept float64 `yaml:"intercept,omitempty"`
	Input     string  `yaml:"input,omitempty"`
}

func LoadModel(path string) (*ModelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseModel(data)
}

func ParseModel(data []byte) (*ModelFile, error) {
	mf := &ModelFile{Dt: DefaultDt, Duration: DefaultDuration}
	if err := yaml.Unmarshal(data, mf); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return mf, nil
}

func SaveModel(path string, mf *ModelFile) error {
	data, err := yaml.Marshal(mf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Build validates the file and turns it into a model. Unlike the programmatic
// builder it rejects duplicate ids and inverted bounds. Flows that name
// stocks missing from the file are legal and only logged.
func (mf *ModelFile) Build() (*dynamo.Model, error) {
	if mf.Dt <= 0 {
		return nil, fmt.Errorf("model %q: %w", mf.Name, dynamo.ErrInvalidTimeStep)
	}

	m := dynamo.New(mf.Name).SetTimeStep(mf.Dt)
	stocks := make(map[string]bool)

	addStock := func(s dynamo.Stock) error {
		if stocks[s.ID] {
			return &dynamo.ConfigError{ID: s.ID, Wrapped: dynamo.ErrDuplicateStock}
		}
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return &dynamo.ConfigError{ID: s.ID, Wrapped: dynamo.ErrInvalidBounds}
		}
		stocks[s.ID] = true
		m.AddStock(s)
		return nil
	}

	for _, spec := range mf.Stocks {
		if spec.ID == "" {
			return nil, fmt.Errorf("stock: %w", ErrMissingID)
		}
		s := dynamo.NewStock(spec.ID, spec.Name, spec.Initial, spec.Units)
		s.Min, s.Max = spec.Min, spec.Max
		if err := addStock(s); err != nil {
			return nil, err
		}
	}

	for _, spec := range mf.Arrays {
		arr, err := spec.array()
		if err != nil {
			return nil, err
		}
		for _, s := range arr.Expand() {
			if err := addStock(s); err != nil {
				return nil, err
			}
		}
	}

	flows := make(map[string]bool)
	for _, spec := range mf.Flows {
		if spec.ID == "" {
			return nil, fmt.Errorf("flow: %w", ErrMissingID)
		}
		if flows[spec.ID] {
			return nil, &dynamo.ConfigError{ID: spec.ID, Wrapped: dynamo.ErrDuplicateFlow}
		}
		f, err := spec.Flow()
		if err != nil {
			return nil, err
		}
		for _, ref := range []string{f.Source, f.Sink, inputOf(f.Rate)} {
			if ref != "" && !stocks[ref] {
				slog.Warn("flow references unknown stock", "model", mf.Name, "flow", f.ID, "stock", ref)
			}
		}
		flows[spec.ID] = true
		m.AddFlow(f)
	}

	return m, nil
}

func (a ArraySpec) array() (dynamo.StockArray, error) {
	if a.ID == "" {
		return dynamo.StockArray{}, fmt.Errorf("array: %w", ErrMissingID)
	}
	if a.Size < 1 {
		return dynamo.StockArray{}, &dynamo.ConfigError{ID: a.ID, Wrapped: ErrArraySize}
	}

	var arr dynamo.StockArray
	if len(a.Values) > 0 {
		if len(a.Values) != a.Size {
			return dynamo.StockArray{}, &dynamo.ConfigError{ID: a.ID, Wrapped: ErrArrayValues}
		}
		arr = dynamo.StockArrayFromValues(a.ID, a.Name, a.Values, a.Units)
	} else {
		arr = dynamo.NewStockArray(a.ID, a.Name, a.Size, a.Initial, a.Units)
	}
	arr.Min, arr.Max = a.Min, a.Max
	return arr, nil
}

// Flow converts the spec into a dynamo.Flow without checking its references.
func (f FlowSpec) Flow() (dynamo.Flow, error) {
	var out dynamo.Flow
	switch f.Rate.Kind {
	case RateConstant:
		out = dynamo.ConstantFlow(f.ID, f.Name, f.Rate.Value, f.Units)
	case RateLinear:
		out = dynamo.LinearFlow(f.ID, f.Name, f.Rate.Slope, f.Rate.Intercept, f.Rate.Input, f.Units)
	default:
		return dynamo.Flow{}, fmt.Errorf("flow %q: %w: %q", f.ID, ErrUnknownRateKind, f.Rate.Kind)
	}
	out.Source = f.From
	out.Sink = f.To
	return out, nil
}

func inputOf(r dynamo.RateFunction) string {
	if l, ok := r.(dynamo.Linear); ok {
		return l.Input
	}
	return ""
}

// FromModel describes m as a model file. Stock arrays appear as their
// expanded member stocks.
func FromModel(m *dynamo.Model, duration float64) *ModelFile {
	mf := &ModelFile{
		Name:     m.Name(),
		Dt:       m.TimeStep(),
		Duration: duration,
	}

	state := m.State()
	for _, id := range state.StockIDs() {
		s, _ := state.Stock(id)
		mf.Stocks = append(mf.Stocks, StockSpec{
			ID:      s.ID,
			Name:    s.Name,
			Initial: s.CurrentValue,
			Units:   s.Units,
			Min:     s.Min,
			Max:     s.Max,
		})
	}

	for _, f := range m.Flows() {
		spec := FlowSpec{ID: f.ID, Name: f.Name, From: f.Source, To: f.Sink, Units: f.Units}
		switch r := f.Rate.(type) {
		case dynamo.Constant:
			spec.Rate = RateSpec{Kind: RateConstant, Value: r.Rate}
		case dynamo.Linear:
			spec.Rate = RateSpec{Kind: RateLinear, Slope: r.Slope, Intercept: r.Intercept, Input: r.Input}
		default:
			spec.Rate = RateSpec{Kind: RateConstant}
		}
		mf.Flows = append(mf.Flows, spec)
	}

	return mf
}
