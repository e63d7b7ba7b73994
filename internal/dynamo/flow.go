package dynamo

// RateFunction produces a flow's instantaneous rate from a state. The set of
// implementations is closed: Constant and Linear.
type RateFunction interface {
	Evaluate(s StateReader) float64
	rateFunction()
}

// Constant always yields Rate.
type Constant struct {
	Rate float64
}

func (c Constant) Evaluate(StateReader) float64 { return c.Rate }
func (Constant) rateFunction()                   {}

// Linear yields Slope*value(Input) + Intercept. A missing input stock reads as
// zero, so the rate collapses to Intercept.
type Linear struct {
	Slope     float64
	Intercept float64
	Input     string
}

func (l Linear) Evaluate(s StateReader) float64 {
	v, ok := s.StockValue(l.Input)
	if !ok {
		v = 0
	}
	return l.at(v)
}

func (l Linear) at(v float64) float64 { return l.Slope*v + l.Intercept }
func (Linear) rateFunction()          {}

// Flow moves quantity out of Source and into Sink at the rate given by Rate.
// Either endpoint may be empty; a flow with neither is computed but inert.
// Endpoints are stock ids and are resolved only when the model steps.
type Flow struct {
	ID     string
	Name   string
	Source string
	Sink   string
	Rate   RateFunction
	Units  string
}

func ConstantFlow(id, name string, rate float64, units string) Flow {
	return Flow{ID: id, Name: name, Rate: Constant{Rate: rate}, Units: units}
}

func LinearFlow(id, name string, slope, intercept float64, input, units string) Flow {
	return Flow{
		ID:    id,
		Name:  name,
		Rate:  Linear{Slope: slope, Intercept: intercept, Input: input},
		Units: units,
	}
}

// From returns a copy of f draining the given stock.
func (f Flow) From(stockID string) Flow {
	f.Source = stockID
	return f
}

// To returns a copy of f filling the given stock.
func (f Flow) To(stockID string) Flow {
	f.Sink = stockID
	return f
}

// RateAt evaluates the flow against s. A flow without a rate function is zero.
func (f Flow) RateAt(s StateReader) float64 {
	if f.Rate == nil {
		return 0
	}
	return f.Rate.Evaluate(s)
}

// compiledFlow is a flow with its stock references resolved to state positions;
// -1 marks an endpoint that is unset or unknown.
type compiledFlow struct {
	rate  RateFunction
	from  int
	to    int
	input int
}

func compileFlow(f Flow, index map[string]int) compiledFlow {
	c := compiledFlow{rate: f.Rate, from: -1, to: -1, input: -1}
	if i, ok := index[f.Source]; ok && f.Source != "" {
		c.from = i
	}
	if i, ok := index[f.Sink]; ok && f.Sink != "" {
		c.to = i
	}
	if l, ok := f.Rate.(Linear); ok {
		if i, ok := index[l.Input]; ok {
			c.input = i
		}
	}
	return c
}

func (c *compiledFlow) evaluate(snap *Snapshot) float64 {
	switch r := c.rate.(type) {
	case nil:
		return 0
	case Constant:
		return r.Rate
	case Linear:
		if c.input < 0 {
			return r.at(0)
		}
		return r.at(snap.values[c.input])
	default:
		return r.Evaluate(snap)
	}
}
