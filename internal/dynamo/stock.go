package dynamo

import "fmt"

// Stock is a named quantity integrated over simulated time.
type Stock struct {
	ID           string
	Name         string
	InitialValue float64
	CurrentValue float64
	Units        string
	Min          *float64
	Max          *float64
}

// NewStock returns an unbounded stock whose current value starts at initial.
func NewStock(id, name string, initial float64, units string) Stock {
	return Stock{
		ID:           id,
		Name:         name,
		InitialValue: initial,
		CurrentValue: initial,
		Units:        units,
	}
}

// WithMin returns a copy of s with its lower bound set to v.
func (s Stock) WithMin(v float64) Stock {
	s.Min = &v
	return s
}

// WithMax returns a copy of s with its upper bound set to v.
func (s Stock) WithMax(v float64) Stock {
	s.Max = &v
	return s
}

// Clamp projects v into the stock's bounds. The minimum is applied before the
// maximum, so a stock configured with min > max always resolves to max.
func (s *Stock) Clamp(v float64) float64 {
	if s.Min != nil && v < *s.Min {
		v = *s.Min
	}
	if s.Max != nil && v > *s.Max {
		v = *s.Max
	}
	return v
}

// Bounded reports whether v sits on one of the stock's bounds.
func (s *Stock) Bounded(v float64) bool {
	return (s.Min != nil && v == *s.Min) || (s.Max != nil && v == *s.Max)
}

func (s *Stock) boundsConflict() bool {
	return s.Min != nil && s.Max != nil && *s.Min > *s.Max
}

// StockArray describes Size stocks sharing a base id, units and bounds. It is
// expanded once into independent stocks named base[0] .. base[Size-1].
type StockArray struct {
	BaseID        string
	Name          string
	Size          int
	InitialValues []float64
	Units         string
	Min           *float64
	Max           *float64
}

// NewStockArray returns an array of size stocks all starting at initial.
func NewStockArray(baseID, name string, size int, initial float64, units string) StockArray {
	if size < 0 {
		size = 0
	}
	values := make([]float64, size)
	for i := range values {
		values[i] = initial
	}
	return StockArray{
		BaseID:        baseID,
		Name:          name,
		Size:          size,
		InitialValues: values,
		Units:         units,
	}
}

// StockArrayFromValues returns an array with one stock per entry of values.
func StockArrayFromValues(baseID, name string, values []float64, units string) StockArray {
	vals := make([]float64, len(values))
	copy(vals, values)
	return StockArray{
		BaseID:        baseID,
		Name:          name,
		Size:          len(vals),
		InitialValues: vals,
		Units:         units,
	}
}

func (a StockArray) WithMin(v float64) StockArray {
	a.Min = &v
	return a
}

func (a StockArray) WithMax(v float64) StockArray {
	a.Max = &v
	return a
}

// StockID returns the id of the i-th member, matching the ids Expand produces.
func (a StockArray) StockID(i int) string {
	return ArrayStockID(a.BaseID, i)
}

// ArrayStockID formats the id of element i of the array named base.
func ArrayStockID(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// Expand materializes the array into Size independent stocks.
func (a StockArray) Expand() []Stock {
	stocks := make([]Stock, a.Size)
	for i := range stocks {
		initial := 0.0
		if i < len(a.InitialValues) {
			initial = a.InitialValues[i]
		}
		s := NewStock(a.StockID(i), a.Name, initial, a.Units)
		if a.Min != nil {
			s = s.WithMin(*a.Min)
		}
		if a.Max != nil {
			s = s.WithMax(*a.Max)
		}
		stocks[i] = s
	}
	return stocks
}
