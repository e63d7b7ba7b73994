// Package models provides the built-in stock-and-flow models.
package models

import "github.com/san-kum/stockflow/internal/dynamo"

// Definition is a parameterized model that can be built into a fresh
// dynamo.Model any number of times.
type Definition interface {
	Name() string
	Apply(params map[string]float64)
	Build() *dynamo.Model
}

func set(params map[string]float64, key string, dst *float64) {
	if v, ok := params[key]; ok {
		*dst = v
	}
}
