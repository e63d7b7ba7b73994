package config

import "sort"

var Presets = map[string]map[string]*Config{
	"population": {
		"stella": {
			Model: "population", Dt: 1, Duration: 100,
		},
		"boom": {
			Model: "population", Dt: 1, Duration: 100,
			Params: map[string]float64{"birth_rate": 0.08},
		},
		"decline": {
			Model: "population", Dt: 1, Duration: 200,
			Params: map[string]float64{"initial": 500, "birth_rate": 0.01, "death_rate": 0.03},
		},
	},
	"working_memory": {
		"miller": {
			Model: "working_memory", Dt: 0.1, Duration: 20,
		},
		"overload": {
			Model: "working_memory", Dt: 0.1, Duration: 20,
			Params: map[string]float64{"encoding": 5},
		},
		"distracted": {
			Model: "working_memory", Dt: 0.1, Duration: 20,
			Params: map[string]float64{"forgetting": 0.6},
		},
	},
	"serial_position": {
		"classic": {
			Model: "serial_position", Dt: 0.1, Duration: 10,
		},
		"long_list": {
			Model: "serial_position", Dt: 0.1, Duration: 10,
			Params: map[string]float64{"size": 12},
		},
	},
	"tank": {
		"drain": {
			Model: "tank", Dt: 1, Duration: 5,
		},
		"overflow": {
			Model: "tank", Dt: 1, Duration: 10,
			Params: map[string]float64{"drain": 2, "fill": 6},
		},
	},
	"bathtub": {
		"filling": {
			Model: "bathtub", Dt: 1, Duration: 10,
		},
		"draining": {
			Model: "bathtub", Dt: 1, Duration: 10,
			Params: map[string]float64{"initial": 20, "inflow": 1, "outflow": 3},
		},
	},
	"oscillator": {
		"unit": {
			Model: "oscillator", Dt: 0.05, Duration: 60,
		},
		"stiff": {
			Model: "oscillator", Dt: 0.01, Duration: 30,
			Params: map[string]float64{"stiffness": 4},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil if it does not exist.
func GetPreset(model, name string) *Config {
	if presets, ok := Presets[model]; ok {
		if cfg, ok := presets[name]; ok {
			return cfg.Clone()
		}
	}
	return nil
}

// ListPresets returns the preset names for a model in sorted order.
func ListPresets(model string) []string {
	presets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
