package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// ExportData is the JSON form of a result. Values that diverged to an
// infinity or NaN are written as strings, see Float.
type ExportData struct {
	Model       string             `json:"model"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	Times       []Float            `json:"times"`
	StockValues map[string][]Float `json:"stock_values"`
	Metrics     map[string]Float   `json:"metrics,omitempty"`
}

func NewExportData(duration float64, result *dynamo.Result) ExportData {
	values := make(map[string][]Float, len(result.StockValues))
	for id, vals := range result.StockValues {
		values[id] = toFloats(vals)
	}
	return ExportData{
		Model:       result.Model,
		Dt:          result.TimeStep,
		Duration:    duration,
		Steps:       result.StepsTaken,
		Times:       toFloats(result.TimeSeries),
		StockValues: values,
		Metrics:     toFloatMap(result.Metrics),
	}
}

func ExportJSON(w io.Writer, duration float64, result *dynamo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(duration, result))
}

func ExportJSONFile(path string, duration float64, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(f, duration, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ExportCSVFile(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSeries(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
