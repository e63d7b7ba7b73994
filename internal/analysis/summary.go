package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// StockSummary describes the recorded series of one stock.
type StockSummary struct {
	ID        string
	Initial   float64
	Final     float64
	Min       float64
	Max       float64
	Mean      float64
	StdDev    float64
	NetChange float64
}

// Summarize returns one summary per recorded stock, in stock id order.
// Stocks with no recorded values are skipped.
func Summarize(result *dynamo.Result) []StockSummary {
	ids := result.StockIDs()
	out := make([]StockSummary, 0, len(ids))
	for _, id := range ids {
		vals := result.StockValues[id]
		if len(vals) == 0 {
			continue
		}
		out = append(out, SummarizeSeries(id, vals))
	}
	return out
}

func SummarizeSeries(id string, vals []float64) StockSummary {
	mean, std := stat.MeanStdDev(vals, nil)
	if len(vals) < 2 {
		std = 0
	}
	first, last := vals[0], vals[len(vals)-1]
	return StockSummary{
		ID:        id,
		Initial:   first,
		Final:     last,
		Min:       floats.Min(vals),
		Max:       floats.Max(vals),
		Mean:      mean,
		StdDev:    std,
		NetChange: last - first,
	}
}

// SettlingTime returns the earliest recorded time after which every value
// stays within tol of the final value. ok is false for empty or mismatched
// input.
func SettlingTime(times, vals []float64, tol float64) (float64, bool) {
	if len(vals) == 0 || len(times) != len(vals) {
		return 0, false
	}
	final := vals[len(vals)-1]
	settled := len(vals) - 1
	for i := len(vals) - 1; i >= 0; i-- {
		if math.Abs(vals[i]-final) > tol {
			break
		}
		settled = i
	}
	return times[settled], true
}
