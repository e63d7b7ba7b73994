package storage

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/stockflow/internal/dynamo"
)

// SeriesRecord is one row of series.csv: the value of one stock at one time.
type SeriesRecord struct {
	Time  float64 `csv:"time"`
	Stock string  `csv:"stock"`
	Value float64 `csv:"value"`
}

// Records flattens result into time-major rows with stocks in id order.
func Records(result *dynamo.Result) []*SeriesRecord {
	ids := result.StockIDs()
	records := make([]*SeriesRecord, 0, len(ids)*result.Len())
	for i, t := range result.TimeSeries {
		for _, id := range ids {
			vals := result.StockValues[id]
			if i >= len(vals) {
				continue
			}
			records = append(records, &SeriesRecord{Time: t, Stock: id, Value: vals[i]})
		}
	}
	return records
}

func WriteSeries(w io.Writer, result *dynamo.Result) error {
	return gocsv.Marshal(Records(result), w)
}

// ReadSeries parses rows written by WriteSeries. Model name, time step and
// metrics are not part of the series and stay empty.
func ReadSeries(r io.Reader) (*dynamo.Result, error) {
	var records []*SeriesRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, err
	}

	result := dynamo.NewResult("", 0)
	for i, rec := range records {
		if i == 0 || rec.Time != records[i-1].Time {
			result.TimeSeries = append(result.TimeSeries, rec.Time)
		}
		result.StockValues[rec.Stock] = append(result.StockValues[rec.Stock], rec.Value)
	}
	return result, nil
}
