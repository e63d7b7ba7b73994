package viz

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/stockflow/internal/analysis"
	"github.com/san-kum/stockflow/internal/dynamo"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderCell
			}
			return Cell
		}).
		Headers(headers...)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Summary renders the run header, one row per stock and any metric values.
func Summary(result *dynamo.Result) string {
	var sb strings.Builder

	sb.WriteString(Title.Render("Simulation: "+result.Model) + "\n")
	sb.WriteString(MetricLabel.Render("time step  ") + MetricValue.Render(num(result.TimeStep)) + "\n")
	sb.WriteString(MetricLabel.Render("steps      ") + MetricValue.Render(strconv.Itoa(result.StepsTaken)) + "\n")
	sb.WriteString(MetricLabel.Render("final time ") + MetricValue.Render(num(result.FinalTime())) + "\n")

	t := newTable("stock", "initial", "final", "min", "max", "mean", "change")
	for _, s := range analysis.Summarize(result) {
		t.Row(s.ID, num(s.Initial), num(s.Final), num(s.Min), num(s.Max), num(s.Mean), num(s.NetChange))
	}
	sb.WriteString(t.Render() + "\n")

	if len(result.Metrics) > 0 {
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		mt := newTable("metric", "value")
		for _, name := range names {
			mt.Row(name, num(result.Metrics[name]))
		}
		sb.WriteString(mt.Render() + "\n")
	}

	return sb.String()
}

// Detailed renders one row per recorded time with a column per requested
// stock. Every stride-th row is shown plus the last one. Stocks without a
// value at a time show "-".
func Detailed(result *dynamo.Result, ids []string, stride int) string {
	if stride < 1 {
		stride = 1
	}

	t := newTable(append([]string{"time"}, ids...)...)
	last := result.Len() - 1
	for i, tm := range result.TimeSeries {
		if i%stride != 0 && i != last {
			continue
		}
		row := make([]string, 0, len(ids)+1)
		row = append(row, num(tm))
		for _, id := range ids {
			vals := result.StockValues[id]
			if i < len(vals) {
				row = append(row, num(vals[i]))
			} else {
				row = append(row, "-")
			}
		}
		t.Row(row...)
	}
	return t.Render()
}

// Plot draws the series of the given stocks on one asciigraph chart. Unknown
// stocks are skipped; it returns an error when none remain.
func Plot(result *dynamo.Result, ids []string, height, width int) (string, error) {
	data := make([][]float64, 0, len(ids))
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		vals, ok := result.StockValues[id]
		if !ok || len(vals) == 0 {
			continue
		}
		data = append(data, vals)
		names = append(names, id)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", dynamo.ErrUnknownStock, strings.Join(ids, ", "))
	}

	caption := fmt.Sprintf("%s: %s (t=0..%s)", result.Model, strings.Join(names, ", "), num(result.FinalTime()))
	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}
