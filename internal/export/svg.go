package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/stockflow/internal/analysis"
	"github.com/san-kum/stockflow/internal/dynamo"
)

var palette = []string{"#00ff88", "#00ccff", "#ff00ff", "#ffcc00", "#ff4444", "#88ff88", "#aa88ff"}

type bounds struct {
	minX, maxX, minY, maxY float64
}

// pad widens b by 10% on every side and gives flat ranges a unit span.
func (b bounds) pad() bounds {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return bounds{
		minX: b.minX - rangeX*0.1,
		maxX: b.maxX + rangeX*0.1,
		minY: b.minY - rangeY*0.1,
		maxY: b.maxY + rangeY*0.1,
	}
}

func (b bounds) project(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func path(sb *strings.Builder, xs, ys []float64, b bounds, width, height int, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i := range xs {
		x, y := b.project(xs[i], ys[i], width, height)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// SeriesToSVG draws the given stocks against time, one colored line each,
// with a legend in the top left corner.
func SeriesToSVG(result *dynamo.Result, ids []string, width, height int) (string, error) {
	if result.Len() < 2 {
		return "", fmt.Errorf("export: need at least two time points, have %d", result.Len())
	}

	b := bounds{
		minX: result.TimeSeries[0],
		maxX: result.FinalTime(),
		minY: math.Inf(1),
		maxY: math.Inf(-1),
	}
	plotted := make([]string, 0, len(ids))
	for _, id := range ids {
		vals, ok := result.StockValues[id]
		if !ok || len(vals) != result.Len() {
			continue
		}
		for _, v := range vals {
			b.minY, b.maxY = math.Min(b.minY, v), math.Max(b.maxY, v)
		}
		plotted = append(plotted, id)
	}
	if len(plotted) == 0 {
		return "", fmt.Errorf("%w: %s", dynamo.ErrUnknownStock, strings.Join(ids, ", "))
	}
	b = b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	for i, id := range plotted {
		path(&sb, result.TimeSeries, result.StockValues[id], b, width, height, palette[i%len(palette)])
	}
	for i, id := range plotted {
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+i*14, palette[i%len(palette)], id)
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// PhaseToSVG draws a phase portrait as a single path.
func PhaseToSVG(p *analysis.PhasePortrait, width, height int, strokeColor string) string {
	if p == nil || len(p.Points) < 2 {
		return ""
	}

	b := bounds{minX: p.Points[0].X, maxX: p.Points[0].X, minY: p.Points[0].Y, maxY: p.Points[0].Y}
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		b.minX, b.maxX = math.Min(b.minX, pt.X), math.Max(b.maxX, pt.X)
		b.minY, b.maxY = math.Min(b.minY, pt.Y), math.Max(b.maxY, pt.Y)
		xs[i], ys[i] = pt.X, pt.Y
	}
	b = b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, xs, ys, b, width, height, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}

func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
