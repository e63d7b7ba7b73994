package export

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/stockflow/internal/analysis"
	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/models"
)

func TestSeriesToSVG(t *testing.T) {
	res, err := models.NewSerialPosition().Build().Simulate(2)
	if err != nil {
		t.Fatal(err)
	}

	svg, err := SeriesToSVG(res, []string{"strength[0]", "strength[6]", "nope"}, 400, 200)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("expected a complete svg document")
	}
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	if !strings.Contains(svg, ">strength[6]</text>") {
		t.Error("expected legend entry")
	}
}

func TestSeriesToSVGErrors(t *testing.T) {
	res, _ := models.NewBathtub().Build().Simulate(0)
	if _, err := SeriesToSVG(res, []string{"amount"}, 100, 100); err == nil {
		t.Error("expected error for a single time point")
	}

	res, _ = models.NewBathtub().Build().Simulate(3)
	if _, err := SeriesToSVG(res, []string{"x"}, 100, 100); !errors.Is(err, dynamo.ErrUnknownStock) {
		t.Errorf("expected ErrUnknownStock, got %v", err)
	}
}

func TestPhaseToSVG(t *testing.T) {
	res, err := models.NewOscillator().Build().Simulate(math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	p, err := analysis.NewPhasePortrait(res, "x", "v")
	if err != nil {
		t.Fatal(err)
	}

	svg := PhaseToSVG(p, 300, 300, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("expected stroke color")
	}
	if got := strings.Count(svg, " L"); got != len(p.Points)-1 {
		t.Errorf("expected %d segments, got %d", len(p.Points)-1, got)
	}

	if PhaseToSVG(nil, 10, 10, "#fff") != "" {
		t.Error("expected empty output for nil portrait")
	}

	path := filepath.Join(t.TempDir(), "phase.svg")
	if err := WriteFile(path, svg); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); string(data) != svg {
		t.Error("file content mismatch")
	}
}
