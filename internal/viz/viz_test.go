package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/models"
)

func bathtubResult(t *testing.T) *dynamo.Result {
	t.Helper()
	m := models.NewBathtub().Build().AddMetric(countMetric{})
	res, err := m.Simulate(5)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

type countMetric struct{}

func (countMetric) Name() string                { return "count" }
func (countMetric) Observe(*dynamo.SystemState) {}
func (countMetric) Value() float64              { return 6 }
func (countMetric) Reset()                      {}

func TestSummary(t *testing.T) {
	out := Summary(bathtubResult(t))

	for _, want := range []string{"bathtub", "amount", "5.0000", "count", "6.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestDetailed(t *testing.T) {
	res := bathtubResult(t)

	out := Detailed(res, []string{"amount", "missing"}, 2)
	for _, want := range []string{"time", "amount", "missing", "0.0000", "2.0000", "5.0000", "-"} {
		if !strings.Contains(out, want) {
			t.Errorf("detailed missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "1.0000") {
		t.Errorf("stride 2 should skip t=1:\n%s", out)
	}
}

func TestPlot(t *testing.T) {
	res := bathtubResult(t)

	out, err := Plot(res, []string{"amount", "ghost"}, 5, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bathtub: amount") {
		t.Errorf("expected caption naming the plotted stock:\n%s", out)
	}

	if _, err := Plot(res, []string{"ghost"}, 5, 20); !errors.Is(err, dynamo.ErrUnknownStock) {
		t.Errorf("expected ErrUnknownStock, got %v", err)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 4); got != "────" {
		t.Errorf("expected flat line for no data, got %q", got)
	}
	out := Sparkline([]float64{0, 1, 2, 3}, 4)
	if !strings.ContainsRune(out, '▁') || !strings.ContainsRune(out, '█') {
		t.Errorf("expected lowest and highest blocks, got %q", out)
	}
}

func fixedBuild(build func() *dynamo.Model) func() (*dynamo.Model, error) {
	return func() (*dynamo.Model, error) { return build(), nil }
}

func newLive(t *testing.T, name string, build func() *dynamo.Model, duration float64) LiveModel {
	t.Helper()
	lm, err := NewLiveModel(name, fixedBuild(build), duration)
	if err != nil {
		t.Fatal(err)
	}
	return lm
}

func TestLiveModelRunsToDuration(t *testing.T) {
	lm := newLive(t, "bathtub", models.NewBathtub().Build, 3)

	var model tea.Model = lm
	for i := 0; i < 10; i++ {
		model, _ = model.Update(TickMsg{})
	}
	lm = model.(LiveModel)

	if !lm.Done() {
		t.Error("expected the run to finish")
	}
	if lm.Time() != 3 {
		t.Errorf("expected time 3, got %f", lm.Time())
	}
	hist := lm.History("amount")
	if len(hist) != 4 || hist[3] != 3 {
		t.Errorf("unexpected history %v", hist)
	}
	if !strings.Contains(lm.View(), "DONE") {
		t.Error("expected DONE status in view")
	}
}

func TestLiveModelKeys(t *testing.T) {
	var model tea.Model = newLive(t, "tank", models.NewTank().Build, 10)

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	model, _ = model.Update(TickMsg{})
	if model.(LiveModel).Time() != 0 {
		t.Error("paused model should not advance")
	}
	if !strings.Contains(model.View(), "PAUSED") {
		t.Error("expected PAUSED status in view")
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	model, _ = model.Update(TickMsg{})
	if got := model.(LiveModel).Time(); got != 2 {
		t.Errorf("expected two steps at double speed, got time %f", got)
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if got := model.(LiveModel).Time(); got != 0 {
		t.Errorf("expected restart at time 0, got %f", got)
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLiveModelStepError(t *testing.T) {
	build := func() *dynamo.Model {
		return dynamo.New("broken").SetTimeStep(0)
	}
	var model tea.Model = newLive(t, "broken", build, 1)
	model, _ = model.Update(TickMsg{})

	lm := model.(LiveModel)
	if !lm.Done() {
		t.Error("expected the run to stop on error")
	}
	if !strings.Contains(lm.View(), "ERROR") {
		t.Error("expected ERROR status in view")
	}
}

func TestLiveModelBuildError(t *testing.T) {
	boom := errors.New("bad model file")
	if _, err := NewLiveModel("broken", func() (*dynamo.Model, error) { return nil, boom }, 1); !errors.Is(err, boom) {
		t.Fatalf("expected build error, got %v", err)
	}

	builds := 0
	build := func() (*dynamo.Model, error) {
		builds++
		if builds > 1 {
			return nil, boom
		}
		return models.NewBathtub().Build(), nil
	}
	lm, err := NewLiveModel("bathtub", build, 3)
	if err != nil {
		t.Fatal(err)
	}

	var model tea.Model = lm
	model, _ = model.Update(TickMsg{})
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})

	lm = model.(LiveModel)
	if !lm.Done() {
		t.Error("expected a failed restart to stop the run")
	}
	if lm.Time() != 1 {
		t.Errorf("expected the previous model to stay at time 1, got %f", lm.Time())
	}
	if !strings.Contains(lm.View(), "bad model file") {
		t.Error("expected the build error in the view")
	}
}
