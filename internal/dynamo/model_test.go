package dynamo

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestSimpleConstant(t *testing.T) {
	m := New("my_model")
	m.AddStock(NewStock("amount", "Amount", 0, "units")).
		AddFlow(ConstantFlow("input", "Input", 2, "units").To("amount")).
		AddFlow(ConstantFlow("output", "Output", 1, "units").From("amount")).
		SetTimeStep(1)

	res, err := m.Simulate(5)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	want := []float64{0, 1, 2, 3, 4, 5}
	if !reflect.DeepEqual(res.TimeSeries, want) {
		t.Errorf("time series = %v, want %v", res.TimeSeries, want)
	}
	if !reflect.DeepEqual(res.StockValues, map[string][]float64{"amount": want}) {
		t.Errorf("stock values = %v", res.StockValues)
	}
	if res.StepsTaken != 5 {
		t.Errorf("expected 5 steps, got %d", res.StepsTaken)
	}
}

func TestPopulationExample(t *testing.T) {
	m := New("stella_model")
	m.AddStock(NewStock("population", "Population", 25, "people")).
		AddFlow(LinearFlow("births", "Birth Rate", 0.05, 0, "population", "people/time").To("population")).
		AddFlow(LinearFlow("deaths", "Death Rate", 1.0/60.0, 0, "population", "people/time").From("population")).
		SetTimeStep(1)

	res, err := m.Simulate(100)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	final, ok := res.Final("population")
	if !ok {
		t.Fatal("population not recorded")
	}
	if math.Abs(664-final) > 1 {
		t.Errorf("expected final population ~664, got %.3f", final)
	}
	if res.Len() != 101 {
		t.Errorf("expected 101 points, got %d", res.Len())
	}
}

func TestBoundClamping(t *testing.T) {
	m := New("tank")
	m.AddStock(NewStock("tank", "Tank", 10, "l").WithMin(0).WithMax(15)).
		AddFlow(ConstantFlow("drain", "Drain", 5, "l/s").From("tank"))

	res, err := m.Simulate(3)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if got := res.StockValues["tank"]; !reflect.DeepEqual(got, []float64{10, 5, 0, 0}) {
		t.Errorf("drain phase = %v, want [10 5 0 0]", got)
	}

	m.AddFlow(ConstantFlow("fill", "Fill", 10, "l/s").To("tank"))
	res, err = m.Simulate(4)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if !reflect.DeepEqual(res.TimeSeries, []float64{3, 4, 5, 6, 7}) {
		t.Errorf("second call should continue in time, got %v", res.TimeSeries)
	}
	if got := res.StockValues["tank"]; !reflect.DeepEqual(got, []float64{0, 5, 10, 15, 15}) {
		t.Errorf("fill phase = %v, want [0 5 10 15 15]", got)
	}
}

func TestFlowsReadPreStepValues(t *testing.T) {
	m := New("chain")
	m.AddStock(NewStock("a", "A", 10, "")).
		AddStock(NewStock("b", "B", 0, "")).
		AddStock(NewStock("c", "C", 0, "")).
		AddFlow(LinearFlow("ab", "", 1, 0, "a", "").From("a").To("b")).
		AddFlow(LinearFlow("bc", "", 1, 0, "b", "").From("b").To("c"))

	res, err := m.Simulate(1)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	for id, want := range map[string]float64{"a": 0, "b": 10, "c": 0} {
		if got, _ := res.Final(id); got != want {
			t.Errorf("%s = %v, want %v", id, got, want)
		}
	}
}

func TestFlowOrderIndependence(t *testing.T) {
	flows := []Flow{
		LinearFlow("f1", "", 0.3, 0.1, "x", "").From("x").To("y"),
		LinearFlow("f2", "", 0.7, 0, "y", "").From("y").To("z"),
		ConstantFlow("f3", "", 1.25, "").To("x"),
		LinearFlow("f4", "", 0.05, 0, "z", "").From("z").To("x"),
	}
	build := func(order []int) *Model {
		m := New("order")
		m.AddStock(NewStock("x", "", 40, "")).
			AddStock(NewStock("y", "", 10, "")).
			AddStock(NewStock("z", "", 0, "")).
			SetTimeStep(0.25)
		for _, i := range order {
			m.AddFlow(flows[i])
		}
		return m
	}

	r1, err := build([]int{0, 1, 2, 3}).Simulate(20)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := build([]int{3, 2, 1, 0}).Simulate(20)
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range r1.StockIDs() {
		a, _ := r1.Series(id)
		b, _ := r2.Series(id)
		for i := range a {
			if math.Abs(a[i]-b[i]) > 1e-9 {
				t.Fatalf("%s[%d]: %v vs %v", id, i, a[i], b[i])
			}
		}
	}
}

func TestSelfLoopFlowNetsZero(t *testing.T) {
	m := New("loop")
	m.AddStock(NewStock("s", "S", 3, "")).
		AddFlow(ConstantFlow("spin", "", 100, "").From("s").To("s"))

	res, _ := m.Simulate(4)
	for i, v := range res.StockValues["s"] {
		if v != 3 {
			t.Errorf("value %d = %v, want 3", i, v)
		}
	}
}

func TestMissingReferences(t *testing.T) {
	m := New("dangling")
	m.AddStock(NewStock("s", "S", 0, "")).
		AddFlow(LinearFlow("in", "", 0.02, 5, "missing", "").To("s")).
		AddFlow(ConstantFlow("out", "", 1, "").From("nowhere")).
		AddFlow(ConstantFlow("inert", "", 1, ""))

	res, err := m.Simulate(2)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if got := res.StockValues["s"]; !reflect.DeepEqual(got, []float64{0, 5, 10}) {
		t.Errorf("values = %v, want [0 5 10]", got)
	}
}

func TestRemovedStockStopsContributing(t *testing.T) {
	m := New("remove")
	m.AddStock(NewStock("src", "", 100, "")).
		AddStock(NewStock("dst", "", 0, "")).
		AddFlow(LinearFlow("move", "", 0.1, 0, "src", "").From("src").To("dst"))

	if _, err := m.Simulate(1); err != nil {
		t.Fatal(err)
	}
	m.RemoveStock("src")

	res, err := m.Simulate(2)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.StockValues["dst"]; !reflect.DeepEqual(got, []float64{10, 10, 10}) {
		t.Errorf("dst = %v, want [10 10 10]", got)
	}
	if _, ok := res.StockValues["src"]; ok {
		t.Error("removed stock still recorded")
	}
}

func TestStockArrayInModel(t *testing.T) {
	arr := NewStockArray("memory", "Memory", 3, 1, "strength")
	m := New("array_test").AddStockArray(arr)
	for i := 0; i < arr.Size; i++ {
		m.AddFlow(ConstantFlow(ArrayStockID("decay", i), "Decay", 0.1, "strength/sec").From(arr.StockID(i)))
	}

	res, err := m.Simulate(5)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < arr.Size; i++ {
		vals, ok := res.Series(arr.StockID(i))
		if !ok {
			t.Fatalf("stock %s not recorded", arr.StockID(i))
		}
		if vals[0] <= vals[len(vals)-1] {
			t.Errorf("stock %d should have decayed: %v", i, vals)
		}
	}
}

func TestInvertedBoundsResolveToMax(t *testing.T) {
	m := New("inverted")
	m.AddStock(NewStock("s", "S", 3, "").WithMin(5).WithMax(1))

	res, err := m.Simulate(1)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.StockValues["s"]; !reflect.DeepEqual(got, []float64{3, 1}) {
		t.Errorf("values = %v, want [3 1]", got)
	}
	if err := m.Validate(); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("Validate() = %v, want ErrInvalidBounds", err)
	}
}

func TestDuplicateIDsOverwrite(t *testing.T) {
	m := New("dup")
	m.AddStock(NewStock("s", "first", 100, "")).
		AddStock(NewStock("s", "second", 1, "")).
		AddFlow(ConstantFlow("f", "", 50, "").To("s")).
		AddFlow(ConstantFlow("f", "", 2, "").To("s"))

	res, err := m.Simulate(1)
	if err != nil {
		t.Fatalf("duplicates must not stop a run: %v", err)
	}
	if got := res.StockValues["s"]; !reflect.DeepEqual(got, []float64{1, 3}) {
		t.Errorf("values = %v, want [1 3]", got)
	}
	if len(m.Flows()) != 1 {
		t.Errorf("expected one flow after overwrite, got %d", len(m.Flows()))
	}

	err = m.Validate()
	if !errors.Is(err, ErrDuplicateStock) || !errors.Is(err, ErrDuplicateFlow) {
		t.Errorf("Validate() = %v, want duplicate stock and flow", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.ID == "" {
		t.Errorf("expected a ConfigError carrying the id, got %v", err)
	}
}

func TestReplaceFlow(t *testing.T) {
	m := New("swap").
		AddStock(NewStock("s", "", 0, "")).
		AddFlow(ConstantFlow("f", "", 50, "").To("s"))

	if !m.ReplaceFlow(ConstantFlow("f", "", 2, "").To("s")) {
		t.Fatal("expected f to be replaced")
	}
	if m.ReplaceFlow(ConstantFlow("g", "", 1, "").To("s")) {
		t.Error("expected unknown flow g not to be added")
	}
	if len(m.Flows()) != 1 {
		t.Errorf("expected one flow, got %d", len(m.Flows()))
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil after replace", err)
	}

	res, err := m.Simulate(1)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := res.Final("s"); got != 2 {
		t.Errorf("final = %v, want 2", got)
	}
}

func TestValidateCleanModel(t *testing.T) {
	m := New("ok")
	m.AddStock(NewStock("s", "S", 0, "").WithMin(0).WithMax(1))
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSimulateInvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		dt       float64
		duration float64
		want     error
	}{
		{"zero dt", 0, 1, ErrInvalidTimeStep},
		{"negative dt", -0.1, 1, ErrInvalidTimeStep},
		{"nan dt", math.NaN(), 1, ErrInvalidTimeStep},
		{"inf dt", math.Inf(1), 1, ErrInvalidTimeStep},
		{"negative duration", 0.1, -1, ErrInvalidDuration},
		{"nan duration", 0.1, math.NaN(), ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("bad").AddStock(NewStock("s", "", 0, "")).SetTimeStep(tt.dt)
			_, err := m.Simulate(tt.duration)
			if !errors.Is(err, tt.want) {
				t.Errorf("Simulate error = %v, want %v", err, tt.want)
			}
			if m.Time() != 0 {
				t.Errorf("rejected run advanced time to %v", m.Time())
			}
		})
	}
}

func TestZeroDurationRecordsStart(t *testing.T) {
	m := New("still").AddStock(NewStock("s", "", 2, ""))
	res, err := m.Simulate(0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Len() != 1 || res.StepsTaken != 0 {
		t.Errorf("expected one point and no steps, got %d/%d", res.Len(), res.StepsTaken)
	}
}

func TestResultCapacity(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		dt       float64
		want     int
	}{
		{"zero duration", 0, 1, 1},
		{"whole steps", 5, 1, 6},
		{"partial step", 1, 0.3, 5},
		{"at cap", maxPrealloc, 1, maxPrealloc + 1},
		{"beyond int range", 1e300, 1, maxPrealloc + 1},
		{"infinite ratio", 1, 1e-320, maxPrealloc + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultCapacity(tt.duration, tt.dt); got != tt.want {
				t.Errorf("resultCapacity(%g, %g) = %d, want %d", tt.duration, tt.dt, got, tt.want)
			}
			if got := newResult("cap", tt.dt, resultCapacity(tt.duration, tt.dt)); cap(got.TimeSeries) != tt.want {
				t.Errorf("reserved %d points, want %d", cap(got.TimeSeries), tt.want)
			}
		})
	}
}

func TestStepCountFractionalDt(t *testing.T) {
	m := New("half").AddStock(NewStock("s", "", 0, "")).
		AddFlow(ConstantFlow("f", "", 1, "").To("s")).
		SetTimeStep(0.5)

	res, err := m.Simulate(2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.TimeSeries, []float64{0, 0.5, 1, 1.5, 2}) {
		t.Errorf("time series = %v", res.TimeSeries)
	}
	if got, _ := res.Final("s"); got != 2 {
		t.Errorf("final = %v, want 2", got)
	}
}

func TestDefaultTimeStep(t *testing.T) {
	if dt := New("m").TimeStep(); dt != DefaultTimeStep {
		t.Errorf("default dt = %v, want %v", dt, DefaultTimeStep)
	}
}

func TestStepAdvancesOnce(t *testing.T) {
	calls := 0
	m := New("step").AddStock(NewStock("s", "", 0, "")).
		AddFlow(ConstantFlow("f", "", 3, "").To("s")).
		AddObserver(ObserverFunc(func(*SystemState) { calls++ }))

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.State().StockValue("s"); v != 3 {
		t.Errorf("value after Step = %v, want 3", v)
	}
	if m.Time() != 1 || calls != 1 {
		t.Errorf("time=%v calls=%d, want 1/1", m.Time(), calls)
	}

	if err := m.SetTimeStep(0).Step(); !errors.Is(err, ErrInvalidTimeStep) {
		t.Errorf("Step with dt=0 = %v", err)
	}
}

type countMetric struct {
	count int
	sum   float64
}

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(s *SystemState) {
	c.count++
	v, _ := s.StockValue("s")
	c.sum += v
}
func (c *countMetric) Value() float64 { return float64(c.count) }
func (c *countMetric) Reset()         { c.count, c.sum = 0, 0 }

func TestSimulateMetrics(t *testing.T) {
	metric := &countMetric{}
	m := New("metrics").AddStock(NewStock("s", "", 0, "")).
		AddFlow(ConstantFlow("f", "", 1, "").To("s")).
		AddMetric(metric)

	res, err := m.Simulate(4)
	if err != nil {
		t.Fatal(err)
	}
	if res.Metrics["count"] != 5 {
		t.Errorf("expected 5 observations, got %v", res.Metrics["count"])
	}
	if metric.sum != 0+1+2+3+4 {
		t.Errorf("metric saw wrong values, sum=%v", metric.sum)
	}

	res, _ = m.Simulate(1)
	if res.Metrics["count"] != 2 {
		t.Errorf("metric not reset between runs: %v", res.Metrics["count"])
	}
}

func BenchmarkSimulate(b *testing.B) {
	arr := NewStockArray("s", "S", 64, 1, "")
	m := New("bench").AddStockArray(arr).SetTimeStep(0.01)
	for i := 0; i < arr.Size; i++ {
		m.AddFlow(LinearFlow(ArrayStockID("decay", i), "", 0.1, 0, arr.StockID(i), "").From(arr.StockID(i)))
		m.AddFlow(ConstantFlow(ArrayStockID("feed", i), "", 0.05, "").To(arr.StockID(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Simulate(1); err != nil {
			b.Fatal(err)
		}
	}
}
