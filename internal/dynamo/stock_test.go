package dynamo

import "testing"

func TestNewStock(t *testing.T) {
	s := NewStock("ID", "NAME", 1.0, "UNITS")

	if s.ID != "ID" || s.Name != "NAME" || s.Units != "UNITS" {
		t.Errorf("unexpected identity fields: %+v", s)
	}
	if s.InitialValue != 1.0 || s.CurrentValue != 1.0 {
		t.Errorf("expected initial=current=1, got %v/%v", s.InitialValue, s.CurrentValue)
	}
	if s.Min != nil || s.Max != nil {
		t.Error("new stock should be unbounded")
	}
}

func TestStockBoundsLastWriteWins(t *testing.T) {
	s := NewStock("s", "S", 0, "u").WithMin(1).WithMin(2).WithMax(9).WithMax(8)

	if *s.Min != 2 {
		t.Errorf("expected min 2, got %v", *s.Min)
	}
	if *s.Max != 8 {
		t.Errorf("expected max 8, got %v", *s.Max)
	}
}

func TestStockBuilderDoesNotAlias(t *testing.T) {
	base := NewStock("s", "S", 0, "u")
	a := base.WithMin(1)
	b := base.WithMin(5)

	if base.Min != nil {
		t.Error("WithMin mutated the receiver")
	}
	if *a.Min != 1 || *b.Min != 5 {
		t.Errorf("copies share bounds: a=%v b=%v", *a.Min, *b.Min)
	}
}

func TestStockClamp(t *testing.T) {
	tests := []struct {
		name  string
		stock Stock
		in    float64
		want  float64
	}{
		{"unbounded", NewStock("s", "", 0, ""), -50, -50},
		{"below min", NewStock("s", "", 0, "").WithMin(0), -3, 0},
		{"above max", NewStock("s", "", 0, "").WithMax(15), 20, 15},
		{"inside", NewStock("s", "", 0, "").WithMin(0).WithMax(15), 7, 7},
		{"inverted bounds resolve to max", NewStock("s", "", 0, "").WithMin(5).WithMax(1), 3, 1},
		{"inverted bounds below both", NewStock("s", "", 0, "").WithMin(5).WithMax(1), -10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stock.Clamp(tt.in); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStockArrayCreation(t *testing.T) {
	arr := NewStockArray("test", "Test Array", 5, 1.0, "units")

	if arr.BaseID != "test" || arr.Size != 5 {
		t.Errorf("unexpected array header: %+v", arr)
	}
	if len(arr.InitialValues) != 5 {
		t.Fatalf("expected 5 initial values, got %d", len(arr.InitialValues))
	}
	for i, v := range arr.InitialValues {
		if v != 1.0 {
			t.Errorf("initial value %d = %v, want 1", i, v)
		}
	}
}

func TestStockArrayFromValues(t *testing.T) {
	values := []float64{1, 2, 3}
	arr := StockArrayFromValues("test", "Test", values, "units")
	values[0] = 99

	if arr.Size != 3 {
		t.Errorf("expected size 3, got %d", arr.Size)
	}
	if arr.InitialValues[0] != 1 {
		t.Error("array aliases the caller's slice")
	}

	stocks := arr.Expand()
	for i, s := range stocks {
		if s.InitialValue != float64(i+1) || s.CurrentValue != float64(i+1) {
			t.Errorf("stock %d starts at %v, want %d", i, s.InitialValue, i+1)
		}
	}
}

func TestStockArrayExpand(t *testing.T) {
	arr := NewStockArray("mem", "Memory", 3, 0.5, "items")
	stocks := arr.Expand()

	if len(stocks) != 3 {
		t.Fatalf("expected 3 stocks, got %d", len(stocks))
	}
	for i, want := range []string{"mem[0]", "mem[1]", "mem[2]"} {
		if stocks[i].ID != want {
			t.Errorf("stock %d id = %q, want %q", i, stocks[i].ID, want)
		}
		if stocks[i].ID != arr.StockID(i) {
			t.Errorf("StockID(%d) = %q disagrees with Expand", i, arr.StockID(i))
		}
		if stocks[i].InitialValue != 0.5 {
			t.Errorf("stock %d initial = %v, want 0.5", i, stocks[i].InitialValue)
		}
		if stocks[i].Units != "items" || stocks[i].Name != "Memory" {
			t.Errorf("stock %d did not inherit units/name: %+v", i, stocks[i])
		}
	}
}

func TestStockArrayWithConstraints(t *testing.T) {
	stocks := NewStockArray("test", "Test", 2, 5.0, "units").
		WithMin(0.0).
		WithMax(10.0).
		Expand()

	for i, s := range stocks {
		if s.Min == nil || *s.Min != 0 {
			t.Errorf("stock %d missing min", i)
		}
		if s.Max == nil || *s.Max != 10 {
			t.Errorf("stock %d missing max", i)
		}
	}

	*stocks[0].Min = -1
	if *stocks[1].Min != 0 {
		t.Error("expanded stocks share a bound pointer")
	}
}

func TestStockArrayNegativeSize(t *testing.T) {
	arr := NewStockArray("x", "X", -2, 1, "u")
	if arr.Size != 0 || len(arr.Expand()) != 0 {
		t.Errorf("negative size should expand to nothing, got %d", len(arr.Expand()))
	}
}
