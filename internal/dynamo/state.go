package dynamo

import "sort"

// SystemState holds every stock of a model plus the current simulation time.
// Stocks live in a slice addressed through an id index so the integration loop
// can work on positions instead of hashing ids every step.
type SystemState struct {
	Time float64

	stocks []Stock
	index  map[string]int
}

func NewSystemState() *SystemState {
	return &SystemState{
		stocks: make([]Stock, 0),
		index:  make(map[string]int),
	}
}

// AddStock inserts s, replacing any stock that already uses the same id. It
// reports whether an existing stock was replaced.
func (s *SystemState) AddStock(st Stock) bool {
	if i, ok := s.index[st.ID]; ok {
		s.stocks[i] = st
		return true
	}
	s.index[st.ID] = len(s.stocks)
	s.stocks = append(s.stocks, st)
	return false
}

// RemoveStock deletes the stock with the given id. Flows that still refer to it
// simply stop contributing.
func (s *SystemState) RemoveStock(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.stocks) - 1
	if i != last {
		s.stocks[i] = s.stocks[last]
		s.index[s.stocks[i].ID] = i
	}
	s.stocks = s.stocks[:last]
	delete(s.index, id)
	return true
}

// StockValue returns the current value of a stock; ok is false when the id is
// unknown, which callers must keep distinct from a real zero.
func (s *SystemState) StockValue(id string) (float64, bool) {
	i, ok := s.index[id]
	if !ok {
		return 0, false
	}
	return s.stocks[i].CurrentValue, true
}

// SetStockValue overwrites the current value of a known stock. Unknown ids are
// ignored.
func (s *SystemState) SetStockValue(id string, v float64) {
	if i, ok := s.index[id]; ok {
		s.stocks[i].CurrentValue = v
	}
}

func (s *SystemState) Stock(id string) (Stock, bool) {
	i, ok := s.index[id]
	if !ok {
		return Stock{}, false
	}
	return s.stocks[i], true
}

func (s *SystemState) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *SystemState) Len() int { return len(s.stocks) }

// StockIDs returns the ids of all stocks in sorted order.
func (s *SystemState) StockIDs() []string {
	ids := make([]string, 0, len(s.stocks))
	for _, st := range s.stocks {
		ids = append(ids, st.ID)
	}
	sort.Strings(ids)
	return ids
}

// Each calls fn for every stock. Iteration order is unspecified.
func (s *SystemState) Each(fn func(st Stock)) {
	for _, st := range s.stocks {
		fn(st)
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s *SystemState) Clone() *SystemState {
	c := &SystemState{
		Time:   s.Time,
		stocks: make([]Stock, len(s.stocks)),
		index:  make(map[string]int, len(s.index)),
	}
	copy(c.stocks, s.stocks)
	for id, i := range s.index {
		c.index[id] = i
	}
	return c
}

// Snapshot captures the current values and time of every stock.
func (s *SystemState) Snapshot() *Snapshot {
	snap := &Snapshot{values: make([]float64, len(s.stocks))}
	snap.capture(s)
	snap.index = make(map[string]int, len(s.index))
	for id, i := range s.index {
		snap.index[id] = i
	}
	return snap
}

// Snapshot is a read-only view of stock values at one instant. The integration
// loop evaluates every flow against a snapshot taken before the step so that no
// flow observes a value already updated in the same step.
type Snapshot struct {
	Time float64

	values []float64
	index  map[string]int
}

func (sn *Snapshot) capture(s *SystemState) {
	if cap(sn.values) < len(s.stocks) {
		sn.values = make([]float64, len(s.stocks))
	}
	sn.values = sn.values[:len(s.stocks)]
	for i := range s.stocks {
		sn.values[i] = s.stocks[i].CurrentValue
	}
	sn.index = s.index
	sn.Time = s.Time
}

func (sn *Snapshot) StockValue(id string) (float64, bool) {
	i, ok := sn.index[id]
	if !ok || i >= len(sn.values) {
		return 0, false
	}
	return sn.values[i], true
}
