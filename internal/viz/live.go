package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/stockflow/internal/dynamo"
)

const (
	historyCapacity = 600
	frameInterval   = time.Second / 30
	maxSpeed        = 256
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// history keeps the most recent values of every stock. It is shared by
// copies of LiveModel and filled by the model's observer.
type history struct {
	values map[string][]float64
}

func (h *history) observe(s *dynamo.SystemState) {
	s.Each(func(st dynamo.Stock) {
		vals := append(h.values[st.ID], st.CurrentValue)
		if len(vals) > historyCapacity {
			vals = vals[len(vals)-historyCapacity:]
		}
		h.values[st.ID] = vals
	})
}

// LiveModel advances a dynamo.Model a few steps per frame until Duration
// has elapsed.
type LiveModel struct {
	name     string
	build    func() (*dynamo.Model, error)
	model    *dynamo.Model
	duration float64
	start    float64
	stocks   []string
	selected int
	speed    int
	running  bool
	done     bool
	err      error
	hist     *history
}

// NewLiveModel builds the model and records its starting state. build is
// called again on every restart.
func NewLiveModel(name string, build func() (*dynamo.Model, error), duration float64) (LiveModel, error) {
	m := LiveModel{
		name:     name,
		build:    build,
		duration: duration,
		speed:    1,
		running:  true,
	}
	if err := m.reset(); err != nil {
		return LiveModel{}, err
	}
	return m, nil
}

// reset swaps in a freshly built model. On failure the current model stays
// and the view shows the error.
func (m *LiveModel) reset() error {
	model, err := m.build()
	if err != nil {
		m.err = err
		m.done = true
		return err
	}

	m.hist = &history{values: make(map[string][]float64)}
	m.model = model
	m.model.AddObserver(dynamo.ObserverFunc(m.hist.observe))
	m.hist.observe(m.model.State())
	m.start = m.model.Time()
	m.stocks = m.model.State().StockIDs()
	if m.selected >= len(m.stocks) {
		m.selected = 0
	}
	m.done = false
	m.err = nil
	return nil
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			_ = m.reset()
		case "tab":
			if len(m.stocks) > 0 {
				m.selected = (m.selected + 1) % len(m.stocks)
			}
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		}
	case TickMsg:
		if m.running && !m.done {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) advance() {
	end := m.start + m.duration
	for i := 0; i < m.speed; i++ {
		if m.model.Time() >= end {
			m.done = true
			return
		}
		if err := m.model.Step(); err != nil {
			m.err = err
			m.done = true
			return
		}
	}
}

// Time is the model's current simulated time.
func (m LiveModel) Time() float64 { return m.model.Time() }

// Done reports whether the run reached its duration or failed.
func (m LiveModel) Done() bool { return m.done }

// History returns the retained values of a stock.
func (m LiveModel) History(id string) []float64 { return m.hist.values[id] }

func (m LiveModel) View() string {
	var s strings.Builder

	s.WriteString(Title.Render(strings.ToUpper(m.name)) + "  ")
	switch {
	case m.err != nil:
		s.WriteString(StatusError.Render("ERROR: " + m.err.Error()))
	case m.done:
		s.WriteString(StatusPaused.Render("DONE"))
	case m.running:
		s.WriteString(StatusRunning.Render("RUNNING"))
	default:
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	elapsed := m.model.Time() - m.start
	progress := 1.0
	if m.duration > 0 {
		progress = elapsed / m.duration
	}
	s.WriteString(MetricLabel.Render("time  ") + MetricValue.Render(fmt.Sprintf("%.2f / %.2f", elapsed, m.duration)) + "  ")
	s.WriteString(ProgressBar(progress, 30) + "\n")
	s.WriteString(MetricLabel.Render("speed ") + MetricValue.Render(fmt.Sprintf("%dx", m.speed)) + "\n\n")

	if len(m.stocks) > 0 {
		id := m.stocks[m.selected]
		if vals := m.hist.values[id]; len(vals) > 1 {
			chart := asciigraph.Plot(vals, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption(id))
			s.WriteString(chart + "\n\n")
		}
	}

	state := m.model.State()
	for i, id := range m.stocks {
		v, ok := state.StockValue(id)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-16s %12.4f ", id, v)
		if i == m.selected {
			line = MetricValue.Render("> " + line)
		} else {
			line = "  " + MetricLabel.Render(line)
		}
		s.WriteString(line + Sparkline(m.hist.values[id], 24) + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("space:pause  r:restart  tab:stock  +/-:speed  q:quit"))
	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}
