package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/grid"
	"github.com/san-kum/biodyn/internal/pattern"
	"github.com/san-kum/biodyn/internal/stimulus"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 600
	frameRate       = 30
	maxSpeed        = 64
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Live steps one system interactively. Planar systems are drawn as a phase
// trajectory, lattice systems as a shaded field, and the selected component
// (the selected field's mean on a lattice) is charted over time. Systems with input channels get a manual offset on
// top of their stimulus.
type Live struct {
	name       string
	sys        dynamo.System
	integrator dynamo.Integrator
	stim       dynamo.Stimulus
	manual     *stimulus.Manual
	labels     []string
	state      dynamo.State
	initial    dynamo.State
	t, dt      float64
	speed      int
	running    bool
	err        error
	history    []dynamo.State
	times      []float64
	params     map[string]float64
	initParams map[string]float64
	paramKeys  []string
	selected   int
	component  int
	field      int
	channel    int
	inputStep  float64
	theme      Theme
	canvas     *Canvas
	showHelp   bool
	embedded   bool
}

// NewLive prepares an interactive run of sys from x0. stim may be nil.
func NewLive(name string, sys dynamo.System, integ dynamo.Integrator, stim dynamo.Stimulus, x0 dynamo.State, dt float64) Live {
	params := make(map[string]float64)
	if c, ok := sys.(dynamo.Configurable); ok {
		for k, v := range c.GetParams() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	initParams := make(map[string]float64, len(params))
	for k, v := range params {
		keys = append(keys, k)
		initParams[k] = v
	}
	sort.Strings(keys)

	var manual *stimulus.Manual
	if sys.InputDim() > 0 {
		manual = stimulus.NewManual(sys.InputDim())
	}

	m := Live{
		name:       name,
		sys:        sys,
		integrator: integ,
		stim:       stim,
		manual:     manual,
		labels:     dynamo.LabelsOf(sys),
		state:      x0.Clone(),
		initial:    x0.Clone(),
		dt:         dt,
		speed:      1,
		running:    true,
		history:    make([]dynamo.State, 0, historyCapacity),
		times:      make([]float64, 0, historyCapacity),
		params:     params,
		initParams: initParams,
		paramKeys:  keys,
		inputStep:  1,
		theme:      ThemeLab,
		canvas:     NewCanvas(canvasWidth, canvasHeight),
	}
	m.record()
	return m
}

// SetTheme selects the color theme by name.
func (m *Live) SetTheme(name string) { m.theme = GetTheme(name) }

// SetInputStep sets the manual input increment per key press.
func (m *Live) SetInputStep(v float64) { m.inputStep = v }

func (m Live) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "s":
			if !m.running {
				m.step()
			}
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "c", "f":
			// lattices chart and draw whole fields, never single cells
			if l, ok := m.sys.(pattern.Lattice); ok {
				m.field = (m.field + 1) % len(l.Fields())
			} else if msg.String() == "c" {
				m.component = (m.component + 1) % len(m.labels)
			}
		case "i":
			if m.manual != nil {
				m.channel = (m.channel + 1) % m.sys.InputDim()
			}
		case "+", "=":
			m.nudgeInput(m.inputStep)
		case "-", "_":
			m.nudgeInput(-m.inputStep)
		case ">", ".":
			m.speed = min(m.speed*2, maxSpeed)
		case "<", ",":
			m.speed = max(m.speed/2, 1)
		case "t":
			m.theme = nextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.speed && m.running; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Live) input() dynamo.Input {
	u := make(dynamo.Input, m.sys.InputDim())
	if m.stim != nil {
		copy(u, m.stim.Compute(m.state, m.t))
	}
	if m.manual != nil {
		for i, v := range m.manual.Compute(m.state, m.t) {
			u[i] += v
		}
	}
	return u
}

// step advances by one dt. An invalid state pauses the run.
func (m *Live) step() {
	next := m.integrator.Step(m.sys, m.state, m.input(), m.t, m.dt)
	if p, ok := m.sys.(dynamo.Projector); ok {
		p.Project(next)
	}
	if !next.IsValid() {
		m.running = false
		m.err = fmt.Errorf("t=%.3f: %w", m.t, dynamo.ErrInvalidState)
		return
	}
	m.state = next
	m.t += m.dt
	m.record()
}

func (m *Live) record() {
	if len(m.history) == historyCapacity {
		copy(m.history, m.history[1:])
		copy(m.times, m.times[1:])
		m.history = m.history[:historyCapacity-1]
		m.times = m.times[:historyCapacity-1]
	}
	m.history = append(m.history, m.state.Clone())
	m.times = append(m.times, m.t)
}

func (m *Live) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if val == 0 {
		val = 0.01 * (factor - 1) / math.Abs(factor-1)
	}
	c := m.sys.(dynamo.Configurable)
	if err := c.SetParam(key, val); err != nil {
		m.err = err
		return
	}
	m.params[key] = val
	m.err = nil
	// structural parameters such as the lattice size change the state layout
	if m.sys.StateDim() != len(m.state) {
		m.restart()
	}
}

func (m *Live) nudgeInput(delta float64) {
	if m.manual == nil {
		return
	}
	m.manual.Set(m.channel, m.manual.Get(m.channel)+delta)
}

// restart returns to t = 0 keeping the current parameters.
func (m *Live) restart() {
	if d, ok := m.sys.(dynamo.Defaulted); ok && len(m.initial) != m.sys.StateDim() {
		m.initial = d.DefaultState()
	}
	m.state = m.initial.Clone()
	m.labels = dynamo.LabelsOf(m.sys)
	m.t = 0
	m.err = nil
	if r, ok := m.stim.(dynamo.Resettable); ok {
		r.Reset()
	}
	m.history = m.history[:0]
	m.times = m.times[:0]
	m.component = min(m.component, len(m.state)-1)
	m.record()
}

// reset restores the initial state, parameters and inputs.
func (m *Live) reset() {
	if c, ok := m.sys.(dynamo.Configurable); ok {
		for _, k := range m.paramKeys {
			_ = c.SetParam(k, m.initParams[k])
			m.params[k] = m.initParams[k]
		}
	}
	if m.manual != nil {
		for i := 0; i < m.sys.InputDim(); i++ {
			m.manual.Set(i, 0)
		}
	}
	m.restart()
}

// State returns the current time and a copy of the state.
func (m Live) State() (float64, dynamo.State) { return m.t, m.state.Clone() }

func (m Live) series(k int) []float64 {
	out := make([]float64, len(m.history))
	for i, s := range m.history {
		if k < len(s) {
			out[i] = s[k]
		}
	}
	return out
}

// chart returns the charted history and its caption label. Lattices chart
// the mean of the selected field.
func (m Live) chart() ([]float64, string) {
	l, ok := m.sys.(pattern.Lattice)
	if !ok {
		return m.series(m.component), m.labels[m.component]
	}
	out := make([]float64, len(m.history))
	for i, s := range m.history {
		if len(s) == l.StateDim() {
			out[i] = stat.Mean(pattern.Frame(l, s, m.field).Data, nil)
		}
	}
	return out, "mean " + l.Fields()[m.field]
}

func (m Live) drawPhase() string {
	m.canvas.Clear()
	if len(m.history) == 0 {
		return m.canvas.String()
	}
	xs, ys := m.series(0), m.series(1)
	v := Fit(xs, ys)
	m.canvas.Trajectory(v, xs, ys)
	return m.canvas.String() + fmt.Sprintf("%s ∈ [%.3g, %.3g]  %s ∈ [%.3g, %.3g]",
		m.labels[0], v.XMin, v.XMax, m.labels[1], v.YMin, v.YMax)
}

// drawField shades the selected field, sampled down to the panel size.
func (m Live) drawField(l pattern.Lattice) string {
	f := pattern.Frame(l, m.state, m.field)
	lo, hi := f.Min(), f.Max()
	rows, cols := min(canvasHeight, f.NY), min(canvasWidth, f.NX)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.WriteRune(Shade(sample(f, r, c, rows, cols), lo, hi))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s ∈ [%.3g, %.3g]", l.Fields()[m.field], lo, hi)
	return b.String()
}

// sample averages the block of cells behind one character.
func sample(f grid.Field, r, c, rows, cols int) float64 {
	r0, r1 := r*f.NY/rows, (r+1)*f.NY/rows
	c0, c1 := c*f.NX/cols, (c+1)*f.NX/cols
	sum, n := 0.0, 0
	for i := r0; i < max(r1, r0+1); i++ {
		for j := c0; j < max(c1, c0+1); j++ {
			sum += f.At(i, j)
			n++
		}
	}
	return sum / float64(n)
}

// View renders the TUI interface.
func (m Live) View() string {
	st := newStyles(m.theme)

	var left string
	switch l, ok := m.sys.(pattern.Lattice); {
	case ok:
		left = m.drawField(l)
	case len(m.state) >= 2:
		left = m.drawPhase()
	default:
		left = Sparkline(m.series(0), canvasWidth)
	}
	canvasView := st.panel.Render(left)

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(fmt.Sprintf("%s  x%d\n", status, m.speed))
	if m.err != nil {
		s.WriteString(st.warn.Render(m.err.Error()) + "\n")
	}

	if data, label := m.chart(); len(data) > 1 {
		caption := fmt.Sprintf("%s  t ∈ [%.1f, %.1f]", label, m.times[0], m.t)
		chart := asciigraph.Plot(data, asciigraph.Height(6), asciigraph.Width(34), asciigraph.Caption(caption))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString(st.label.Render("Time") + st.value.Render(fmt.Sprintf("%.2f", m.t)) + "\n")
	if _, lattice := m.sys.(pattern.Lattice); !lattice {
		for i, v := range m.state {
			if i >= 6 {
				break
			}
			s.WriteString(st.label.Render(m.labels[i]) + st.value.Render(fmt.Sprintf("%.4g", v)) + "\n")
		}
	}
	if c, ok := m.sys.(dynamo.Conserved); ok {
		s.WriteString(st.label.Render("Invariant") + st.value.Render(fmt.Sprintf("%.6g", c.Invariant(m.state))) + "\n")
	}
	if m.manual != nil {
		for i := 0; i < m.sys.InputDim(); i++ {
			line := fmt.Sprintf("u%d %+.3g", i, m.manual.Get(i))
			if i == m.channel {
				s.WriteString(st.active.Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + st.label.Render(line) + "\n")
			}
		}
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(st.label.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-9s %.4g", k, m.params[k])
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.Render(line) + "\n")
		}
	}

	hint := "SP:Pause R:Reset Q:Quit ?:Help"
	if m.embedded {
		hint = "SP:Pause R:Reset ESC:Menu ?:Help"
	}
	s.WriteString(st.help.Render(hint))
	statsView := st.stats.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  space  pause/resume      s    single step when paused
  r      reset             tab  next parameter
  up/k   parameter +5%     down/j parameter -5%
  c      charted component f    next lattice field (c too)
  i      input channel     +/-  nudge input
  > <    speed             t    theme
  q      quit              ?    toggle help
`

// RunLive runs m full screen until the user quits.
func RunLive(m Live) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
