package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/biodyn/internal/experiment"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Menu lists the registered models and opens a live view of the chosen one.
type Menu struct {
	registry *experiment.Registry
	models   []string
	cursor   int
	live     *Live
	err      error
	theme    string
}

func NewMenu(reg *experiment.Registry) Menu {
	return Menu{registry: reg, models: reg.ListModels()}
}

// SetTheme selects the theme used by live views opened from the menu.
func (m *Menu) SetTheme(name string) { m.theme = name }

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "esc" || key.String() == "q") {
			m.live = nil
			return m, tea.ClearScreen
		}
		next, cmd := m.live.Update(msg)
		live := next.(Live)
		m.live = &live
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "enter", " ":
		live, err := m.open(m.models[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.live = &live
		return m, tea.Batch(tea.ClearScreen, live.Init())
	}
	return m, nil
}

func (m Menu) open(name string) (Live, error) {
	live, err := FromExperiment(experiment.New(m.registry, experiment.Config{Model: name}))
	if err != nil {
		return Live{}, err
	}
	live.embedded = true
	if m.theme != "" {
		live.SetTheme(m.theme)
	}
	return live, nil
}

// FromExperiment sets exp up and opens a live view of its model, stimulus
// and initial state.
func FromExperiment(exp *experiment.Experiment) (Live, error) {
	cfg, err := exp.Resolved()
	if err != nil {
		return Live{}, err
	}
	if err := exp.Setup(); err != nil {
		return Live{}, err
	}
	_, integ, stim, err := exp.Build()
	if err != nil {
		return Live{}, err
	}
	x0, err := exp.InitialState()
	if err != nil {
		return Live{}, err
	}
	return NewLive(cfg.Model, exp.System(), integ, stim, x0, cfg.Dt), nil
}

func (m Menu) View() string {
	if m.live != nil {
		return m.live.View()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("b i o d y n") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.models {
		info, _ := m.registry.ModelInfo(name)
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-24s", name)) + dim.Render(info.Description) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-24s", name)) + dimmer.Render(info.Description) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

// RunMenu runs the model picker full screen.
func RunMenu(reg *experiment.Registry, theme string) error {
	m := NewMenu(reg)
	m.SetTheme(theme)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
