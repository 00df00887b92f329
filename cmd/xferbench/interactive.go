package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/arrayhandle/device"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	tracker  *device.Tracker
	tags     []device.Tag
	results  []result
	input    textinput.Model
	selected int
	running  bool
}

type benchResultMsg struct {
	result result
}

// newInteractiveModel starts with def selected when it is one of tags.
func newInteractiveModel(tr *device.Tracker, tags []device.Tag, def device.Tag, n int) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "values: "
	ti.Placeholder = "number of values"
	ti.SetValue(strconv.Itoa(n))
	ti.CharLimit = 10
	ti.Width = 20
	ti.Focus()
	return &interactiveModel{
		tracker:  tr,
		tags:     tags,
		input:    ti,
		selected: max(slices.Index(tags, def), 0),
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "up":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.selected < len(m.tags)-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			if m.running || len(m.tags) == 0 {
				return m, nil
			}
			n, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
			if err != nil || n < 0 {
				m.err = fmt.Errorf("invalid number of values %q", m.input.Value())
				return m, nil
			}
			m.err = nil
			m.running = true
			return m, m.bench(m.tags[m.selected], n)
		}

	case benchResultMsg:
		m.running = false
		m.results = append(m.results, msg.result)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) bench(tag device.Tag, n int) tea.Cmd {
	return func() tea.Msg {
		return benchResultMsg{result: runBench(m.tracker, tag, n)}
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Array transfer bench"))
	b.WriteString("\n\n")

	b.WriteString("Device:\n\n")
	for i, tag := range m.tags {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + tag.String()))
		} else {
			b.WriteString("  " + tag.String())
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.running {
		b.WriteString("Running...\n\n")
	}
	if len(m.results) > 0 {
		b.WriteString(renderTable(m.results, true))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select device • enter run • esc quit"))
	return b.String()
}

func runInteractive(tr *device.Tracker, tags []device.Tag, def device.Tag, n int) error {
	p := tea.NewProgram(newInteractiveModel(tr, tags, def, n), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
