package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/smartmodule/envelope"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxHistory bounds the number of results kept on screen.
const maxHistory = 20

type interactiveModel struct {
	err     error
	session *session
	opts    *options
	history []entry
	inputs  []textinput.Model
	focus   int
}

// entry is one record sent to the module and what came back.
type entry struct {
	err    error
	out    *envelope.Output
	input  string
	offset int64
}

const (
	inputRecord = iota
	inputJoin
)

func newInteractiveModel(opts *options) *interactiveModel {
	record := textinput.New()
	record.Prompt = "record: "
	record.Placeholder = "value"
	record.Width = 40
	record.Focus()

	join := textinput.New()
	join.Prompt = "join:   "
	join.Placeholder = "join record value"
	join.Width = 40
	join.SetValue(opts.join)

	return &interactiveModel{
		opts:   opts,
		inputs: []textinput.Model{record, join},
	}
}

type loadedMsg struct {
	err     error
	session *session
}

type processedMsg struct {
	entry entry
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.load, textinput.Blink)
}

func (m *interactiveModel) load() tea.Msg {
	s, err := openSession(context.Background(), m.opts, newLogger(false))
	return loadedMsg{session: s, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.session != nil {
				m.session.close(context.Background())
			}
			return m, tea.Quit

		case "tab":
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % len(m.inputs)
			m.inputs[m.focus].Focus()
			return m, nil

		case "enter":
			if m.session == nil {
				return m, nil
			}
			return m, m.process(m.inputs[inputRecord].Value(), m.inputs[inputJoin].Value())
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session

	case processedMsg:
		m.history = append(m.history, msg.entry)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		m.inputs[inputRecord].SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *interactiveModel) process(value, join string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		s.setJoin(join)
		e := entry{input: value, offset: s.offset}
		e.out, e.err = s.process(context.Background(), []string{value})
		return processedMsg{entry: e}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}
	if m.session == nil {
		return "Loading SmartModule..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("SmartModule Runner"))
	b.WriteString(" ")
	b.WriteString(m.opts.wasmFile)
	b.WriteString(" ")
	b.WriteString(kindStyle.Render(m.session.kind.String()))
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString(offsetStyle.Render(fmt.Sprintf("@%d ", e.offset)))
		b.WriteString(e.input)
		b.WriteString(" => ")
		b.WriteString(renderEntry(e))
		b.WriteString("\n")
	}
	if len(m.history) > 0 {
		b.WriteString("\n")
	}

	for _, input := range m.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • tab switch field • esc quit"))

	return b.String()
}

func renderEntry(e entry) string {
	if e.err != nil {
		return errorStyle.Render(e.err.Error())
	}
	var parts []string
	for _, rec := range e.out.Successes {
		parts = append(parts, formatRecord(rec.Key, rec.Value))
	}
	rendered := resultStyle.Render("[" + strings.Join(parts, ", ") + "]")
	if e.out.Error != nil {
		rendered += " " + errorStyle.Render("rejected: "+e.out.Error.Hint)
	}
	return rendered
}

func runInteractive(opts *options) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
