package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StateSource builds the state for one refresh.
type StateSource interface {
	Collect(ctx context.Context, persona string) State
}

type (
	tickMsg  time.Time
	stateMsg State
)

// Model is the bubbletea program for the dashboard.
type Model struct {
	source   StateSource
	interval time.Duration

	state      State
	loaded     bool
	refreshing bool

	persona      string
	personaInput textinput.Model
	editing      bool

	width    int
	quitting bool
}

// New creates a dashboard model that refreshes every interval.
func New(source StateSource, interval time.Duration, persona string) Model {
	input := textinput.New()
	input.Prompt = "Report for: "
	input.Placeholder = "e.g., 'real estate agent' or 'urban planner'"
	input.CharLimit = 120
	input.Width = 50
	input.SetValue(persona)

	return Model{
		source:       source,
		interval:     interval,
		persona:      persona,
		personaInput: input,
		refreshing:   true, // Init starts the first refresh
	}
}

// Init starts the first refresh and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		m.tick(),
	)
}

func (m Model) refresh() tea.Cmd {
	persona := m.persona
	return func() tea.Msg {
		return stateMsg(m.source.Collect(context.Background(), persona))
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// startRefresh begins a refresh unless one is already in flight.
func (m Model) startRefresh() (Model, tea.Cmd) {
	if m.refreshing {
		return m, nil
	}
	m.refreshing = true
	return m, m.refresh()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updatePersona(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m.startRefresh()
		case "e":
			m.editing = true
			m.personaInput.SetValue(m.persona)
			m.personaInput.CursorEnd()
			return m, m.personaInput.Focus()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		var cmd tea.Cmd
		m, cmd = m.startRefresh()
		return m, tea.Batch(cmd, m.tick())

	case stateMsg:
		m.state = State(msg)
		m.loaded = true
		m.refreshing = false
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.personaInput, cmd = m.personaInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePersona(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.personaInput.Blur()
		m.personaInput.SetValue(m.persona)
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		m.personaInput.Blur()
		m.persona = strings.TrimSpace(m.personaInput.Value())
		return m.startRefresh()
	}
	var cmd tea.Cmd
	m.personaInput, cmd = m.personaInput.Update(msg)
	return m, cmd
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if m.loaded {
		body = Render(m.state, m.width)
	} else {
		body = SubtitleStyle.Render("Fetching information...")
	}

	parts := []string{body}
	if m.editing {
		parts = append(parts, "", m.personaInput.View())
	}

	help := "r refresh • e edit persona • q quit"
	if m.refreshing && m.loaded {
		help = "refreshing... • " + help
	}
	parts = append(parts, HelpStyle.Render(help))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Persona returns the committed persona.
func (m Model) Persona() string {
	return m.persona
}
