// Package tui is the full-screen question interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"legal-rag/internal/repl"
	"legal-rag/internal/service"
)

// answerMsg carries the result of one Ask call back into Update.
type answerMsg struct {
	question string
	resp     service.AskResponse
	err      error
}

// Model is the Bubble Tea model for the question interface.
type Model struct {
	ctx      context.Context
	service  service.AskService
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	pending  bool
	ready    bool
	last     *answerMsg
}

// New creates a TUI model. summary is shown under the header.
func New(ctx context.Context, svc service.AskService, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a legal question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  svc,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   fmt.Sprintf("Ready. Type '%s' to quit.", repl.ExitCommand),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, spacer
		vh := msg.Height - reserved - ah
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.pending = false
		m.last = &msg
		if msg.err != nil {
			m.status = "Error: " + service.Diagnostic(msg.err)
		} else {
			m.status = fmt.Sprintf("Answered %q", msg.question)
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if repl.IsExit(q) {
				return m, tea.Quit
			}
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.status = "Thinking..."
			m.input.Reset()
			return m, m.ask(q)
		}
		switch msg.String() {
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the event loop.
func (m Model) ask(question string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		resp, err := svc.Ask(ctx, service.AskRequest{Question: question})
		return answerMsg{question: question, resp: resp, err: err}
	}
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Legal RAG")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.last == nil {
		return "No answer yet."
	}
	if m.last.err != nil {
		return errorStyle.Render(service.Diagnostic(m.last.err))
	}

	var b strings.Builder
	b.WriteString(questionStyle.Render(m.last.question))
	b.WriteString("\n\n")
	if m.last.resp.Refused {
		b.WriteString(refusedStyle.Render(m.last.resp.Answer))
	} else {
		b.WriteString(m.last.resp.Answer)
	}
	if len(m.last.resp.Chunks) > 0 {
		b.WriteString("\n\n")
		b.WriteString(sourceStyle.Render("Sources:"))
		for _, c := range m.last.resp.Chunks {
			fmt.Fprintf(&b, "\n  %d. %s #%s  distance=%.4f", c.Rank+1, c.Source, c.ChunkID, c.Distance)
		}
	}
	return b.String()
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle  = lipgloss.NewStyle().Bold(true)
	refusedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Run starts the interface on the terminal and blocks until the user quits.
func Run(ctx context.Context, svc service.AskService, summary string) error {
	p := tea.NewProgram(New(ctx, svc, summary), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run tui: %w", err)
	}
	return nil
}
