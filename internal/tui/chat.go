// internal/tui/chat.go
// Package tui provides the interactive terminal chat over indexed documents.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/rag"
)

// Answerer answers a question from indexed content.
type Answerer interface {
	Ask(ctx context.Context, question string) (rag.Answer, error)
}

// Session describes the backends shown in the header.
type Session struct {
	Provider   string
	ChatModel  string
	Store      string
	Collection string
	TopK       int
}

// exchange is one question and its outcome.
type exchange struct {
	Question string
	Answer   string
	Sources  []string
	Err      error
	Elapsed  time.Duration
}

// answerMsg is sent when the asker returns successfully.
type answerMsg struct {
	answer  rag.Answer
	elapsed time.Duration
}

// answerErr is sent when the asker fails.
type answerErr struct {
	error
	elapsed time.Duration
}

// tickMsg keeps the elapsed timer moving while a question is in flight.
type tickMsg time.Time

type model struct {
	ctx              context.Context
	asker            Answerer
	session          Session
	isLoading        bool
	textArea         textarea.Model
	viewport         viewport.Model
	spinner          spinner.Model
	history          []exchange
	width, height    int
	requestStartTime time.Time
}

var (
	headerStyle    = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Background(lipgloss.Color("0")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func initialModel(ctx context.Context, asker Answerer, session Session) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.Focus()
	ta.Prompt = "Ask Anything: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &model{
		ctx:      ctx,
		asker:    asker,
		session:  session,
		spinner:  s,
		textArea: ta,
		viewport: viewport.New(100, 5),
	}
}

// askCmd runs the question through the asker off the UI loop.
func askCmd(ctx context.Context, asker Answerer, question string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		answer, err := asker.Ask(ctx, question)
		if err != nil {
			return answerErr{error: err, elapsed: time.Since(start)}
		}
		return answerMsg{answer: answer, elapsed: time.Since(start)}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.isLoading {
				return m, nil
			}
			question := strings.TrimSpace(m.textArea.Value())
			if question == "" {
				return m, nil
			}
			m.history = append(m.history, exchange{Question: question})
			m.textArea.Reset()
			m.isLoading = true
			m.requestStartTime = time.Now()
			logging.LogEvent("[CHAT] question: %s", question)
			m.refreshTranscript()
			return m, tea.Batch(m.spinner.Tick, askCmd(m.ctx, m.asker, question), tickCmd())
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		headerHeight := 2
		footerHeight := 3
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.refreshTranscript()

	case answerMsg:
		m.isLoading = false
		if n := len(m.history); n > 0 {
			m.history[n-1].Answer = msg.answer.Answer
			m.history[n-1].Sources = msg.answer.Sources
			m.history[n-1].Elapsed = msg.elapsed
		}
		logging.LogEvent("[CHAT] answered in %s with %d sources", msg.elapsed.Truncate(time.Millisecond), len(msg.answer.Sources))
		m.textArea.Focus()
		m.refreshTranscript()
		return m, nil

	case answerErr:
		m.isLoading = false
		if n := len(m.history); n > 0 {
			m.history[n-1].Err = msg.error
			m.history[n-1].Elapsed = msg.elapsed
		}
		logging.LogError("[CHAT] %v", msg.error)
		m.textArea.Focus()
		m.refreshTranscript()
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.isLoading {
		m.textArea, cmd = m.textArea.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// refreshTranscript re-renders the history into the viewport and scrolls to
// the latest exchange.
func (m *model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *model) renderTranscript() string {
	width := m.width
	if width <= 0 {
		width = 100
	}

	var b strings.Builder
	for _, ex := range m.history {
		you := userStyle.Render("You: ")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, you, wrap(ex.Question, width-lipgloss.Width(you)-2)) + "\n")

		switch {
		case ex.Err != nil:
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", ex.Err)) + "\n")
		case ex.Answer != "" || ex.Elapsed > 0:
			role := assistantStyle.Render("Assistant: ")
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, role, wrap(ex.Answer, width-lipgloss.Width(role)-2)) + "\n")
			if len(ex.Sources) > 0 {
				b.WriteString(sourceStyle.Render("  Sources: "+strings.Join(ex.Sources, ", ")) + "\n")
			}
			b.WriteString(metaStyle.Render(fmt.Sprintf("  >>> [%.1fs]", ex.Elapsed.Seconds())) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func wrap(s string, width int) string {
	if width < 10 {
		width = 10
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var builder strings.Builder
	status := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("docqa:"),
		headerStyle.Render(fmt.Sprintf("Provider: %s", m.session.Provider)),
		headerStyle.MarginLeft(1).Render(fmt.Sprintf("Model: %s", m.session.ChatModel)),
		headerStyle.MarginLeft(1).Render(fmt.Sprintf("Collection: %s (%s)", m.session.Collection, m.session.Store)),
		headerStyle.MarginLeft(1).Render(fmt.Sprintf("TopK: %d", m.session.TopK)),
	)
	help := lipgloss.NewStyle().Render(" (esc to quit)")
	builder.WriteString(status + help + "\n\n")
	builder.WriteString(m.viewport.View())

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		builder.WriteString("\n" + m.spinner.View() + fmt.Sprintf(" Searching documents and thinking... %ss", timer))
	} else {
		builder.WriteString("\n" + m.textArea.View())
	}
	return builder.String()
}

// Run starts the chat UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, asker Answerer, session Session) error {
	if asker == nil {
		return fmt.Errorf("%w: chat requires an asker", rag.ErrInvalidConfig)
	}
	m := initialModel(ctx, asker, session)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}
