package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragqa/internal/selector"
)

// Prompter asks single-line questions, one small program per question.
type Prompter struct {
	opts []tea.ProgramOption
}

// NewPrompter returns a prompter; opts are passed to every program it runs.
func NewPrompter(opts ...tea.ProgramOption) *Prompter {
	return &Prompter{opts: opts}
}

// Prompt shows question and returns what the user typed. Ctrl-C and Esc
// return selector.ErrAborted.
func (p *Prompter) Prompt(ctx context.Context, question string) (string, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, p.opts...)
	final, err := tea.NewProgram(newPromptModel(question), opts...).Run()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	pm := final.(promptModel)
	if pm.aborted {
		return "", selector.ErrAborted
	}
	return pm.input.Value(), nil
}

var questionStyle = lipgloss.NewStyle().Bold(true)

type promptModel struct {
	question string
	input    textinput.Model
	done     bool
	aborted  bool
}

func newPromptModel(question string) promptModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Focus()
	return promptModel{question: question, input: ti}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done {
		return questionStyle.Render(m.question) + m.input.Value() + "\n"
	}
	if m.aborted {
		return questionStyle.Render(m.question) + "\n"
	}
	return questionStyle.Render(m.question) + m.input.View()
}
