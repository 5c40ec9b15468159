// Package tui is an interactive typechecker: a context field and a term
// field over a "⊢ :" relation, with the derived type shown as you type.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gitrdm/natded/pkg/natded"
)

// NoType is shown when either field fails to parse or the term does not
// typecheck.
const NoType = "(no type)"

const (
	// DefaultContext is the context the form opens with.
	DefaultContext = "(f : (Bool → Bool) , ∅)"
	// DefaultTerm is the term the form opens with.
	DefaultTerm = "λ x : Bool . (f (if x then false else x))"
)

// ReloadMsg replaces the relation, typically after its rule file changed.
// A non-nil Err keeps the current relation and reports the failure.
type ReloadMsg struct {
	Relation *natded.Relation
	Err      error
}

const (
	focusContext = iota
	focusTerm
)

// Model is the bubbletea model of the form.
type Model struct {
	relation *natded.Relation
	context  textinput.Model
	term     textinput.Model
	focus    int
	status   string
	quitting bool
}

// New returns a form over relation, which must take two inputs.
func New(relation *natded.Relation) Model {
	ctx := textinput.New()
	ctx.Prompt = ""
	ctx.CharLimit = 1024
	ctx.Width = 24
	ctx.SetValue(DefaultContext)
	ctx.Focus()

	term := textinput.New()
	term.Prompt = ""
	term.CharLimit = 4096
	term.Width = 40
	term.SetValue(DefaultTerm)

	return Model{relation: relation, context: ctx, term: term}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles keys and reloads.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab:
			m.toggleFocus()
			return m, nil
		}
	case ReloadMsg:
		if msg.Err != nil {
			m.status = "reload failed: " + msg.Err.Error()
		} else {
			m.relation = msg.Relation
			m.status = "rules reloaded"
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusContext {
		m.context, cmd = m.context.Update(msg)
	} else {
		m.term, cmd = m.term.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusContext {
		m.focus = focusTerm
		m.context.Blur()
		m.term.Focus()
	} else {
		m.focus = focusContext
		m.term.Blur()
		m.context.Focus()
	}
}

// Type typechecks the current fields. Both are parsed in one scope, so a
// variable written in both fields is the same variable.
func (m Model) Type() string {
	if m.relation == nil {
		return NoType
	}
	p := natded.NewParser(natded.FreshBuilder())
	ctx, err := p.Parse(m.context.Value())
	if err != nil {
		return NoType
	}
	term, err := p.Parse(m.term.Value())
	if err != nil {
		return NoType
	}
	T, err := m.relation.Once(ctx, term)
	if err != nil {
		return NoType
	}
	return T.String()
}

var (
	symbolStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	noTypeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// View renders the form on one line with the type, then status and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	T := m.Type()
	typeView := typeStyle.Render(T)
	if T == NoType {
		typeView = noTypeStyle.Render(T)
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		m.context.View(),
		symbolStyle.Render(" ⊢ "),
		m.term.View(),
		symbolStyle.Render(" : "),
		typeView,
	))
	b.WriteString("\n\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab switch field • esc quit"))
	b.WriteString("\n")
	return b.String()
}

// Run shows the form until the user quits or ctx is done. Messages received
// on reloads are delivered to the form while it runs.
func Run(ctx context.Context, relation *natded.Relation, reloads <-chan ReloadMsg) error {
	p := tea.NewProgram(New(relation), tea.WithContext(ctx))
	if reloads != nil {
		go func() {
			for {
				select {
				case msg, ok := <-reloads:
					if !ok {
						return
					}
					p.Send(msg)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
