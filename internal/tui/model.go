// Package tui is the terminal front-end: three inputs, one key per action,
// and a display region that always shows the latest result.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/raysh454/postdesk/internal/app"
	"github.com/raysh454/postdesk/internal/presenter"
)

// Runner executes one action and renders it to the display the TUI listens on.
type Runner interface {
	Run(ctx context.Context, action string, form app.Form) (presenter.DisplayMessage, error)
}

const (
	fieldID = iota
	fieldTitle
	fieldBody
	fieldCount
)

type keyMap struct {
	next, prev, quit key.Binding
	actions          []actionKey
}

type actionKey struct {
	action  string
	binding key.Binding
}

func defaultKeys() keyMap {
	bind := func(k, action string) actionKey {
		return actionKey{action: action, binding: key.NewBinding(key.WithKeys(k), key.WithHelp(strings.ToUpper(k), action))}
	}
	return keyMap{
		next: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prev: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		quit: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
		actions: []actionKey{
			bind("f1", app.ActionFetch),
			bind("f2", app.ActionXHR),
			bind("f3", app.ActionPost),
			bind("f4", app.ActionPut),
		},
	}
}

// displayMsg carries a message from the display sink into the update loop.
type displayMsg presenter.DisplayMessage

// doneMsg marks the end of one Run; err is set when the action never ran.
type doneMsg struct {
	action string
	err    error
}

// Model implements tea.Model.
type Model struct {
	runner  Runner
	updates <-chan presenter.DisplayMessage
	baseURL string

	inputs []textinput.Model
	focus  int
	keys   keyMap

	display presenter.DisplayMessage
	shown   bool
	pending int
}

// New builds the model. updates must be the receive side of the sink the
// runner renders to.
func New(runner Runner, updates <-chan presenter.DisplayMessage, baseURL string) Model {
	m := Model{
		runner:  runner,
		updates: updates,
		baseURL: baseURL,
		inputs:  make([]textinput.Model, fieldCount),
		keys:    defaultKeys(),
	}
	placeholders := [fieldCount]string{"post id (PUT only)", "title", "body"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 500
		m.inputs[i] = ti
	}
	m.inputs[fieldID].Focus()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForDisplay())
}

func (m Model) waitForDisplay() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.updates
		if !ok {
			return nil
		}
		return displayMsg(msg)
	}
}

func (m Model) form() app.Form {
	return app.Form{
		ID:    m.inputs[fieldID].Value(),
		Title: m.inputs[fieldTitle].Value(),
		Body:  m.inputs[fieldBody].Value(),
	}
}

func (m Model) run(action string) tea.Cmd {
	form := m.form()
	runner := m.runner
	return func() tea.Msg {
		_, err := runner.Run(context.Background(), action, form)
		return doneMsg{action: action, err: err}
	}
}

func (m Model) setFocus(i int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (i + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.next):
			return m.setFocus(m.focus + 1), nil
		case key.Matches(msg, m.keys.prev):
			return m.setFocus(m.focus - 1), nil
		}
		for _, ak := range m.keys.actions {
			if key.Matches(msg, ak.binding) {
				m.pending++
				return m, m.run(ak.action)
			}
		}

	case displayMsg:
		m.display, m.shown = presenter.DisplayMessage(msg), true
		return m, m.waitForDisplay()

	case doneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			m.display, m.shown = presenter.PresentError(msg.err), true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("postdesk"))
	if m.baseURL != "" {
		b.WriteString("  " + mutedStyle.Render(m.baseURL))
	}
	b.WriteString("\n\n")

	labels := [fieldCount]string{"ID", "Title", "Body"}
	for i, ti := range m.inputs {
		label := labelStyle.Render(labels[i])
		if i == m.focus {
			label = focusStyle.Render(labelStyle.Render(labels[i]))
		}
		b.WriteString(label + ti.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case !m.shown:
		b.WriteString(displayStyle.Render(mutedStyle.Render("Press F1-F4 to send a request.")))
	case m.display.IsError:
		b.WriteString(displayErrorStyle.Render(errorStyle.Render(m.display.Text)))
	default:
		b.WriteString(displayStyle.Render(m.display.Text))
	}
	b.WriteString("\n")

	if m.pending > 0 {
		b.WriteString(pendingStyle.Render(fmt.Sprintf("● %d request(s) in flight", m.pending)) + "\n")
	}

	help := make([]string, 0, len(m.keys.actions)+2)
	for _, ak := range m.keys.actions {
		h := ak.binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	help = append(help, m.keys.next.Help().Key+" "+m.keys.next.Help().Desc, m.keys.quit.Help().Key+" "+m.keys.quit.Help().Desc)
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

// Pending reports how many actions are still running.
func (m Model) Pending() int { return m.pending }

// Display returns what the display region currently shows.
func (m Model) Display() (presenter.DisplayMessage, bool) { return m.display, m.shown }

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, runner Runner, updates <-chan presenter.DisplayMessage, baseURL string) error {
	p := tea.NewProgram(New(runner, updates, baseURL), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
