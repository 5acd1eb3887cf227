package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/postdesk/internal/app"
	"github.com/raysh454/postdesk/internal/presenter"
)

type call struct {
	action string
	form   app.Form
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	sink  presenter.Display
	err   error
}

func (f *fakeRunner) Run(_ context.Context, action string, form app.Form) (presenter.DisplayMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{action, form})
	f.mu.Unlock()
	if f.err != nil {
		return presenter.DisplayMessage{}, f.err
	}
	msg := presenter.DisplayMessage{Text: "ran " + action}
	if f.sink != nil {
		f.sink.Show(msg)
	}
	return msg, nil
}

func typeText(m Model, s string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestTabCyclesFocus(t *testing.T) {
	t.Parallel()
	m := New(&fakeRunner{}, nil, "")
	assert.Equal(t, fieldID, m.focus)

	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, fieldTitle, m.focus)
	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyTab)
	assert.Equal(t, fieldID, m.focus)

	m, _ = press(m, tea.KeyShiftTab)
	assert.Equal(t, fieldBody, m.focus)
	assert.True(t, m.inputs[fieldBody].Focused())
	assert.False(t, m.inputs[fieldID].Focused())
}

func TestFunctionKeysRunActionsWithForm(t *testing.T) {
	t.Parallel()
	runner := &fakeRunner{}
	m := New(runner, nil, "")

	m = typeText(m, "5")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "hello")
	m, _ = press(m, tea.KeyTab)
	m = typeText(m, "world")

	keys := map[tea.KeyType]string{
		tea.KeyF1: app.ActionFetch,
		tea.KeyF2: app.ActionXHR,
		tea.KeyF3: app.ActionPost,
		tea.KeyF4: app.ActionPut,
	}
	for k, action := range keys {
		var cmd tea.Cmd
		m, cmd = press(m, k)
		require.NotNil(t, cmd, action)
		done, ok := cmd().(doneMsg)
		require.True(t, ok)
		assert.Equal(t, action, done.action)
		assert.NoError(t, done.err)
	}

	require.Len(t, runner.calls, 4)
	for _, c := range runner.calls {
		assert.Equal(t, app.Form{ID: "5", Title: "hello", Body: "world"}, c.form)
	}
}

func TestPendingIndicator(t *testing.T) {
	t.Parallel()
	m := New(&fakeRunner{}, nil, "")

	m, _ = press(m, tea.KeyF1)
	m, _ = press(m, tea.KeyF3)
	assert.Equal(t, 2, m.Pending())
	assert.Contains(t, m.View(), "2 request(s) in flight")

	next, _ := m.Update(doneMsg{action: app.ActionFetch})
	m = next.(Model)
	next, _ = m.Update(doneMsg{action: app.ActionPost})
	m = next.(Model)
	assert.Zero(t, m.Pending())
	assert.NotContains(t, m.View(), "in flight")
}

func TestDisplayUpdatesFromSink(t *testing.T) {
	t.Parallel()
	sink := presenter.NewChan()
	runner := &fakeRunner{sink: sink}
	m := New(runner, sink.C(), "http://api.test/posts")

	_, cmd := press(m, tea.KeyF2)
	cmd()

	msg := m.waitForDisplay()()
	next, _ := m.Update(msg)
	m = next.(Model)

	shown, ok := m.Display()
	require.True(t, ok)
	assert.Equal(t, "ran xhr", shown.Text)
	assert.Contains(t, m.View(), "ran xhr")
	assert.Contains(t, m.View(), "http://api.test/posts")
}

func TestDisplay_LastMessageWins(t *testing.T) {
	t.Parallel()
	m := New(&fakeRunner{}, nil, "")
	for _, text := range []string{"first", "second", "third"} {
		next, _ := m.Update(displayMsg{Text: text})
		m = next.(Model)
	}
	shown, _ := m.Display()
	assert.Equal(t, "third", shown.Text)
	assert.NotContains(t, m.View(), "second")
}

func TestErrorMessageRendersAsError(t *testing.T) {
	t.Parallel()
	m := New(&fakeRunner{}, nil, "")
	next, _ := m.Update(displayMsg{Text: "Server Error (404): Not Found", IsError: true})
	m = next.(Model)

	shown, _ := m.Display()
	assert.True(t, shown.IsError)
	assert.Contains(t, m.View(), "Server Error (404): Not Found")
}

func TestRunFailureIsShown(t *testing.T) {
	t.Parallel()
	m := New(&fakeRunner{err: app.ErrUnknownAction}, nil, "")

	m, cmd := press(m, tea.KeyF4)
	next, _ := m.Update(cmd())
	m = next.(Model)

	shown, ok := m.Display()
	require.True(t, ok)
	assert.True(t, shown.IsError)
	assert.Equal(t, "Error: unknown action", shown.Text)
	assert.Zero(t, m.Pending())
}

func TestWaitForDisplay_ClosedChannel(t *testing.T) {
	t.Parallel()
	ch := make(chan presenter.DisplayMessage)
	close(ch)
	m := New(&fakeRunner{}, ch, "")
	assert.Nil(t, m.waitForDisplay()())
}

func TestQuit(t *testing.T) {
	t.Parallel()
	m := New(&fakeRunner{}, nil, "")
	_, cmd := press(m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestIdleView(t *testing.T) {
	t.Parallel()
	view := New(&fakeRunner{}, nil, "").View()
	assert.Contains(t, view, "Press F1-F4")
	for _, h := range []string{"F1 fetch", "F2 xhr", "F3 post", "F4 put"} {
		assert.True(t, strings.Contains(view, h), h)
	}
}
