package devshell

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescp17/liteshell/pkg/dispatch"
)

type recordingTarget struct {
	events []dispatch.Event
	err    error
}

func (r *recordingTarget) Post(ev dispatch.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_FocusAndBlur(t *testing.T) {
	target := &recordingTarget{}
	m := New(target)

	m, _ = update(t, m, tea.BlurMsg{})
	m, _ = update(t, m, tea.FocusMsg{})

	assert.Equal(t, []dispatch.Event{
		dispatch.WindowFocusChanged{Focused: false},
		dispatch.WindowFocusChanged{Focused: true},
	}, target.events)
	assert.Contains(t, m.View(), "focused")
}

func TestModel_ResizePostsScaleFactor(t *testing.T) {
	target := &recordingTarget{}
	m := New(target)

	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	require.Len(t, target.events, 1)
	assert.Equal(t, dispatch.ScaleFactorChanged{
		ScaleFactor:  1.0,
		NewInnerSize: dispatch.Size{Width: 120, Height: 40},
	}, target.events[0])
	assert.Contains(t, m.View(), "120x40")
}

func TestModel_ThemeCycles(t *testing.T) {
	target := &recordingTarget{}
	m := New(target)

	for i := 0; i < 3; i++ {
		m, _ = update(t, m, runes("t"))
	}

	assert.Equal(t, []dispatch.Event{
		dispatch.ThemeChanged{Theme: dispatch.ThemeLight},
		dispatch.ThemeChanged{Theme: dispatch.ThemeDark},
		dispatch.ThemeChanged{Theme: dispatch.ThemeUnspecified},
	}, target.events)
	assert.Equal(t, dispatch.ThemeUnspecified, m.Theme())
}

func TestModel_MenuDigits(t *testing.T) {
	t.Run("without configured menu", func(t *testing.T) {
		target := &recordingTarget{}
		m := New(target)
		update(t, m, runes("4"))
		assert.Equal(t, []dispatch.Event{dispatch.MenuActivated{ID: 4}}, target.events)
	})

	t.Run("with configured menu", func(t *testing.T) {
		target := &recordingTarget{}
		m := New(target, WithMenuIDs([]uint32{10, 20}))
		m, _ = update(t, m, runes("2"))
		m, _ = update(t, m, runes("3"))
		assert.Equal(t, []dispatch.Event{dispatch.MenuActivated{ID: 20}}, target.events)
	})
}

func TestModel_QuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		target := &recordingTarget{}
		m := New(target)

		_, cmd := update(t, m, msg)

		assert.True(t, isQuit(cmd))
		assert.Equal(t, []dispatch.Event{dispatch.CloseRequested{}}, target.events)
	}
}

func TestModel_UnboundKeyIsIgnored(t *testing.T) {
	target := &recordingTarget{}
	m := New(target)

	_, cmd := update(t, m, runes("x"))

	assert.Nil(t, cmd)
	assert.Empty(t, target.events)
}

func TestModel_ClosedTargetQuits(t *testing.T) {
	target := &recordingTarget{err: errors.New("event source closed")}
	m := New(target)

	m, cmd := update(t, m, tea.FocusMsg{})

	assert.True(t, isQuit(cmd))
	assert.Contains(t, m.View(), "event source closed")
}

func TestModel_DeliveryHistory(t *testing.T) {
	m := New(&recordingTarget{}, WithTitle("notes"), WithURL("http://127.0.0.1:9999/"))
	assert.Contains(t, m.View(), "no deliveries yet")

	for i := 0; i < defaultHistory+3; i++ {
		m, _ = update(t, m, DeliveredMsg{Name: "window.focused", Payload: `{"focused":true}`})
	}
	m, _ = update(t, m, DeliveredMsg{Name: "menu.clicked", Payload: "{\n\"menuId\":1}"})

	require.Len(t, m.Deliveries(), defaultHistory)
	assert.Equal(t, "menu.clicked", m.Deliveries()[defaultHistory-1].Name)

	view := m.View()
	assert.Contains(t, view, "notes")
	assert.Contains(t, view, "http://127.0.0.1:9999/")
	assert.Contains(t, view, "menu.clicked")
	assert.Contains(t, view, `{ "menuId":1}`)
}

func TestNextTheme(t *testing.T) {
	assert.Equal(t, dispatch.ThemeLight, nextTheme(dispatch.ThemeUnspecified))
	assert.Equal(t, dispatch.ThemeDark, nextTheme(dispatch.ThemeLight))
	assert.Equal(t, dispatch.ThemeUnspecified, nextTheme(dispatch.ThemeDark))
}
