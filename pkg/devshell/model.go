// Package devshell is a terminal stand-in for the native window. Focus,
// resize and key presses in the terminal are posted as dispatch events, and
// the deliveries observed by the UI surface are listed on screen.
package devshell

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rescp17/liteshell/internal/util"
	"github.com/rescp17/liteshell/pkg/dispatch"
	"github.com/rescp17/liteshell/pkg/surface/scriptsurface"
)

const (
	defaultHistory = 8
	nameColumn     = 28
)

// DeliveredMsg reports one event received by the UI surface.
type DeliveredMsg struct {
	Name    string
	Payload string
}

// Model is the bubbletea model of the terminal window.
type Model struct {
	target  dispatch.Target
	title   string
	url     string
	menuIDs []uint32
	history int

	keys KeyMap
	help help.Model

	focused bool
	theme   dispatch.Theme
	width   int
	height  int

	deliveries []DeliveredMsg
	lastErr    error
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the heading.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithURL shows the address the UI is served on.
func WithURL(url string) Option {
	return func(m *Model) { m.url = url }
}

// WithMenuIDs maps digit keys to menu item ids. Without it digit n
// activates id n.
func WithMenuIDs(ids []uint32) Option {
	return func(m *Model) { m.menuIDs = ids }
}

// WithTheme sets the initial theme.
func WithTheme(theme dispatch.Theme) Option {
	return func(m *Model) { m.theme = theme }
}

// New returns a model posting to target.
func New(target dispatch.Target, opts ...Option) Model {
	m := Model{
		target:  target,
		title:   "liteshell",
		history: defaultHistory,
		keys:    DefaultKeyMap,
		help:    help.New(),
		focused: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.title)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.focused = true
		return m.post(dispatch.WindowFocusChanged{Focused: true})
	case tea.BlurMsg:
		m.focused = false
		return m.post(dispatch.WindowFocusChanged{Focused: false})
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m.post(dispatch.ScaleFactorChanged{
			ScaleFactor:  1.0,
			NewInnerSize: dispatch.Size{Width: uint32(msg.Width), Height: uint32(msg.Height)},
		})
	case tea.KeyMsg:
		return m.handleKey(msg)
	case DeliveredMsg:
		m.deliveries = append(m.deliveries, msg)
		if len(m.deliveries) > m.history {
			m.deliveries = m.deliveries[len(m.deliveries)-m.history:]
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		next, _ := m.post(dispatch.CloseRequested{})
		return next, tea.Quit
	case key.Matches(msg, m.keys.Theme):
		m.theme = nextTheme(m.theme)
		return m.post(dispatch.ThemeChanged{Theme: m.theme})
	case key.Matches(msg, m.keys.Menu):
		id, ok := m.menuID(int(msg.String()[0] - '0'))
		if !ok {
			return m, nil
		}
		return m.post(dispatch.MenuActivated{ID: id})
	}
	return m, nil
}

func (m Model) menuID(n int) (uint32, bool) {
	if len(m.menuIDs) == 0 {
		return uint32(n), true
	}
	if n < 1 || n > len(m.menuIDs) {
		return 0, false
	}
	return m.menuIDs[n-1], true
}

// nextTheme cycles light, dark, unspecified.
func nextTheme(t dispatch.Theme) dispatch.Theme {
	switch t {
	case dispatch.ThemeLight:
		return dispatch.ThemeDark
	case dispatch.ThemeDark:
		return dispatch.ThemeUnspecified
	default:
		return dispatch.ThemeLight
	}
}

// post forwards ev to the target. A closed target means the loop is gone.
func (m Model) post(ev dispatch.Event) (tea.Model, tea.Cmd) {
	if err := m.target.Post(ev); err != nil {
		m.lastErr = err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(m.title))
	if m.url != "" {
		b.WriteString("  " + URLStyle.Render(m.url))
	}
	b.WriteString("\n\n")

	focus := "blurred"
	if m.focused {
		focus = "focused"
	}
	theme := m.theme.String()
	if theme == "" {
		theme = "system"
	}
	b.WriteString(StatusStyle.Render(fmt.Sprintf("%s · theme %s · %dx%d", focus, theme, m.width, m.height)))
	b.WriteString("\n\n")

	b.WriteString(LogStyle.Render(m.deliveryLog()))
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(ErrorStyle.Render(m.lastErr.Error()) + "\n")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return DocStyle.Render(b.String())
}

func (m Model) deliveryLog() string {
	if len(m.deliveries) == 0 {
		return MutedStyle.Render("no deliveries yet")
	}
	payloadWidth := m.width - nameColumn - 10
	if payloadWidth < 16 {
		payloadWidth = 16
	}
	lines := make([]string, 0, len(m.deliveries))
	for _, d := range m.deliveries {
		name := EventNameStyle.Render(util.PadRight(d.Name, nameColumn))
		lines = append(lines, name+" "+util.SingleLine(d.Payload, payloadWidth))
	}
	return strings.Join(lines, "\n")
}

// Deliveries returns the retained delivery history, oldest first.
func (m Model) Deliveries() []DeliveredMsg {
	return m.deliveries
}

// Theme returns the current theme.
func (m Model) Theme() dispatch.Theme {
	return m.theme
}

// NewProgram builds a program with focus reporting on the alternate screen.
// It stops when ctx is cancelled.
func NewProgram(ctx context.Context, m Model, opts ...tea.ProgramOption) *tea.Program {
	opts = append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithReportFocus(),
		tea.WithAltScreen(),
	}, opts...)
	return tea.NewProgram(m, opts...)
}

// Forward returns a surface observer that shows every emission in p.
func Forward(p *tea.Program) scriptsurface.Observer {
	return func(e scriptsurface.Emission) {
		p.Send(DeliveredMsg{Name: e.Name, Payload: string(e.Payload)})
	}
}
