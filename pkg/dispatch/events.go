package dispatch

import (
	"github.com/rescp17/liteshell/pkg/surface"
)

// Event is a marker interface for everything the loop consumes. Only types
// embedding event satisfy it.
type Event interface {
	isDispatchEvent()
}

type event struct{}

func (event) isDispatchEvent() {}

// ControlFlow is the loop's own continue/stop state.
type ControlFlow int

const (
	// Wait parks the loop until the next event.
	Wait ControlFlow = iota
	// Exit stops the loop; it is terminal.
	Exit
)

// String returns a string representation of ControlFlow.
func (c ControlFlow) String() string {
	switch c {
	case Wait:
		return "wait"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Theme is the window's color scheme.
type Theme int

const (
	ThemeUnspecified Theme = iota
	ThemeLight
	ThemeDark
)

// String returns the name the UI receives for the theme.
func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return ""
	}
}

// ParseTheme maps "light" and "dark" to their themes; anything else is
// unspecified.
func ParseTheme(s string) Theme {
	switch s {
	case "light":
		return ThemeLight
	case "dark":
		return ThemeDark
	default:
		return ThemeUnspecified
	}
}

// Size is a window's inner size in physical pixels.
type Size struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// --- Native window and menu events ---

type WindowFocusChanged struct {
	event
	Focused bool
}

type ScaleFactorChanged struct {
	event
	ScaleFactor  float64
	NewInnerSize Size
}

type ThemeChanged struct {
	event
	Theme Theme
}

type CloseRequested struct {
	event
}

type MenuActivated struct {
	event
	ID uint32
}

// Ignored stands for native event kinds the loop has no delivery for.
type Ignored struct {
	event
	Kind string
}

// --- Host events ---

// Target is what a callback can use to reach the event source.
type Target interface {
	Post(ev Event) error
}

// CallbackFunc runs on the loop goroutine with the surface already acquired.
// It may deliver further scripts through ui, post follow-up events through
// target, or set *flow to Exit.
type CallbackFunc func(ui surface.Surface, target Target, flow *ControlFlow)

// HostCallback injects arbitrary host logic into the loop.
type HostCallback struct {
	event
	Fn CallbackFunc
}

// Callback wraps fn as an event.
func Callback(fn CallbackFunc) HostCallback {
	return HostCallback{Fn: fn}
}

// --- Payloads delivered to the UI ---

const (
	EventWindowFocused      = "window.focused"
	EventScaleFactorChanged = "window.scaleFactorChanged"
	EventThemeChanged       = "window.themeChanged"
	EventMenuClicked        = "menu.clicked"
)

type focusedPayload struct {
	Focused bool `json:"focused"`
}

type scaleFactorPayload struct {
	ScaleFactor  float64 `json:"scaleFactor"`
	NewInnerSize Size    `json:"newInnerSize"`
}

type themePayload struct {
	Theme string `json:"theme"`
}

type menuPayload struct {
	MenuID uint32 `json:"menuId"`
}
