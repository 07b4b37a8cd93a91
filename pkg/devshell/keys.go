package devshell

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the terminal bindings that become native events.
type KeyMap struct {
	Theme key.Binding
	Menu  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap provides the default bindings.
var DefaultKeyMap = KeyMap{
	Theme: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle theme")),
	Menu:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "menu item")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "close window")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Theme, k.Menu, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
