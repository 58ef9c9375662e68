package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the bindings of the play screen.
type KeyMap struct {
	Buy   key.Binding
	Hold  key.Binding
	Sell  key.Binding
	Reset key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Buy:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "buy")),
		Hold:  key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hold")),
		Sell:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sell")),
		Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Buy, k.Hold, k.Sell, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
