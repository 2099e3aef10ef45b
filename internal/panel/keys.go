package panel

import "github.com/charmbracelet/bubbles/key"

// KeyBindings defines the panel's keyboard shortcuts.
type KeyBindings struct {
	Start   key.Binding
	Stop    key.Binding
	Greet   key.Binding
	Refresh key.Binding
	Quit    key.Binding

	// Name prompt
	Submit key.Binding
	Cancel key.Binding
}

// DefaultKeyBindings returns the default key bindings.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start worker"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop worker"),
		),
		Greet: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "greet"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// normalKeyMap is the help.KeyMap shown outside the name prompt.
type normalKeyMap struct{ k KeyBindings }

func (m normalKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.k.Start, m.k.Stop, m.k.Greet, m.k.Refresh, m.k.Quit}
}

func (m normalKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}

// promptKeyMap is the help.KeyMap shown while entering a name.
type promptKeyMap struct{ k KeyBindings }

func (m promptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.k.Submit, m.k.Cancel}
}

func (m promptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}
