package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	esc      key.Binding
	toggle   key.Binding
	cancel   key.Binding
	skipWait key.Binding
	copy     key.Binding
	info     key.Binding
	quit     key.Binding
	yes      key.Binding
	no       key.Binding
}

var keys = keyMap{
	up:       key.NewBinding(key.WithKeys("up", "k")),
	down:     key.NewBinding(key.WithKeys("down", "j")),
	enter:    key.NewBinding(key.WithKeys("enter")),
	esc:      key.NewBinding(key.WithKeys("esc")),
	toggle:   key.NewBinding(key.WithKeys("t", " ")),
	cancel:   key.NewBinding(key.WithKeys("x")),
	skipWait: key.NewBinding(key.WithKeys("s")),
	copy:     key.NewBinding(key.WithKeys("c")),
	info:     key.NewBinding(key.WithKeys("i")),
	quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
	yes:      key.NewBinding(key.WithKeys("y")),
	no:       key.NewBinding(key.WithKeys("n")),
}
