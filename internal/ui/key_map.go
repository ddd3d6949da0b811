package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	back   key.Binding
	source key.Binding
	search key.Binding
	next   key.Binding
	prev   key.Binding
	sort   key.Binding
	reload key.Binding
	imprt  key.Binding
	yes    key.Binding
	no     key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		source: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "source")),
		search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		next:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		prev:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous page")),
		sort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		imprt:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.source, k.search, k.enter, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.source, k.search, k.sort},
		{k.prev, k.next, k.reload},
		{k.back, k.quit},
	}
}
