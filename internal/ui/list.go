package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/figx/internal/formatter"
)

var (
	_ list.Item = movieItem{}
)

// movieItem wraps [formatter.CardView] to implement [list.Item].
type movieItem struct {
	card formatter.CardView
}

func (i movieItem) FilterValue() string { return i.card.Title }
func (i movieItem) Title() string       { return i.card.Title }
func (i movieItem) Description() string {
	badge := styles.external.Render(i.card.Badge)
	if i.card.IsLocal() {
		badge = styles.local.Render(i.card.Badge)
	}
	return fmt.Sprintf("%s • ★ %s • %s", i.card.Year, i.card.Rating, badge)
}

func cardItems(cards []formatter.CardView) []list.Item {
	items := make([]list.Item, len(cards))
	for i, card := range cards {
		items[i] = movieItem{card: card}
	}
	return items
}
