// Package ui implements an interactive terminal catalog browser using bubbletea's Elm architecture.
//
// The TUI is a small multi-view workflow:
//  1. [ListingView] : Browse the merged listing, switch source, search, sort and page
//  2. [DetailView] : Inspect an external movie before importing it
//  3. [ConfirmView] : Confirm the import
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Every fetch runs as a [tea.Cmd]. Each carries the request number it was issued under, and completions that are no
// longer the latest request are dropped, so a slow page can never overwrite a newer one.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
