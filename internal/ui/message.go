package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	seq  uint64
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListingLoaded MsgKind = iota
	MsgDetailLoaded
	MsgImportFinished
)

type listingResult struct {
	state   tasks.ViewState
	listing *models.Listing
	err     error
}

type detailResult struct {
	tmdbID int
	movie  *models.MovieRecord
	err    error
}

type importResult struct {
	movie   *models.MovieRecord
	listing *models.Listing
	err     error
}

// listingLoadedMsg is the constructor for [MsgListingLoaded]
func listingLoadedMsg(seq uint64, state tasks.ViewState, listing *models.Listing, err error) Msg {
	return Msg{kind: MsgListingLoaded, seq: seq, data: listingResult{state: state, listing: listing, err: err}}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(seq uint64, tmdbID int, movie *models.MovieRecord, err error) Msg {
	return Msg{kind: MsgDetailLoaded, seq: seq, data: detailResult{tmdbID: tmdbID, movie: movie, err: err}}
}

// importFinishedMsg is the constructor for [MsgImportFinished]
func importFinishedMsg(seq uint64, movie *models.MovieRecord, listing *models.Listing, err error) Msg {
	return Msg{kind: MsgImportFinished, seq: seq, data: importResult{movie: movie, listing: listing, err: err}}
}
