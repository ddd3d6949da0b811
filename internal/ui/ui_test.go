package ui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/figx/internal/formatter"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/tasks"
	tu "github.com/desertthunder/figx/internal/testing"
)

func newGateway() *tu.MockGateway {
	return &tu.MockGateway{
		ListLocalFn: func(ctx context.Context, f models.MovieFilters) ([]models.MovieRecord, error) {
			return []models.MovieRecord{tu.LocalMovie(5, "Arrival")}, nil
		},
		PopularFn: func(ctx context.Context, page int) (*models.ExternalPage, error) {
			return &models.ExternalPage{
				Results:    []models.MovieRecord{tu.ExternalMovie(99, "Blade Runner")},
				Page:       page,
				TotalPages: 3,
			}, nil
		},
		DetailsFn: func(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
			rec := tu.ExternalMovie(tmdbID, "Blade Runner")
			rec.Runtime = models.IntPtr(117)
			return &rec, nil
		},
	}
}

func newTestModel(gw *tu.MockGateway, state tasks.ViewState) *Model {
	m := NewModel(context.Background(), Options{
		Engine: tasks.NewListingEngine(gw, nil),
		State:  state,
		Origin: "http://localhost:8000/",
		Open:   func(string) error { return nil },
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m *Model, k string) tea.Cmd {
	_, cmd := m.Update(keyMsg(k))
	return cmd
}

// run executes cmd, expanding batches, and returns the ui messages it produced.
func run(cmd tea.Cmd) []Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	case Msg:
		return []Msg{msg}
	}
	return nil
}

func feed(m *Model, cmd tea.Cmd) {
	for _, msg := range run(cmd) {
		m.Update(msg)
	}
}

func TestListing(t *testing.T) {
	t.Run("Init loads merged page", func(t *testing.T) {
		m := newTestModel(newGateway(), tasks.ViewState{})
		feed(m, m.Init())

		if len(m.grid.Cards) != 2 {
			t.Fatalf("expected 2 cards, got %d", len(m.grid.Cards))
		}
		if !m.grid.Cards[0].IsLocal() || m.grid.Cards[1].IsLocal() {
			t.Error("expected local card before external card")
		}

		view := m.View()
		for _, want := range []string{"Arrival", "Blade Runner", "Page 1 of 3", formatter.NextLabel} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
		if strings.Contains(view, formatter.PreviousLabel) {
			t.Error("first page must not offer Previous")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m := newTestModel(gw, tasks.ViewState{Source: tasks.SourceLocal})
		feed(m, m.Init())

		if !strings.Contains(m.View(), formatter.EmptyMessage) {
			t.Errorf("expected empty message, got:\n%s", m.View())
		}
	})

	t.Run("Error shows display message", func(t *testing.T) {
		gw := newGateway()
		gw.ListLocalFn = func(ctx context.Context, f models.MovieFilters) ([]models.MovieRecord, error) {
			return nil, &services.RequestFailed{Kind: services.KindUnauthorized, Status: 401}
		}
		m := newTestModel(gw, tasks.ViewState{Source: tasks.SourceLocal})
		feed(m, m.Init())

		if !strings.Contains(m.View(), services.MsgUnauthorized) {
			t.Errorf("expected unauthorized message, got:\n%s", m.View())
		}
	})

	t.Run("Older result is dropped", func(t *testing.T) {
		m := newTestModel(newGateway(), tasks.ViewState{})

		first := m.load()
		_, second := m.navigate(m.State().WithSource(tasks.SourceLocal))

		newer := run(second)
		older := run(first)
		for _, msg := range append(newer, older...) {
			m.Update(msg)
		}

		if len(m.grid.Cards) != 1 || !m.grid.Cards[0].IsLocal() {
			t.Errorf("expected only the local listing, got %+v", m.grid.Cards)
		}
		if m.loading {
			t.Error("expected loading to finish")
		}
	})
}

func TestKeys(t *testing.T) {
	t.Run("Tab cycles source", func(t *testing.T) {
		gw := newGateway()
		m := newTestModel(gw, tasks.ViewState{})
		feed(m, m.Init())

		feed(m, press(m, "tab"))
		if m.State().Source != tasks.SourceLocal {
			t.Fatalf("expected local source, got %v", m.State().Source)
		}
		if len(m.grid.Cards) != 1 {
			t.Errorf("expected local listing, got %d cards", len(m.grid.Cards))
		}

		feed(m, press(m, "tab"))
		if m.State().Source != tasks.SourceExternal {
			t.Errorf("expected external source, got %v", m.State().Source)
		}
	})

	t.Run("Search", func(t *testing.T) {
		gw := newGateway()
		m := newTestModel(gw, tasks.ViewState{})

		press(m, "/")
		if !m.searching {
			t.Fatal("expected search input to open")
		}
		for _, r := range "dune" {
			press(m, string(r))
		}
		cmd := press(m, "enter")

		if m.State().Query != "dune" {
			t.Fatalf("expected query dune, got %q", m.State().Query)
		}
		feed(m, cmd)

		calls := gw.Calls()
		if !slices.Contains(calls, "search") {
			t.Errorf("expected an external search, got %v", calls)
		}
		if m.grid.Pagination.Show {
			t.Error("search results are a single page")
		}

		feed(m, press(m, "esc"))
		if m.State().Searching() {
			t.Error("esc should clear the search")
		}
	})

	t.Run("Paging respects bounds", func(t *testing.T) {
		m := newTestModel(newGateway(), tasks.ViewState{})
		feed(m, m.Init())

		if cmd := press(m, "p"); cmd != nil || m.State().Page != 1 {
			t.Error("previous on page 1 must do nothing")
		}

		feed(m, press(m, "n"))
		if m.State().Page != 2 {
			t.Fatalf("expected page 2, got %d", m.State().Page)
		}
		feed(m, press(m, "n"))
		if m.State().Page != 3 {
			t.Fatalf("expected page 3, got %d", m.State().Page)
		}
		if cmd := press(m, "n"); cmd != nil || m.State().Page != 3 {
			t.Error("next on the last page must do nothing")
		}
	})

	t.Run("Sort only in external mode", func(t *testing.T) {
		gw := newGateway()
		m := newTestModel(gw, tasks.ViewState{})
		press(m, "s")
		if m.State().Sort != tasks.SortPopular {
			t.Error("sort must not change outside external mode")
		}

		m = newTestModel(gw, tasks.ViewState{Source: tasks.SourceExternal})
		feed(m, press(m, "s"))
		if m.State().Sort != tasks.SortTopRated {
			t.Errorf("expected top rated, got %s", m.State().Sort)
		}
		if calls := gw.Calls(); calls[len(calls)-1] != "top_rated" {
			t.Errorf("expected a top rated request, got %v", calls)
		}
	})

	t.Run("Enter on local card opens browser", func(t *testing.T) {
		var opened string
		m := newTestModel(newGateway(), tasks.ViewState{})
		m.open = func(url string) error {
			opened = url
			return nil
		}
		feed(m, m.Init())

		press(m, "enter")
		if opened != "http://localhost:8000/movies/5/" {
			t.Errorf("unexpected url %q", opened)
		}
	})

	t.Run("Open failure is reported", func(t *testing.T) {
		m := newTestModel(newGateway(), tasks.ViewState{})
		m.open = func(string) error { return errors.New("no browser") }
		feed(m, m.Init())

		press(m, "enter")
		if !strings.Contains(m.View(), "no browser") {
			t.Errorf("expected open error in view, got:\n%s", m.View())
		}
	})
}

func TestImportFlow(t *testing.T) {
	t.Run("Detail confirm import reload", func(t *testing.T) {
		gw := newGateway()
		m := newTestModel(gw, tasks.ViewState{})
		feed(m, m.Init())

		press(m, "j")
		feed(m, press(m, "enter"))
		if m.view != DetailView {
			t.Fatalf("expected detail view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "117 minutes") || !strings.Contains(m.View(), formatter.ImportLabel) {
			t.Errorf("unexpected detail view:\n%s", m.View())
		}

		press(m, "i")
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}

		feed(m, press(m, "y"))
		if m.view != ListingView {
			t.Errorf("expected listing view after import, got %v", m.view)
		}
		if m.status != formatter.ImportedMessage {
			t.Errorf("unexpected status %q", m.status)
		}

		calls := gw.Calls()
		i := slices.Index(calls, "import")
		if i < 0 || !slices.Contains(calls[i:], "local") {
			t.Errorf("expected an import followed by a reload, got %v", calls)
		}
	})

	t.Run("Declining returns to detail", func(t *testing.T) {
		gw := newGateway()
		m := newTestModel(gw, tasks.ViewState{})
		feed(m, m.Init())

		press(m, "j")
		feed(m, press(m, "enter"))
		press(m, "i")
		press(m, "n")

		if m.view != DetailView {
			t.Errorf("expected detail view, got %v", m.view)
		}
		if slices.Contains(gw.Calls(), "import") {
			t.Error("declined import must not reach the backend")
		}

		press(m, "esc")
		if m.view != ListingView {
			t.Errorf("expected listing view, got %v", m.view)
		}
	})

	t.Run("Failure", func(t *testing.T) {
		gw := newGateway()
		gw.ImportFn = func(ctx context.Context, tmdbID int) (*models.MovieRecord, error) {
			return nil, &services.RequestFailed{Kind: services.KindForbidden, Status: 403}
		}
		m := newTestModel(gw, tasks.ViewState{})
		feed(m, m.Init())

		press(m, "j")
		feed(m, press(m, "enter"))
		press(m, "i")
		feed(m, press(m, "y"))

		want := "Failed to import movie: " + services.MsgForbidden
		if m.err != want {
			t.Errorf("expected %q, got %q", want, m.err)
		}
	})
}
