package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/figx/internal/formatter"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/desertthunder/figx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListingView ViewState = iota
	DetailView
	ConfirmView
)

// Options configures a [Model].
type Options struct {
	Engine *tasks.ListingEngine
	// State is the initial listing state.
	State       tasks.ViewState
	Placeholder string
	// Origin is prefixed to local detail routes when opening them in a browser.
	Origin string
	// Open launches a URL. Defaults to [shared.OpenBrowser].
	Open   func(url string) error
	Logger *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	engine      *tasks.ListingEngine
	state       tasks.ViewState
	placeholder string
	origin      string
	open        func(string) error
	logger      *log.Logger

	// seq numbers every issued fetch; only the latest one may change the screen
	seq     uint64
	loading bool

	width     int
	height    int
	list      list.Model
	grid      formatter.GridView
	detail    *formatter.DetailView
	searching bool
	input     textinput.Model
	spinner   spinner.Model
	status    string
	err       string
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	open := opts.Open
	if open == nil {
		open = shared.OpenBrowser
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.DisableQuitKeybindings()

	in := textinput.New()
	in.Placeholder = "Search movies"
	in.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:         ctx,
		view:        ListingView,
		engine:      opts.Engine,
		state:       opts.State.Normalize(),
		placeholder: opts.Placeholder,
		origin:      strings.TrimRight(opts.Origin, "/"),
		open:        open,
		logger:      logger,
		list:        l,
		input:       in,
		spinner:     sp,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Run starts the TUI on the alternate screen and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// State returns the listing state the model currently shows or is loading.
func (m *Model) State() tasks.ViewState { return m.state }

// Init initializes the TUI by loading the first page.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(msg.Width-4, 0), max(msg.Height-8, 0))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		switch m.view {
		case ListingView:
			return m.handleListingKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleResult(msg)
	}

	return m, nil
}

func (m *Model) handleResult(msg Msg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq {
		m.logger.Debug("dropping stale result", "seq", msg.seq, "current", m.seq)
		return m, nil
	}
	m.loading = false

	switch msg.kind {
	case MsgListingLoaded:
		res := msg.data.(listingResult)
		if errors.Is(res.err, shared.ErrStaleResponse) {
			return m, nil
		}
		if res.err != nil {
			m.err = services.DisplayMessage(res.err)
			return m, nil
		}
		return m, m.setListing(*res.listing)

	case MsgDetailLoaded:
		res := msg.data.(detailResult)
		if res.err != nil {
			m.err = services.DisplayMessage(res.err)
			return m, nil
		}
		view := formatter.RenderExternalDetail(*res.movie, m.placeholder)
		if view.TMDBID == 0 {
			view.TMDBID = res.tmdbID
		}
		m.detail = &view
		m.view = DetailView
		return m, nil

	case MsgImportFinished:
		res := msg.data.(importResult)
		m.view = ListingView
		if res.err != nil && res.movie == nil {
			m.err = fmt.Sprintf(formatter.ImportFailedFmt, services.DisplayMessage(res.err))
			return m, nil
		}
		m.status = formatter.ImportedMessage
		if res.listing != nil {
			return m, m.setListing(*res.listing)
		}
	}
	return m, nil
}

func (m *Model) setListing(l models.Listing) tea.Cmd {
	m.grid = formatter.RenderListing(l, m.placeholder)
	m.list.ResetSelected()
	return m.list.SetItems(cardItems(m.grid.Cards))
}

func (m *Model) handleListingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.source):
		return m.navigate(m.state.WithSource(m.state.Source.Next()))
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.input.SetValue(m.state.Query)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.next):
		if !m.grid.Pagination.HasNext {
			return m, nil
		}
		return m.navigate(m.state.WithPage(m.grid.Pagination.NextPage))
	case key.Matches(msg, m.keys.prev):
		if !m.grid.Pagination.HasPrevious {
			return m, nil
		}
		return m.navigate(m.state.WithPage(m.grid.Pagination.PreviousPage))
	case key.Matches(msg, m.keys.sort):
		if m.state.Source != tasks.SourceExternal || m.state.Searching() {
			return m, nil
		}
		return m.navigate(m.state.WithSort(m.state.Sort.Toggle()))
	case key.Matches(msg, m.keys.reload):
		return m.navigate(m.state)
	case key.Matches(msg, m.keys.back):
		if m.state.Searching() {
			return m.navigate(m.state.WithQuery(""))
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m.activate()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// activate follows the selected card's action. The origin on the card is trusted as is.
func (m *Model) activate() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(movieItem)
	if !ok {
		return m, nil
	}

	switch item.card.Action {
	case formatter.ActionNavigate:
		url := m.origin + item.card.Href
		if err := m.open(url); err != nil {
			m.err = fmt.Sprintf("Could not open %s: %v", url, err)
		} else {
			m.status = "Opened " + url
		}
		return m, nil
	default:
		return m, m.loadDetail(item.card.TargetID)
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		return m.navigate(m.state.WithQuery(m.input.Value()))
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListingView
		m.detail = nil
	case key.Matches(msg, m.keys.imprt):
		m.view = ConfirmView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.loading {
			return m, nil
		}
		return m, m.importSelected()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = DetailView
	}
	return m, nil
}

// navigate replaces the listing state and issues a fresh load.
func (m *Model) navigate(state tasks.ViewState) (tea.Model, tea.Cmd) {
	m.state = state.Normalize()
	m.view = ListingView
	m.detail = nil
	return m, m.load()
}

func (m *Model) begin() (context.Context, uint64) {
	m.seq++
	m.loading = true
	m.err = ""
	m.status = ""
	return m.ctx, m.seq
}

func (m *Model) load() tea.Cmd {
	ctx, seq := m.begin()
	engine, state := m.engine, m.state
	return func() tea.Msg {
		listing, err := engine.LoadPage(ctx, state)
		return listingLoadedMsg(seq, state, listing, err)
	}
}

func (m *Model) loadDetail(tmdbID int) tea.Cmd {
	ctx, seq := m.begin()
	engine := m.engine
	return func() tea.Msg {
		movie, err := engine.Details(ctx, tmdbID)
		return detailLoadedMsg(seq, tmdbID, movie, err)
	}
}

func (m *Model) importSelected() tea.Cmd {
	if m.detail == nil {
		return nil
	}
	ctx, seq := m.begin()
	engine, state, tmdbID := m.engine, m.state, m.detail.TMDBID
	return func() tea.Msg {
		movie, listing, err := engine.Import(ctx, state, tmdbID)
		return importFinishedMsg(seq, movie, listing, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return m.renderListing()
	}
}

func (m *Model) renderListing() string {
	var b strings.Builder

	header := "figx · " + formatter.SourceLabel(m.state.Source.String())
	if m.state.Searching() {
		header += fmt.Sprintf(" · search %q", m.state.Query)
	} else if m.state.Source == tasks.SourceExternal {
		header += " · " + formatter.SortLabel(string(m.state.Sort))
	}
	b.WriteString(styles.title.Render(header))
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading...")
	case m.grid.Empty:
		b.WriteString(styles.warn.Render(m.grid.Message))
	default:
		b.WriteString(m.list.View())
	}
	b.WriteString("\n")

	if p := m.grid.Pagination; p.Show && !m.loading {
		var parts []string
		if p.HasPrevious {
			parts = append(parts, formatter.PreviousLabel+" (p)")
		}
		parts = append(parts, p.Indicator)
		if p.HasNext {
			parts = append(parts, formatter.NextLabel+" (n)")
		}
		b.WriteString(strings.Join(parts, "   "))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.source, m.keys.search, m.keys.sort, m.keys.prev, m.keys.next, m.keys.enter, m.keys.quit,
	}))
	return b.String()
}

func (m *Model) renderStatus() string {
	switch {
	case m.err != "":
		return styles.err.Render(m.err) + "\n"
	case m.status != "":
		return styles.ok.Render(m.status) + "\n"
	}
	return ""
}

func (m *Model) renderDetail() string {
	d := m.detail
	if d == nil {
		return ""
	}

	lines := []string{
		styles.title.Render(d.Title),
		fmt.Sprintf("Year:     %s", d.Year),
		fmt.Sprintf("Rating:   %s", d.Rating),
		fmt.Sprintf("Runtime:  %s", d.Runtime),
		fmt.Sprintf("Genres:   %s", d.Genres),
		fmt.Sprintf("Language: %s", d.Language),
		fmt.Sprintf("Director: %s", d.Director),
		fmt.Sprintf("Cast:     %s", d.Actors),
		"",
		d.Description,
		"",
		styles.ok.Render("i: " + d.ImportLabel),
	}

	return strings.Join(lines, "\n") + "\n" + m.renderStatus() +
		m.help.ShortHelpView([]key.Binding{m.keys.imprt, m.keys.back, m.keys.quit})
}

func (m *Model) renderConfirm() string {
	if m.detail == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Import '%s' to Our Collection?", m.detail.Title))
	status := ""
	if m.loading {
		status = m.spinner.View() + " Importing...\n"
	}
	return fmt.Sprintf("%s\n%s%s", title, status, m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no}))
}
