package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/figx/internal/formatter"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/desertthunder/figx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// viewState builds the listing state from flags, falling back to the [ui] config defaults.
func (r *Runner) viewState(cmd *cli.Command) (tasks.ViewState, error) {
	sourceName := cmd.String("source")
	if sourceName == "" {
		sourceName = r.config.UI.DefaultSource
	}
	source, err := tasks.ParseSource(sourceName)
	if err != nil {
		return tasks.ViewState{}, err
	}

	sortName := cmd.String("sort")
	if sortName == "" {
		sortName = r.config.UI.DefaultSort
	}
	sort, err := tasks.ParseSortKey(sortName)
	if err != nil {
		return tasks.ViewState{}, err
	}

	state := tasks.ViewState{
		Source: source,
		Query:  cmd.String("query"),
		Page:   cmd.Int("page"),
		Sort:   sort,
		Genre:  cmd.String("genre"),
		Year:   cmd.Int("year"),
	}
	return state.Normalize(), nil
}

func (r *Runner) loadGrid(ctx context.Context, state tasks.ViewState) (formatter.GridView, error) {
	engine, err := r.listing()
	if err != nil {
		return formatter.GridView{}, err
	}

	r.logger.Debug("loading listing", "source", state.Source, "query", state.Query, "page", state.Page, "sort", state.Sort)
	listing, err := engine.LoadPage(ctx, state)
	if err != nil {
		return formatter.GridView{}, r.fail("failed to load movies", err)
	}
	return formatter.RenderListing(*listing, r.config.UI.PlaceholderPoster), nil
}

func (r *Runner) printGrid(state tasks.ViewState, grid formatter.GridView) error {
	title := formatter.SourceLabel(state.Source.String())
	switch {
	case state.Searching():
		title += fmt.Sprintf(" · search %q", state.Query)
	case state.Source == tasks.SourceExternal:
		title += " · " + formatter.SortLabel(string(state.Sort))
	}
	r.writePlainHeader(title)

	text, err := formatter.ExportToText(grid)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if p := grid.Pagination; p.Show {
		var hints []string
		if p.HasPrevious {
			hints = append(hints, fmt.Sprintf("%s: --page %d", formatter.PreviousLabel, p.PreviousPage))
		}
		if p.HasNext {
			hints = append(hints, fmt.Sprintf("%s: --page %d", formatter.NextLabel, p.NextPage))
		}
		r.writePlain("%s\n", strings.Join(hints, "   "))
	}
	return nil
}

// MoviesList prints one page of the merged listing.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	state, err := r.viewState(cmd)
	if err != nil {
		return err
	}

	grid, err := r.loadGrid(ctx, state)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(grid, true)
	}
	return r.printGrid(state, grid)
}

// MoviesSearch searches the catalogs implied by --source.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	source, err := tasks.ParseSource(cmd.String("source"))
	if err != nil {
		return err
	}
	state := tasks.ViewState{Source: source, Query: query}.Normalize()

	grid, err := r.loadGrid(ctx, state)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(grid, true)
	}
	return r.printGrid(state, grid)
}

func (r *Runner) printDetail(view formatter.DetailView) {
	r.writePlainHeader(view.Title)
	r.writePlain("Year:     %s\n", view.Year)
	r.writePlain("Rating:   %s\n", view.Rating)
	r.writePlain("Runtime:  %s\n", view.Runtime)
	r.writePlain("Genres:   %s\n", view.Genres)
	r.writePlain("Language: %s\n", view.Language)
	r.writePlain("Director: %s\n", view.Director)
	r.writePlain("Cast:     %s\n", view.Actors)
	if view.Trailer != "" {
		r.writePlain("Trailer:  %s\n", view.Trailer)
	}
	r.writePlainln("%s", view.Description)
}

// MoviesShow prints a movie from the local catalog.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	movie, err := backend.GetMovie(ctx, id)
	if err != nil {
		return r.fail("failed to load movie", err)
	}
	view := formatter.RenderLocalDetail(*movie, r.config.UI.PlaceholderPoster)

	if cmd.Bool("open") {
		url := backend.Origin() + fmt.Sprintf("/movies/%d/", id)
		if err := shared.OpenBrowser(url); err != nil {
			return fmt.Errorf("failed to open %s: %w", url, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, true)
	}
	r.printDetail(view)
	return nil
}

// MoviesDetail prints an external movie and how to import it.
func (r *Runner) MoviesDetail(ctx context.Context, cmd *cli.Command) error {
	tmdbID, err := idArg(cmd, "tmdb id")
	if err != nil {
		return err
	}

	engine, err := r.listing()
	if err != nil {
		return err
	}

	movie, err := engine.Details(ctx, tmdbID)
	if err != nil {
		return r.fail("failed to load movie", err)
	}
	view := formatter.RenderExternalDetail(*movie, r.config.UI.PlaceholderPoster)
	if view.TMDBID == 0 {
		view.TMDBID = tmdbID
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, true)
	}
	r.printDetail(view)
	r.writePlain("%s: figx movies import %d\n", view.ImportLabel, view.TMDBID)
	return nil
}

// MoviesImport imports one external movie after confirmation and records the outcome.
func (r *Runner) MoviesImport(ctx context.Context, cmd *cli.Command) error {
	tmdbID, err := idArg(cmd, "tmdb id")
	if err != nil {
		return err
	}

	engine, err := r.listing()
	if err != nil {
		return err
	}

	title := fmt.Sprintf("tmdb %d", tmdbID)
	if movie, err := engine.Details(ctx, tmdbID); err == nil && movie.Title != "" {
		title = movie.Title
	}
	if err := r.confirm(cmd, fmt.Sprintf("Import '%s' to Our Collection?", title)); err != nil {
		return err
	}

	state := tasks.ViewState{Source: tasks.SourceExternal}
	movie, _, err := engine.Import(ctx, state, tmdbID)
	r.metrics.ObserveImport(string(importStatus(err)))
	r.recordImport(tmdbID, movie, err)
	if err != nil {
		return fmt.Errorf(formatter.ImportFailedFmt+": %w", services.DisplayMessage(err), err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, true)
	}
	r.writePlain("✓ %s\n", formatter.ImportedMessage)
	if movie.ID != nil {
		r.writePlain("%s is #%d in Our Collection\n", movie.Title, *movie.ID)
	}
	return nil
}

func importStatus(err error) models.ImportStatus {
	switch {
	case err == nil:
		return models.ImportSucceeded
	case errors.Is(err, shared.ErrAlreadyImported):
		return models.ImportSkipped
	default:
		return models.ImportFailed
	}
}

// recordImport appends a single import to the audit log. A missing store only logs.
func (r *Runner) recordImport(tmdbID int, movie *models.MovieRecord, err error) {
	if storeErr := r.openStore(); storeErr != nil {
		r.logger.Warn("import not recorded", "error", storeErr)
		return
	}

	rec := models.NewImportRecord(r.backend.Origin(), tmdbID, importStatus(err))
	if movie != nil {
		rec.SetTitle(movie.Title)
		rec.SetMovieID(movie.ID)
	}
	if err != nil {
		rec.SetError(services.DisplayMessage(err))
	}
	if err := r.imports.RecordImport(rec); err != nil {
		r.logger.Warn("import not recorded", "tmdb_id", tmdbID, "error", err)
	}
}

// MoviesBulkImport imports every tmdb id given as argument or in --file.
func (r *Runner) MoviesBulkImport(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if path := cmd.String("file"); path != "" {
		fromFile, err := readIDFile(path)
		if err != nil {
			return err
		}
		ids = append(ids, fromFile...)
	}

	engine, err := r.listing()
	if err != nil {
		return err
	}

	opts := tasks.BulkImportOpts{
		NumWorkers: r.config.Import.Workers,
		RateLimit:  r.config.Import.RateLimit,
		BackendURL: r.backend.Origin(),
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}
	if err := r.openStore(); err != nil {
		r.logger.Warn("bulk import will not be recorded", "error", err)
	} else {
		opts.Recorder = r.imports
	}

	r.logger.Info("starting bulk import", "count", len(ids), "workers", opts.NumWorkers)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.QueueImports:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ImportMovie:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := engine.BulkImport(ctx, progressCh, ids, opts)
	close(progressCh)
	<-done

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Bulk Import Complete")
		r.writePlain("Imported: %d\n", result.Imported)
		r.writePlain("Skipped:  %d\n", result.Skipped)
		r.writePlain("Failed:   %d\n", result.Failed)
	}
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d imports failed", shared.ErrAPIRequest, result.Failed, result.Total)
	}
	return nil
}

func parseIDs(raw []string) ([]int, error) {
	ids := make([]int, 0, len(raw))
	for _, s := range raw {
		for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.Atoi(field)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: tmdb id must be a positive integer, got %q", shared.ErrInvalidArgument, field)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// readIDFile reads one id per line. Blank lines and lines starting with # are skipped.
func readIDFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open id file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read id file: %w", err)
	}
	return parseIDs(lines)
}

// MoviesDiscover lists external movies matching genre, year and rating filters.
func (r *Runner) MoviesDiscover(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	page, err := backend.DiscoverExternal(ctx, models.DiscoverFilters{
		GenreIDs:  cmd.IntSlice("genre"),
		Year:      cmd.Int("year"),
		MinRating: cmd.Float("min-rating"),
		Page:      cmd.Int("page"),
	})
	if err != nil {
		return r.fail("discover failed", err)
	}

	listing := models.Listing{
		Items:      tasks.ClassifyBatch(page.Results, models.HintExternal),
		Pagination: models.NewPageDescriptor(max(cmd.Int("page"), 1), page.TotalPages),
	}
	grid := formatter.RenderListing(listing, r.config.UI.PlaceholderPoster)

	if cmd.Bool("json") {
		return r.writeJSON(grid, true)
	}
	return r.printGrid(tasks.ViewState{Source: tasks.SourceExternal, Sort: tasks.SortPopular}, grid)
}

// movieInput overlays the flags that were set onto base.
func movieInput(cmd *cli.Command, base models.MovieInput) models.MovieInput {
	in := base
	if cmd.IsSet("title") {
		in.Title = cmd.String("title")
	}
	if cmd.IsSet("description") {
		in.Description = cmd.String("description")
	}
	if cmd.IsSet("year") {
		in.ReleaseYear = cmd.Int("year")
	}
	if cmd.IsSet("runtime") {
		in.Runtime = cmd.Int("runtime")
	}
	if cmd.IsSet("trailer") {
		in.TrailerURL = cmd.String("trailer")
	}
	if cmd.IsSet("genre") {
		in.GenreIDs = cmd.IntSlice("genre")
	}
	if cmd.IsSet("actor") {
		in.Actors = cmd.StringSlice("actor")
	}
	if cmd.IsSet("director") {
		in.Director = cmd.String("director")
	}
	if cmd.IsSet("language") {
		in.Language = cmd.String("language")
	}
	if cmd.IsSet("poster") {
		in.PosterPath = cmd.String("poster")
	}
	return in
}

// inputFromRecord turns a stored movie back into an editable form.
func inputFromRecord(m models.MovieRecord) models.MovieInput {
	in := models.MovieInput{
		Title:       m.Title,
		Description: m.Description,
		ReleaseYear: int(m.ReleaseYear),
		TrailerURL:  m.TrailerURL,
		Actors:      m.Actors,
		Director:    m.Director,
		Language:    m.Language,
	}
	if m.Runtime != nil {
		in.Runtime = *m.Runtime
	}
	for _, g := range m.Genres {
		if g.ID > 0 {
			in.GenreIDs = append(in.GenreIDs, g.ID)
		}
	}
	return in
}

// MoviesCreate adds a movie to the local catalog.
func (r *Runner) MoviesCreate(ctx context.Context, cmd *cli.Command) error {
	in := movieInput(cmd, models.MovieInput{})
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	movie, err := backend.CreateMovie(ctx, in)
	if err != nil {
		return r.fail("failed to create movie", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, true)
	}
	return r.writePlain("✓ Created %s\n", describeMovie(movie))
}

// MoviesUpdate changes the flags that were set and keeps every other field.
func (r *Runner) MoviesUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	current, err := backend.GetMovie(ctx, id)
	if err != nil {
		return r.fail("failed to load movie", err)
	}

	in := movieInput(cmd, inputFromRecord(*current))
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	movie, err := backend.UpdateMovie(ctx, id, in)
	if err != nil {
		return r.fail("failed to update movie", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(movie, true)
	}
	return r.writePlain("✓ Updated %s\n", describeMovie(movie))
}

// MoviesDelete removes a movie from the local catalog after confirmation.
func (r *Runner) MoviesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	movie, err := backend.GetMovie(ctx, id)
	if err != nil {
		return r.fail("failed to load movie", err)
	}
	if err := r.confirm(cmd, fmt.Sprintf("Delete '%s' from Our Collection?", movie.Title)); err != nil {
		return err
	}

	if err := backend.DeleteMovie(ctx, id); err != nil {
		return r.fail("failed to delete movie", err)
	}
	r.logger.Info("deleted movie", "id", id, "title", movie.Title)
	return r.writePlain("✓ Deleted %s\n", describeMovie(movie))
}

// MoviesGenres lists genres, optionally syncing them from TMDb first.
func (r *Runner) MoviesGenres(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	if cmd.Bool("sync") {
		res, err := backend.SyncGenres(ctx)
		if err != nil {
			return r.fail("genre sync failed", err)
		}
		r.writePlain("✓ %s (%d genres)\n", fallback(res.Message, "Genres synced"), res.TotalGenres)
	}

	genres, err := backend.ListGenres(ctx)
	if err != nil {
		return r.fail("failed to list genres", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(genres, true)
	}
	for _, g := range genres {
		r.writePlain("%4d  %s\n", g.ID, g.Name)
	}
	return nil
}

// MoviesExport writes one listing page in the chosen format.
func (r *Runner) MoviesExport(ctx context.Context, cmd *cli.Command) error {
	state, err := r.viewState(cmd)
	if err != nil {
		return err
	}

	grid, err := r.loadGrid(ctx, state)
	if err != nil {
		return err
	}

	files, err := formatter.WriteExport(grid, formatter.ExportOpts{
		Format:  cmd.String("format"),
		Path:    cmd.String("output"),
		Title:   formatter.SourceLabel(state.Source.String()),
		Posters: cmd.Bool("posters"),
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		r.writePlain("✓ Wrote %s\n", f)
	}
	return nil
}

func describeMovie(m *models.MovieRecord) string {
	if m.ID != nil {
		return fmt.Sprintf("#%d %s", *m.ID, m.Title)
	}
	return m.Title
}
