package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) printUser(u models.User) {
	status := "active"
	if !u.Active() {
		status = "inactive"
	}
	r.writePlain("#%-4d %-20s %-28s %-6s %s\n", u.ID, u.Username, u.Email, u.Role, status)
}

// UsersList prints all accounts.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	users, err := backend.ListUsers(ctx)
	if err != nil {
		return r.fail("failed to list users", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, true)
	}
	for _, u := range users {
		r.printUser(u)
	}
	return nil
}

// UsersShow prints one account.
func (r *Runner) UsersShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "user id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	user, err := backend.GetUser(ctx, id)
	if err != nil {
		return r.fail("failed to load user", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	r.printUser(*user)
	return nil
}

// UsersUpdate patches the fields that were given.
func (r *Runner) UsersUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "user id")
	if err != nil {
		return err
	}

	var patch models.UserUpdate
	if cmd.IsSet("username") {
		v := cmd.String("username")
		patch.Username = &v
	}
	if cmd.IsSet("email") {
		v := cmd.String("email")
		patch.Email = &v
	}
	if cmd.IsSet("role") {
		v := cmd.String("role")
		if v != models.RoleAdmin && v != models.RoleUser {
			return fmt.Errorf("%w: role must be %q or %q", shared.ErrInvalidArgument, models.RoleAdmin, models.RoleUser)
		}
		patch.Role = &v
	}
	if patch == (models.UserUpdate{}) {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	return r.patchUser(ctx, cmd, id, patch, "updated")
}

// UsersActivate re-enables an account.
func (r *Runner) UsersActivate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "user id")
	if err != nil {
		return err
	}
	active := true
	return r.patchUser(ctx, cmd, id, models.UserUpdate{IsActive: &active}, "activated")
}

// UsersDeactivate disables an account after confirmation.
func (r *Runner) UsersDeactivate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "user id")
	if err != nil {
		return err
	}
	if err := r.confirm(cmd, fmt.Sprintf("Deactivate user #%d?", id)); err != nil {
		return err
	}
	active := false
	return r.patchUser(ctx, cmd, id, models.UserUpdate{IsActive: &active}, "deactivated")
}

func (r *Runner) patchUser(ctx context.Context, cmd *cli.Command, id int, patch models.UserUpdate, verb string) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	user, err := backend.UpdateUser(ctx, id, patch)
	if err != nil {
		return r.fail("failed to update user", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return r.writePlain("✓ User %s %s\n", user.Username, verb)
}

// UsersDelete removes an account after confirmation.
func (r *Runner) UsersDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "user id")
	if err != nil {
		return err
	}
	if err := r.confirm(cmd, fmt.Sprintf("Delete user #%d? This cannot be undone", id)); err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	if err := backend.DeleteUser(ctx, id); err != nil {
		return r.fail("failed to delete user", err)
	}
	return r.writePlain("✓ User #%d deleted\n", id)
}

func (r *Runner) printPreferences(p models.Preferences) {
	years := "any"
	switch {
	case p.PreferredReleaseYearStart != nil && p.PreferredReleaseYearEnd != nil:
		years = fmt.Sprintf("%d-%d", *p.PreferredReleaseYearStart, *p.PreferredReleaseYearEnd)
	case p.PreferredReleaseYearStart != nil:
		years = fmt.Sprintf("from %d", *p.PreferredReleaseYearStart)
	case p.PreferredReleaseYearEnd != nil:
		years = fmt.Sprintf("until %d", *p.PreferredReleaseYearEnd)
	}

	r.writePlain("Genres:     %s\n", joinOrNone(p.FavoriteGenres))
	r.writePlain("Actors:     %s\n", joinOrNone(p.FavoriteActors))
	r.writePlain("Languages:  %s\n", joinOrNone(p.PreferredLanguages))
	r.writePlain("Min rating: %.1f\n", p.MinRating)
	r.writePlain("Years:      %s\n", years)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// PrefsShow prints the user's recommendation preferences.
func (r *Runner) PrefsShow(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	prefs, err := backend.Preferences(ctx)
	if err != nil {
		return r.fail("failed to load preferences", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(prefs, true)
	}
	r.printPreferences(*prefs)
	return nil
}

// PrefsSet updates the preferences named by flags and keeps the rest.
func (r *Runner) PrefsSet(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	current, err := backend.Preferences(ctx)
	if err != nil {
		return r.fail("failed to load preferences", err)
	}

	prefs := *current
	if cmd.IsSet("genre") {
		prefs.FavoriteGenres = cmd.StringSlice("genre")
	}
	if cmd.IsSet("actor") {
		prefs.FavoriteActors = cmd.StringSlice("actor")
	}
	if cmd.IsSet("language") {
		prefs.PreferredLanguages = cmd.StringSlice("language")
	}
	if cmd.IsSet("min-rating") {
		prefs.MinRating = cmd.Float("min-rating")
	}
	if cmd.IsSet("year-start") {
		prefs.PreferredReleaseYearStart = models.IntPtr(cmd.Int("year-start"))
	}
	if cmd.IsSet("year-end") {
		prefs.PreferredReleaseYearEnd = models.IntPtr(cmd.Int("year-end"))
	}
	if err := prefs.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	updated, err := backend.UpdatePreferences(ctx, prefs)
	if err != nil {
		return r.fail("failed to update preferences", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(updated, true)
	}
	r.writePlain("✓ Preferences updated\n")
	r.printPreferences(*updated)
	return nil
}

// HistoryList prints the watch history.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	entries, err := backend.WatchHistory(ctx)
	if err != nil {
		return r.fail("failed to load watch history", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}
	if len(entries) == 0 {
		return r.writePlain("Nothing watched yet\n")
	}
	for _, e := range entries {
		r.writePlain("%s  %s\n", e.WatchedAt.Local().Format("2006-01-02"), describeMovie(&e.Movie))
	}
	return nil
}

// HistoryAdd marks a local movie as watched.
func (r *Runner) HistoryAdd(ctx context.Context, cmd *cli.Command) error {
	movieID, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	res, err := backend.AddToWatchHistory(ctx, movieID)
	if err != nil {
		return r.fail("failed to add to watch history", err)
	}
	return r.writePlain("✓ %s\n", fallback(res.Message, "Added to watch history"))
}

// ImportsLog prints the local import audit log for the configured backend.
func (r *Runner) ImportsLog(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	criteria := map[string]any{
		"backend_url": backend.Origin(),
		"limit":       cmd.Int("limit"),
	}
	if status := cmd.String("status"); status != "" {
		switch models.ImportStatus(status) {
		case models.ImportSucceeded, models.ImportSkipped, models.ImportFailed:
			criteria["status"] = models.ImportStatus(status)
		default:
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
		}
	}

	records, err := r.imports.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type entry struct {
			Sequence int                 `json:"sequence"`
			TMDBID   int                 `json:"tmdb_id"`
			MovieID  *int                `json:"movie_id,omitempty"`
			Title    string              `json:"title,omitempty"`
			Status   models.ImportStatus `json:"status"`
			Error    string              `json:"error,omitempty"`
			At       string              `json:"created_at"`
		}
		out := make([]entry, 0, len(records))
		for _, rec := range records {
			out = append(out, entry{
				Sequence: rec.Sequence(),
				TMDBID:   rec.TMDBID(),
				MovieID:  rec.MovieID(),
				Title:    rec.Title(),
				Status:   rec.Status(),
				Error:    rec.ErrorMessage(),
				At:       rec.CreatedAt().Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		return r.writeJSON(out, true)
	}

	if len(records) == 0 {
		return r.writePlain("No imports recorded for %s\n", backend.Origin())
	}
	for _, rec := range records {
		line := fmt.Sprintf("%4d  %s  tmdb %-8d %-8s", rec.Sequence(), rec.CreatedAt().Local().Format("2006-01-02 15:04"), rec.TMDBID(), rec.Status())
		switch {
		case rec.Title() != "":
			line += " " + rec.Title()
		case rec.ErrorMessage() != "":
			line += " " + rec.ErrorMessage()
		}
		r.writePlain("%s\n", line)
	}
	return nil
}
