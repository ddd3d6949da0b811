package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/figx/internal/formatter"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/desertthunder/figx/internal/tasks"
	"github.com/urfave/cli/v3"
)

func (r *Runner) printReviews(reviews []models.Review) {
	if len(reviews) == 0 {
		r.writePlain("No reviews yet\n")
		return
	}
	for _, rv := range reviews {
		r.writePlain("#%d  %s  %s by %s\n", rv.ID, formatter.Stars(rv.Rating), rv.MovieTitle, rv.UserUsername)
		if rv.ReviewText != "" {
			r.writePlain("     %s\n", rv.ReviewText)
		}
	}
}

// ReviewsList prints the reviews of a local movie.
func (r *Runner) ReviewsList(ctx context.Context, cmd *cli.Command) error {
	movieID, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	reviews, err := backend.ListMovieReviews(ctx, movieID)
	if err != nil {
		return r.fail("failed to load reviews", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(reviews, true)
	}
	r.printReviews(reviews)
	return nil
}

// ReviewsMine prints the logged in user's reviews.
func (r *Runner) ReviewsMine(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	reviews, err := backend.MyReviews(ctx)
	if err != nil {
		return r.fail("failed to load reviews", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(reviews, true)
	}
	r.printReviews(reviews)
	return nil
}

// ReviewsAverage prints the average rating of a local movie.
func (r *Runner) ReviewsAverage(ctx context.Context, cmd *cli.Command) error {
	movieID, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	summary, err := backend.MovieAverage(ctx, movieID)
	if err != nil {
		return r.fail("failed to load rating", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}
	if summary.TotalReviews == 0 {
		return r.writePlain("No ratings yet\n")
	}
	return r.writePlain("%.1f / 5 from %d reviews\n", summary.AverageRating, summary.TotalReviews)
}

func reviewInput(cmd *cli.Command) (models.ReviewInput, error) {
	in := models.ReviewInput{
		Movie:      cmd.Int("movie"),
		Rating:     cmd.Int("rating"),
		ReviewText: cmd.String("text"),
	}
	if err := in.Validate(); err != nil {
		return in, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return in, nil
}

// ReviewsAdd rates a local movie. The rating is checked before any request is made.
func (r *Runner) ReviewsAdd(ctx context.Context, cmd *cli.Command) error {
	in, err := reviewInput(cmd)
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	review, err := backend.CreateReview(ctx, in)
	if err != nil {
		return r.fail("failed to save review", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(review, true)
	}
	return r.writePlain("✓ Review #%d saved for %s\n", review.ID, fallback(review.MovieTitle, fmt.Sprintf("movie #%d", in.Movie)))
}

// ReviewsUpdate changes one of the user's reviews.
func (r *Runner) ReviewsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "review id")
	if err != nil {
		return err
	}
	in, err := reviewInput(cmd)
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	review, err := backend.UpdateReview(ctx, id, in)
	if err != nil {
		return r.fail("failed to update review", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(review, true)
	}
	return r.writePlain("✓ Review #%d updated\n", review.ID)
}

// ReviewsDelete removes one of the user's reviews after confirmation.
func (r *Runner) ReviewsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "review id")
	if err != nil {
		return err
	}
	if err := r.confirm(cmd, fmt.Sprintf("Delete review #%d?", id)); err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	if err := backend.DeleteReview(ctx, id); err != nil {
		return r.fail("failed to delete review", err)
	}
	return r.writePlain("✓ Review #%d deleted\n", id)
}

// printMovies prints movies from our collection like a listing page.
func (r *Runner) printMovies(title string, movies []models.MovieRecord) error {
	listing := models.Listing{
		Items:      tasks.ClassifyBatch(movies, models.HintLocal),
		Pagination: models.NewPageDescriptor(1, 1),
	}
	grid := formatter.RenderListing(listing, r.config.UI.PlaceholderPoster)

	r.writePlainHeader(title)
	text, err := formatter.ExportToText(grid)
	if err != nil {
		return err
	}
	_, err = r.output.Write(text)
	return err
}

// RecsList prints personalized recommendations.
func (r *Runner) RecsList(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	recs, err := backend.Recommendations(ctx, cmd.Int("limit"))
	if err != nil {
		return r.fail("failed to load recommendations", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(recs, true)
	}
	return r.printMovies("Recommended for you", recs.Recommendations)
}

// RecsSimilar prints movies similar to a local movie.
func (r *Runner) RecsSimilar(ctx context.Context, cmd *cli.Command) error {
	movieID, err := idArg(cmd, "movie id")
	if err != nil {
		return err
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	similar, err := backend.SimilarMovies(ctx, movieID, cmd.Int("limit"))
	if err != nil {
		return r.fail("failed to load similar movies", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(similar, true)
	}
	return r.printMovies(fmt.Sprintf("Similar to movie #%d", movieID), similar.SimilarMovies)
}

// RecsChat sends one message to the recommendation assistant.
func (r *Runner) RecsChat(ctx context.Context, cmd *cli.Command) error {
	message := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if message == "" {
		return fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	exchange, err := backend.Chat(ctx, message)
	if err != nil {
		return r.fail("chat failed", err)
	}
	return r.writePlain("%s\n", exchange.BotResponse.Message)
}

// RecsHistory prints or clears the chat history. Clearing asks for confirmation.
func (r *Runner) RecsHistory(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	if cmd.Bool("clear") {
		if err := r.confirm(cmd, "Clear your chat history?"); err != nil {
			return err
		}
		if err := backend.ClearChatHistory(ctx); err != nil {
			return r.fail("failed to clear chat history", err)
		}
		return r.writePlain("✓ Chat history cleared\n")
	}

	messages, err := backend.ChatHistory(ctx)
	if err != nil {
		return r.fail("failed to load chat history", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(messages, true)
	}
	if len(messages) == 0 {
		return r.writePlain("No messages yet\n")
	}
	for _, m := range messages {
		r.writePlain("[%s] %s: %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Sender, m.Message)
	}
	return nil
}
