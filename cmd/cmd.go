// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func movieInputFlags(requireTitle bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Movie title", Required: requireTitle},
		&cli.StringFlag{Name: "description", Usage: "Plot summary"},
		&cli.IntFlag{Name: "year", Usage: "Release year"},
		&cli.IntFlag{Name: "runtime", Usage: "Runtime in minutes"},
		&cli.StringFlag{Name: "trailer", Usage: "Trailer URL"},
		&cli.IntSliceFlag{Name: "genre", Usage: "Genre id (repeatable)"},
		&cli.StringSliceFlag{Name: "actor", Usage: "Actor name (repeatable)"},
		&cli.StringFlag{Name: "director", Usage: "Director"},
		&cli.StringFlag{Name: "language", Usage: "Original language"},
		&cli.StringFlag{Name: "poster", Usage: "Poster image file to upload"},
		jsonFlag(),
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Listing source: all, local or external (default from config)",
		},
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Search both catalogs",
		},
		&cli.IntFlag{
			Name:    "page",
			Aliases: []string{"p"},
			Usage:   "Page number",
			Value:   1,
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "External sort: popular or top_rated (default from config)",
		},
		&cli.StringFlag{
			Name:  "genre",
			Usage: "Local genre filter",
		},
		&cli.IntFlag{
			Name:  "year",
			Usage: "Local release year filter",
		},
	}
}

// setupCommand handles setup operations for config and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the backend session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with username and password and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{
						Name:    "password",
						Usage:   "Password (read from stdin when omitted)",
						Sources: cli.EnvVars("FIGX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Password", Required: true},
					&cli.StringFlag{Name: "password-confirm", Usage: "Password again", Required: true},
					&cli.StringFlag{Name: "role", Usage: "Account role: user or admin"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "curl",
				Usage: "Import a browser session from a \"Copy as cURL\" command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Name to save the session under (default: asked from the backend)",
					},
				},
				Action: r.AuthCurl,
			},
			{
				Name:    "whoami",
				Aliases: []string{"status"},
				Usage:   "Show the logged in user",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.AuthWhoami,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved session for this backend",
				Action: r.AuthLogout,
			},
		},
	}
}

// moviesCommand handles catalog browsing and management
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse and manage the movie catalog",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show one page of the merged listing",
				Flags:  append(listingFlags(), jsonFlag()),
				Action: r.MoviesList,
			},
			{
				Name:      "search",
				Usage:     "Search both catalogs",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "all, local or external", Value: "all"},
					jsonFlag(),
				},
				Action: r.MoviesSearch,
			},
			{
				Name:      "show",
				Usage:     "Show a movie from our collection",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "open", Usage: "Open the movie page in a browser"},
					jsonFlag(),
				},
				Action: r.MoviesShow,
			},
			{
				Name:      "detail",
				Usage:     "Show an external (TMDb) movie",
				ArgsUsage: "<tmdb-id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.MoviesDetail,
			},
			{
				Name:      "import",
				Usage:     "Import an external movie into our collection",
				ArgsUsage: "<tmdb-id>",
				Flags:     []cli.Flag{yesFlag(), jsonFlag()},
				Action:    r.MoviesImport,
			},
			{
				Name:      "bulk-import",
				Usage:     "Import many external movies with progress and an audit log",
				ArgsUsage: "<tmdb-id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "File with one tmdb id per line"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent imports (default from config)"},
					&cli.FloatFlag{Name: "rate", Usage: "Imports per second (default from config)"},
				},
				Action: r.MoviesBulkImport,
			},
			{
				Name:   "discover",
				Usage:  "Discover external movies by genre, year and rating",
				Flags: []cli.Flag{
					&cli.IntSliceFlag{Name: "genre", Usage: "TMDb genre id (repeatable)"},
					&cli.IntFlag{Name: "year", Usage: "Release year"},
					&cli.FloatFlag{Name: "min-rating", Usage: "Minimum vote average"},
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					jsonFlag(),
				},
				Action: r.MoviesDiscover,
			},
			{
				Name:   "create",
				Usage:  "Add a movie to our collection (admin)",
				Flags:  movieInputFlags(true),
				Action: r.MoviesCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a movie in our collection (admin)",
				ArgsUsage: "<id>",
				Flags:     movieInputFlags(false),
				Action:    r.MoviesUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a movie from our collection (admin)",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.MoviesDelete,
			},
			{
				Name:  "genres",
				Usage: "List genres",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "sync", Usage: "Pull genres from TMDb first (admin)"},
					jsonFlag(),
				},
				Action: r.MoviesGenres,
			},
			{
				Name:  "export",
				Usage: "Export one listing page as JSON, CSV, Markdown or text",
				Flags: append(listingFlags(),
					&cli.StringFlag{Name: "format", Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (directory for markdown)", Required: true},
					&cli.BoolFlag{Name: "posters", Usage: "Download posters next to the markdown export"},
				),
				Action: r.MoviesExport,
			},
		},
	}
}

// importsCommand reads the local import audit log
func importsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "imports",
		Usage: "Inspect the local import audit log",
		Commands: []*cli.Command{
			{
				Name:  "log",
				Usage: "List recorded imports for this backend",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "imported, skipped or failed"},
					&cli.IntFlag{Name: "limit", Usage: "Show only the newest entries", Value: 50},
					jsonFlag(),
				},
				Action: r.ImportsLog,
			},
		},
	}
}

// reviewsCommand handles reviews and ratings
func reviewsCommand(r *Runner) *cli.Command {
	reviewFlags := func(required bool) []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{Name: "movie", Usage: "Local movie id", Required: required},
			&cli.IntFlag{Name: "rating", Usage: "Rating from 1 to 5", Required: true},
			&cli.StringFlag{Name: "text", Usage: "Review text"},
			jsonFlag(),
		}
	}

	return &cli.Command{
		Name:  "reviews",
		Usage: "Read and write movie reviews",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List reviews of a movie",
				ArgsUsage: "<movie-id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ReviewsList,
			},
			{
				Name:   "mine",
				Usage:  "List your reviews",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ReviewsMine,
			},
			{
				Name:      "average",
				Usage:     "Show the average rating of a movie",
				ArgsUsage: "<movie-id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ReviewsAverage,
			},
			{
				Name:   "add",
				Usage:  "Review a movie. Reviewing it again updates your review",
				Flags:  reviewFlags(true),
				Action: r.ReviewsAdd,
			},
			{
				Name:      "update",
				Usage:     "Update one of your reviews",
				ArgsUsage: "<review-id>",
				Flags:     reviewFlags(true),
				Action:    r.ReviewsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your reviews",
				ArgsUsage: "<review-id>",
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.ReviewsDelete,
			},
		},
	}
}

// recsCommand handles recommendations and the recommendation chat
func recsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recs",
		Aliases: []string{"recommendations"},
		Usage:   "Personalized recommendations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show movies picked for you",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of movies", Value: 10},
					jsonFlag(),
				},
				Action: r.RecsList,
			},
			{
				Name:      "similar",
				Usage:     "Show movies similar to a movie in our collection",
				ArgsUsage: "<movie-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of movies", Value: 10},
					jsonFlag(),
				},
				Action: r.RecsSimilar,
			},
			{
				Name:      "chat",
				Usage:     "Ask the recommendation assistant",
				ArgsUsage: "<message>",
				Action:    r.RecsChat,
			},
			{
				Name:  "history",
				Usage: "Show the chat history",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Delete the chat history"},
					yesFlag(),
					jsonFlag(),
				},
				Action: r.RecsHistory,
			},
		},
	}
}

// usersCommand handles account administration
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage accounts (admin)",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List users",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.UsersList,
			},
			{
				Name:      "show",
				Usage:     "Show one user",
				ArgsUsage: "<user-id>",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.UsersShow,
			},
			{
				Name:      "update",
				Usage:     "Change a user's name, email or role",
				ArgsUsage: "<user-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "New username"},
					&cli.StringFlag{Name: "email", Usage: "New email"},
					&cli.StringFlag{Name: "role", Usage: "user or admin"},
					jsonFlag(),
				},
				Action: r.UsersUpdate,
			},
			{
				Name:      "activate",
				Usage:     "Re-enable a user",
				ArgsUsage: "<user-id>",
				Action:    r.UsersActivate,
			},
			{
				Name:      "deactivate",
				Usage:     "Disable a user",
				ArgsUsage: "<user-id>",
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.UsersDeactivate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a user",
				ArgsUsage: "<user-id>",
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.UsersDelete,
			},
		},
	}
}

// prefsCommand handles recommendation preferences
func prefsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "prefs",
		Aliases: []string{"preferences"},
		Usage:   "Recommendation preferences",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your preferences",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.PrefsShow,
			},
			{
				Name:  "set",
				Usage: "Update your preferences. Omitted flags keep their values",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "genre", Usage: "Favorite genre (repeatable)"},
					&cli.StringSliceFlag{Name: "actor", Usage: "Favorite actor (repeatable)"},
					&cli.StringSliceFlag{Name: "language", Usage: "Preferred language (repeatable)"},
					&cli.FloatFlag{Name: "min-rating", Usage: "Minimum rating from 0 to 10"},
					&cli.IntFlag{Name: "year-start", Usage: "Earliest release year"},
					&cli.IntFlag{Name: "year-end", Usage: "Latest release year"},
					jsonFlag(),
				},
				Action: r.PrefsSet,
			},
		},
	}
}

// historyCommand handles the watch history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Watch history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show what you watched",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.HistoryList,
			},
			{
				Name:      "add",
				Usage:     "Mark a movie from our collection as watched",
				ArgsUsage: "<movie-id>",
				Action:    r.HistoryAdd,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend, using the saved session",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON responses",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Initial source: all, local or external"},
			&cli.StringFlag{Name: "sort", Usage: "Initial external sort: popular or top_rated"},
		},
		Action: r.TUI,
	}
}

// serveCommand returns the local HTML preview server command.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve an HTML preview of the catalog with /metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
		},
		Action: r.Serve,
	}
}
