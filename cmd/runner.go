package main

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/repositories"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/desertthunder/figx/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The backend client and the local database are created on first use so commands that need
// neither (setup config, help) work without a reachable backend.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader

	backend  *services.BackendService
	engine   *tasks.ListingEngine
	registry *prometheus.Registry
	metrics  *services.Metrics

	db       *sql.DB
	ownsDB   bool
	sessions *repositories.SessionRepository
	imports  *repositories.ImportLogRepository
	session  *models.Session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	// Backend replaces the client built from Config.
	Backend *services.BackendService
	// DB replaces the database opened from Config. It is not closed by the runner.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	registry := prometheus.NewRegistry()
	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		backend:    opts.Backend,
		registry:   registry,
		metrics:    services.NewMetrics(registry),
		db:         opts.DB,
	}
	if r.db != nil {
		r.sessions = repositories.NewSessionRepository(r.db)
		r.imports = repositories.NewImportLogRepository(r.db)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, importsCommand, reviewsCommand, recsCommand,
		usersCommand, prefsCommand, historyCommand, apiCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetConfig replaces the configuration. Clients already built keep the old values.
func (r *Runner) SetConfig(config *shared.Config, path string) {
	r.config = config
	r.configPath = path
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		return r.db.Close()
	}
	return nil
}

// openStore opens the local database on first use.
func (r *Runner) openStore() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}

	r.db, r.ownsDB = db, true
	r.sessions = repositories.NewSessionRepository(db)
	r.imports = repositories.NewImportLogRepository(db)
	return nil
}

// gateway returns the backend client, restoring the saved session for its origin.
func (r *Runner) gateway() (*services.BackendService, error) {
	if r.backend == nil {
		opts := services.OptionsFromConfig(r.config)
		opts.HTTPClient = r.httpClient
		opts.Logger = r.logger
		opts.Metrics = r.metrics

		backend, err := services.NewBackendService(opts)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	}

	if r.session == nil {
		if err := r.restoreSession(); err != nil && !errors.Is(err, shared.ErrNoSession) {
			r.logger.Warn("continuing without saved session", "error", err)
		}
	}
	return r.backend, nil
}

// listing returns the engine shared by listing commands.
func (r *Runner) listing() (*tasks.ListingEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	gw, err := r.gateway()
	if err != nil {
		return nil, err
	}
	r.engine = tasks.NewListingEngine(gw, r.logger).WithMetrics(r.metrics)
	return r.engine, nil
}

func (r *Runner) restoreSession() error {
	if err := r.openStore(); err != nil {
		return err
	}

	sess, err := r.sessions.Latest(r.backend.Origin())
	if err != nil {
		return err
	}
	r.attach(sess)
	r.logger.Debug("restored session", "username", sess.Username(), "backend", sess.BackendURL())
	return nil
}

// attach loads sess into the backend client and persists refreshed tokens back into it.
func (r *Runner) attach(sess *models.Session) {
	r.session = sess

	if sess.Cookies() != "" {
		if cookies, err := http.ParseCookie(sess.Cookies()); err == nil {
			r.backend.SetCookies(cookies)
		} else {
			r.logger.Warn("ignoring malformed saved cookies", "error", err)
		}
	}

	if sess.AccessToken() != "" {
		r.backend.UseToken(&oauth2.Token{
			AccessToken:  sess.AccessToken(),
			RefreshToken: sess.RefreshToken(),
			TokenType:    "Bearer",
			Expiry:       sess.ExpiresAt(),
		})
	}

	r.backend.OnTokenRefresh(func(tok *oauth2.Token) {
		sess.SetTokens(tok.AccessToken, tok.RefreshToken, tok.Expiry)
		if r.sessions == nil {
			return
		}
		if err := r.sessions.Save(sess); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
}

// confirm asks a yes/no question on the runner's input unless --yes was given.
// Anything but y or yes declines.
func (r *Runner) confirm(cmd *cli.Command, prompt string) error {
	if cmd.Bool("yes") {
		return nil
	}

	r.writePlain("%s [y/N]: ", prompt)
	answer, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return fmt.Errorf("%w: %s", shared.ErrNotConfirmed, prompt)
	}
}

// fail turns a backend error into the message the user sees, keeping the sentinel chain.
func (r *Runner) fail(action string, err error) error {
	var rf *services.RequestFailed
	if errors.As(err, &rf) {
		r.logger.Debug("request failed", "action", action, "kind", rf.Kind, "status", rf.Status, "path", rf.Path)
		return fmt.Errorf("%s: %s: %w", action, services.DisplayMessage(err), err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// idArg parses the first positional argument as a positive id.
func idArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}
