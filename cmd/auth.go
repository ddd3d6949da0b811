package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/figx/internal/models"
	"github.com/desertthunder/figx/internal/services"
	"github.com/desertthunder/figx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin exchanges username and password for a token pair and saves the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	if password == "" {
		r.writePlain("Password: ")
		line, err := r.input.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("%w: password", shared.ErrMissingCredentials)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "username", username, "backend", backend.Origin())
	tok, err := backend.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return r.fail("login failed", err)
	}

	user, err := r.saveSession(ctx, backend, username, tok)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Logged in as %s (%s)\n", user.Username, user.Role)
}

// AuthRegister creates an account and saves the issued session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Username:        cmd.String("username"),
		Email:           cmd.String("email"),
		Password:        cmd.String("password"),
		PasswordConfirm: cmd.String("password-confirm"),
		Role:            cmd.String("role"),
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	result, err := backend.Register(ctx, reg)
	if err != nil {
		return r.fail("registration failed", err)
	}
	r.writePlain("✓ %s\n", fallback(result.Message, "Account created"))

	if result.Tokens.Access == "" {
		return r.writePlain("Run 'figx auth login -u %s' to start a session\n", reg.Username)
	}

	if _, err := r.saveSession(ctx, backend, reg.Username, services.NewToken(result.Tokens)); err != nil {
		return err
	}
	return r.writePlain("Logged in as %s\n", reg.Username)
}

// AuthCurl lifts cookies, CSRF token and bearer token out of a browser "Copy as cURL" command.
func (r *Runner) AuthCurl(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var (
		session *shared.CurlSession
		err     error
	)
	if curlFile != "" {
		session, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		session, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	backend, err := r.gateway()
	if err != nil {
		return err
	}

	if session.URL != "" {
		if u, err := url.Parse(session.URL); err == nil && u.Scheme+"://"+u.Host != backend.Origin() {
			r.logger.Warn("cURL target differs from configured backend", "target", u.Host, "backend", backend.Origin())
		}
	}

	cookies := session.Cookies()
	csrf := session.CSRFToken(r.config.Backend.CSRFCookie, r.config.Backend.CSRFHeader)
	if csrf != "" && !hasCookie(cookies, r.config.Backend.CSRFCookie) {
		cookies = append(cookies, &http.Cookie{Name: r.config.Backend.CSRFCookie, Value: csrf})
	}
	backend.SetCookies(cookies)

	var tok *oauth2.Token
	if bearer := session.BearerToken(); bearer != "" {
		tok = services.NewToken(models.TokenPair{Access: bearer})
		backend.UseToken(tok)
	}

	if tok == nil && len(cookies) == 0 {
		return fmt.Errorf("%w: no cookies or bearer token in cURL command", shared.ErrMissingCredentials)
	}

	user, err := r.saveSession(ctx, backend, cmd.String("username"), tok)
	if err != nil {
		return err
	}
	r.logger.Debug("imported browser session", "cookies", len(cookies), "bearer", tok != nil)
	return r.writePlain("✓ Browser session saved for %s\n", user.Username)
}

// AuthWhoami shows the user behind the saved session.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	user, err := backend.CurrentUser(ctx)
	if err != nil {
		return r.fail("whoami", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Username: %s\n", user.Username)
	r.writePlain("Email:    %s\n", user.Email)
	r.writePlain("Role:     %s\n", user.Role)
	r.writePlain("Backend:  %s\n", backend.Origin())
	if r.session != nil && !r.session.ExpiresAt().IsZero() {
		r.writePlain("Token expires: %s\n", r.session.ExpiresAt().Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// AuthLogout drops the saved session for the configured backend.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	backend, err := r.gateway()
	if err != nil {
		return err
	}

	if r.session == nil {
		return r.writePlain("No saved session for %s\n", backend.Origin())
	}

	if err := r.sessions.Delete(r.session.ID()); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	username := r.session.Username()
	r.session = nil
	backend.OnTokenRefresh(nil)
	backend.Logout()

	r.logger.Info("logged out", "username", username)
	return r.writePlain("✓ Logged out %s\n", username)
}

// saveSession persists the backend's current credentials. An empty username is looked up
// from the backend, which also confirms the credentials work.
func (r *Runner) saveSession(ctx context.Context, backend *services.BackendService, username string, tok *oauth2.Token) (*models.User, error) {
	user, err := backend.CurrentUser(ctx)
	if err != nil {
		if username == "" {
			return nil, r.fail("could not verify session", err)
		}
		r.logger.Warn("could not load user profile", "error", err)
		user = &models.User{Username: username}
	}
	if username == "" {
		username = user.Username
	}

	if err := r.openStore(); err != nil {
		return nil, err
	}

	sess := models.NewSession(backend.Origin(), username)
	if tok != nil {
		sess.SetTokens(tok.AccessToken, tok.RefreshToken, tok.Expiry)
	}
	sess.SetCookies(cookieHeader(backend.Cookies()))
	sess.SetIsStaff(user.IsAdmin())

	if err := r.sessions.Save(sess); err != nil {
		return nil, err
	}
	r.attach(sess)
	r.logger.Info("session saved", "username", username, "backend", backend.Origin())
	return user, nil
}

func cookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
