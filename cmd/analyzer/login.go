package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/jrsteele09/go-field-analyzer/auth"
	"github.com/jrsteele09/go-field-analyzer/auth/flowstate"
	apperrors "github.com/jrsteele09/go-field-analyzer/internal/errors"
)

const (
	cliFlowKey      = "cli"
	callbackTimeout = 5 * time.Minute
)

// callbackResult is what the platform sent to the redirect URI.
type callbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

func (o *cliOptions) authenticate(ctx context.Context) (*auth.Manager, error) {
	manager, err := auth.NewManager(newAuthenticator(o.config), flowstate.NewInMemoryRepo(o.config.GetFlowStateTTL()))
	if err != nil {
		return nil, err
	}

	if o.oauth {
		if err := o.loginWithBrowser(ctx, manager); err != nil {
			return nil, err
		}
		return manager, nil
	}

	if o.username == "" {
		return nil, &apperrors.ConfigurationError{Reason: "--username or --oauth is required"}
	}
	password := o.password
	if password == "" {
		if password, err = promptPassword(o.username); err != nil {
			return nil, err
		}
	}
	if _, err := manager.LoginWithCredentials(ctx, o.username, password, o.effectiveLoginURL()); err != nil {
		return nil, err
	}
	return manager, nil
}

func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", &apperrors.ConfigurationError{Reason: "--password is required when stdin is not a terminal"}
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

// loginWithBrowser runs the authorization code flow against a loopback listener on
// the configured redirect URI.
func (o *cliOptions) loginWithBrowser(ctx context.Context, manager *auth.Manager) error {
	redirectURI, err := url.Parse(o.config.GetRedirectURI())
	if err != nil || redirectURI.Host == "" {
		return &apperrors.ConfigurationError{Reason: fmt.Sprintf("invalid redirect uri %q", o.config.GetRedirectURI())}
	}

	listener, err := net.Listen("tcp", redirectURI.Host)
	if err != nil {
		return fmt.Errorf("listen for the oauth callback: %w", err)
	}

	request, err := manager.BeginAuthorizationCodeFlow(cliFlowKey, auth.FlowParameters{
		ClientID:    o.config.GetClientID(),
		RedirectURI: redirectURI.String(),
		LoginURL:    o.effectiveLoginURL(),
	})
	if err != nil {
		_ = listener.Close()
		return err
	}

	fmt.Fprintf(os.Stderr, "Open this URL to authorize:\n\n  %s\n\n", request.URL)

	ctx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()
	result, err := waitForCallback(ctx, listener, redirectURI.Path)
	if err != nil {
		return err
	}
	if result.Error != "" {
		return &apperrors.AuthExchangeError{Code: result.Error, Description: result.ErrorDescription}
	}

	session, err := manager.CompleteAuthorizationCodeFlow(ctx, cliFlowKey, auth.CompletionParameters{
		Code:  result.Code,
		State: result.State,
	})
	if err != nil {
		return err
	}
	log.Info().Str("username", session.UserInfo.Username).Str("instance", session.InstanceURL).Msg("Authorized")
	return nil
}

// waitForCallback serves path on listener until the first redirect arrives and
// closes the listener before returning.
func waitForCallback(ctx context.Context, listener net.Listener, path string) (callbackResult, error) {
	if path == "" {
		path = "/"
	}
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result := callbackResult{
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}
		select {
		case results <- result:
		default:
			http.Error(w, "Authorization already received", http.StatusConflict)
			return
		}
		if result.Error != "" {
			http.Error(w, "Authorization failed: "+strings.TrimSpace(result.Error+" "+result.ErrorDescription), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("Authorization received. You can close this window and return to the terminal."))
	})

	callbackServer := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := callbackServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = callbackServer.Shutdown(shutdownCtx)
	}()

	select {
	case result := <-results:
		return result, nil
	case err, ok := <-serveErr:
		if !ok {
			return callbackResult{}, errors.New("oauth callback listener closed")
		}
		return callbackResult{}, fmt.Errorf("oauth callback listener: %w", err)
	case <-ctx.Done():
		return callbackResult{}, ctx.Err()
	}
}
