package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-field-analyzer/auth"
	"github.com/jrsteele09/go-field-analyzer/auth/flowstate"
	"github.com/jrsteele09/go-field-analyzer/internal/config"
	"github.com/jrsteele09/go-field-analyzer/server"
	"github.com/jrsteele09/go-field-analyzer/server/loginsession"
)

var errPanicRecovered = errors.New("panic recovered")

func newServeCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for {
				err := run(opts.config)
				if errors.Is(err, errPanicRecovered) {
					time.Sleep(1 * time.Second)
					continue
				}
				if err != nil {
					return err
				}
				break
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errPanicRecovered
		}
	}()

	handler, err := newHandler(c)
	if err != nil {
		return err
	}

	displayAppname(c.GetAppName())
	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newHandler wires one auth.Manager per browsing context. All managers share the
// authenticator and the flow state store; flows are keyed by browsing context.
func newHandler(c config.Config) (*server.Server, error) {
	authenticator := newAuthenticator(c)
	flows := flowstate.NewInMemoryRepo(c.GetFlowStateTTL())
	contexts := loginsession.NewInMemoryLoginSessionRepo(func() (*auth.Manager, error) {
		return auth.NewManager(authenticator, flows)
	}, loginsession.WithIdleTTL(c.GetBrowsingContextTTL()))
	return server.New(c, contexts, newClientFactory(c))
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
