package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bnema/refine-cli/internal/adapters/httpapi"
	"github.com/spf13/cobra"
	"goa.design/clue/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(state *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session and job API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := state.app
			if err := a.require(keyOpenAI, keyAnthropic); err != nil {
				return err
			}
			if err := a.require(keyReconstruction); err != nil {
				log.Warn(cmd.Context(), log.KV{K: "msg", V: "job submission disabled"}, log.KV{K: "err", V: err.Error()})
			}
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			ctx := log.Context(cmd.Context(), log.WithDisableBuffering(func(context.Context) bool { return true }))
			handler := httpapi.NewRouter(ctx, a.service, httpapi.Options{
				AwaitFeedback: a.cfg.Refine.AwaitFeedback,
				Pingers:       a.pingers,
			})

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return serveHTTP(ctx, listener, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from http.addr)")

	return cmd
}

// serveHTTP blocks until ctx is cancelled or the server fails, then shuts
// down gracefully.
func serveHTTP(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 60 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Printf(ctx, "HTTP server listening on %q", listener.Addr().String())
		errc <- srv.Serve(listener)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf(ctx, "shutting down HTTP server at %q", listener.Addr().String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
