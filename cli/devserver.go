// ABOUTME: dev-server command
// ABOUTME: Serves the in-memory fake backend locally for trying the CLI, TUI and MCP server
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/harperreed/mbgctl/fakeapi"
)

// DevServerCommand runs the fake backend until interrupted.
func DevServerCommand(addr string, logger *slog.Logger, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("dev-server", flag.ContinueOnError)
	listen := fs.String("addr", addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend := fakeapi.New(fakeapi.WithLogger(logger))
	srv := &http.Server{
		Addr:              *listen,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	fmt.Fprintf(out, "Fake MBG backend on http://%s%s\n", *listen, fakeapi.BasePath)
	fmt.Fprintf(out, "  Login: %s / %s\n", fakeapi.DefaultEmail, fakeapi.DefaultPassword)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dev server: %w", err)
	}
	logger.Info("dev server stopped")
	return nil
}
