package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API and web page",
		Long: `Serve the task list over HTTP.

Endpoints:
  GET    /api/tasks?q=         list, or search when q is set
  POST   /api/tasks            create {title, description}
  GET    /api/tasks/{id}       one task
  PUT    /api/tasks/{id}       edit {title, description, completed}
  POST   /api/tasks/{id}/toggle
  DELETE /api/tasks/{id}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *globalFlags) error {
	a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(withContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := fmt.Sprintf(":%d", a.cfg.WebPort)
	fmt.Fprintf(cmd.OutOrStdout(), "Web server running at http://localhost%s\n", addr)
	return serveHTTP(ctx, addr, a)
}

// serveHTTP runs the web server until ctx is done, then shuts it down.
func serveHTTP(ctx context.Context, addr string, a *app) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(a.tasks, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("web server listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("web server stopped")
	return nil
}
