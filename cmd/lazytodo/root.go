package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var webFlag, webOnlyFlag bool

	cmd := &cobra.Command{
		Use:   "lazytodo",
		Short: "Local-first todo list for the terminal",
		Long: `lazytodo keeps a local task list in SQLite and opens it in a terminal UI.

On first run, when the local store is empty, the list is seeded once from the
remote todo endpoint. After that every read and write stays local.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if webOnlyFlag {
				return runServe(cmd, flags)
			}

			a, err := openApp(flags, logToFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.saveConfigIfMissing(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(withContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if webFlag || a.cfg.WebEnabled {
				addr := fmt.Sprintf(":%d", a.cfg.WebPort)
				go func() {
					if err := serveHTTP(ctx, addr, a); err != nil {
						a.logger.Error("web server stopped", "err", err)
					}
				}()
			}

			return tui.Run(ctx, tui.Options{
				Tasks:   a.tasks,
				Workers: a.cfg.Workers,
				Logger:  a.logger,
				DBPath:  a.cfg.DBPath,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "sqlite db path")
	cmd.PersistentFlags().IntVar(&flags.port, "port", 0, "web server port")
	cmd.Flags().BoolVar(&webFlag, "web", false, "enable web server alongside the TUI")
	cmd.Flags().BoolVar(&webOnlyFlag, "web-only", false, "run web server only")

	cmd.AddCommand(
		newServeCmd(flags),
		newListCmd(flags),
		newSearchCmd(flags),
		newAddCmd(flags),
		newToggleCmd(flags),
		newDeleteCmd(flags),
		newStatusCmd(flags),
	)
	return cmd
}

func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
