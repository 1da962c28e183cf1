package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/errs"
	"github.com/spf13/cobra"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the task list",
		Long: `Print every task, newest first.

When the local store is empty the list is first seeded from the remote
endpoint, exactly as the TUI does on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.tasks.Load(withContext(cmd))
			if err != nil {
				return userError(err)
			}
			printTasks(cmd.OutOrStdout(), tasks, time.Now())
			return nil
		},
	}
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles and descriptions",
		Long:  `Search the local store, ignoring case and accents. The remote endpoint is never contacted.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.tasks.Search(withContext(cmd), strings.Join(args, " "))
			if err != nil {
				return userError(err)
			}
			printTasks(cmd.OutOrStdout(), tasks, time.Now())
			return nil
		},
	}
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> [description]",
		Short: "Create a task",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			tasks, err := a.tasks.Create(withContext(cmd), args[0], description)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), passStyle.Render("✓")+" created")
			printTasks(cmd.OutOrStdout(), tasks, time.Now())
			return nil
		},
	}
}

func newToggleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between pending and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.tasks.ToggleCompleted(withContext(cmd), id)
			if err != nil {
				return userError(err)
			}
			printTasks(cmd.OutOrStdout(), tasks, time.Now())
			return nil
		},
	}
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.tasks.Delete(withContext(cmd), id)
			if err != nil {
				return userError(err)
			}
			printTasks(cmd.OutOrStdout(), tasks, time.Now())
			return nil
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store and config locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(flags, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := withContext(cmd)
			rows, err := a.store.Count(ctx)
			if err != nil {
				return userError(err)
			}
			tasks := a.store.FetchAll(ctx)
			done := 0
			for _, task := range tasks {
				if task.Completed {
					done++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Config:"), a.cfgPath)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Store: "), a.cfg.DBPath)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Remote:"), a.cfg.RemoteURL)
			fmt.Fprintf(out, "%s %d (%d done)\n", labelStyle.Render("Tasks: "), len(tasks), done)
			if rows != len(tasks) {
				fmt.Fprintf(out, "%s %d duplicate rows collapsed on read\n", warnStyle.Render("!"), rows-len(tasks))
			}
			if !a.store.Exists(ctx) {
				fmt.Fprintln(out, mutedStyle.Render("Store is empty; the next list or TUI start seeds it from the remote."))
			}
			return nil
		},
	}
}

func parseTaskID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", value)
	}
	return id, nil
}

// userError reduces a coded error to its user-facing message.
func userError(err error) error {
	return errors.New(errs.MessageOf(err))
}
