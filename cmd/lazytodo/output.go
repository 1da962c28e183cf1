package main

import (
	"fmt"
	"io"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(5).Align(lipgloss.Right)
)

func printTasks(w io.Writer, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no tasks"))
		return
	}
	for _, task := range tasks {
		box := "[ ]"
		title := task.Title
		if task.Completed {
			box = passStyle.Render("[x]")
			title = doneStyle.Render(title)
		}
		age := humanize.RelTime(task.CreatedAt, now, "ago", "from now")
		fmt.Fprintf(w, "%s %s %s %s\n", idStyle.Render(fmt.Sprintf("%d", task.ID)), box, title, mutedStyle.Render(age))
	}
}
