package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatTaskSummary(task model.Task, fresh bool) string {
	marker := " "
	if fresh {
		marker = "*"
	}
	return fmt.Sprintf("%s%s %s", marker, checkbox(task.Completed), task.Title)
}

func formatTaskDetail(task model.Task, now time.Time) string {
	lines := []string{
		fmt.Sprintf("#%d %s", task.ID, task.Title),
		"",
	}
	if description := strings.TrimSpace(task.Description); description != "" && description != task.Title {
		lines = append(lines, description, "")
	}
	status := "pending"
	if task.Completed {
		status = "done"
	}
	lines = append(lines,
		"Status:  "+status,
		"Created: "+relativeTime(task.CreatedAt, now),
	)
	return strings.Join(lines, "\n")
}
