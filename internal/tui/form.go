package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/jesseduffield/gocui"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDescription
)

func buildFormFields(task *model.Task) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
	}
	if task == nil {
		return fields
	}

	fields[fieldTitle].Value = task.Title
	fields[fieldDescription].Value = task.Description
	return fields
}

func parseFormFields(fields []formField) (string, string, error) {
	title := strings.TrimSpace(fields[fieldTitle].Value)
	if title == "" {
		return "", "", fmt.Errorf("title is required")
	}
	return title, strings.TrimSpace(fields[fieldDescription].Value), nil
}

// editField applies one keystroke to a single-line form field.
func editField(field *formField, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
		return
	case gocui.KeySpace:
		field.Value += " "
		return
	case gocui.KeyCtrlU:
		field.Value = ""
		return
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == gocui.ModNone {
		field.Value += string(ch)
	}
}
