package ui

import (
	"fmt"

	"github.com/nissyi-gh/bucket/internal/model"
)

const dateLayout = "2006-01-02"

// TaskItem wraps model.Task to satisfy the list.DefaultItem interface.
type TaskItem struct {
	Task model.Task
}

func (i TaskItem) Title() string {
	check := "[ ]"
	switch {
	case i.Task.Completed:
		check = "[x]"
	case i.Task.Scheduled:
		check = "[~]"
	}
	return fmt.Sprintf("%s %s", check, i.Task.Title)
}

func (i TaskItem) Description() string {
	return "due " + i.Task.ReviewAt.Format(dateLayout)
}

func (i TaskItem) FilterValue() string {
	return i.Task.Title
}
