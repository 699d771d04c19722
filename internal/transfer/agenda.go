package transfer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nissyi-gh/bucket/internal/model"
)

const agendaDate = "2006-01-02"

// Agenda renders tasks as a plain-text list grouped by review date,
// earliest first. Completed tasks are checked, scheduled ones marked.
func Agenda(tasks []model.Task) string {
	sorted := append([]model.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReviewAt.Before(sorted[j].ReviewAt)
	})

	var sb strings.Builder
	lastDate := ""
	for _, t := range sorted {
		date := t.ReviewAt.Format(agendaDate)
		if date != lastDate {
			if lastDate != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(date + ":\n")
			lastDate = date
		}

		check := " "
		if t.Completed {
			check = "x"
		}
		sb.WriteString(fmt.Sprintf("- [%s] %s", check, t.Title))
		if t.Scheduled {
			sb.WriteString(" (scheduled)")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
