package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/farmhand/farmhand/internal/models"
)

// DueTask is a pending task that is due today or overdue.
type DueTask struct {
	Field   string
	Crop    string
	Task    models.Task
	Overdue bool
}

// DueTasks returns pending tasks of active cycles dated on or before now's
// date, oldest first. Tasks with unparsable dates are skipped.
func DueTasks(fields []models.Field, cycles []models.CropCycle, now time.Time) []DueTask {
	names := make(map[string]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}
	today := now.Format(time.DateOnly)

	var due []DueTask
	for _, c := range cycles {
		if c.Status != models.CycleActive {
			continue
		}
		for _, t := range c.Tasks {
			if t.Status != models.TaskPending {
				continue
			}
			if _, err := time.Parse(time.DateOnly, t.Date); err != nil {
				continue
			}
			if t.Date > today {
				continue
			}
			field := names[c.FieldID]
			if field == "" {
				field = c.FieldID
			}
			due = append(due, DueTask{Field: field, Crop: c.CropName, Task: t, Overdue: t.Date < today})
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Task.Date != due[j].Task.Date {
			return due[i].Task.Date < due[j].Task.Date
		}
		return due[i].Field < due[j].Field
	})
	return due
}

// BuildDailyDigest summarises the tasks due today. Returns nil when nothing
// is due.
func BuildDailyDigest(fields []models.Field, cycles []models.CropCycle, now time.Time) *Notice {
	due := DueTasks(fields, cycles, now)
	if len(due) == 0 {
		return nil
	}

	overdue := 0
	var b strings.Builder
	for _, d := range due {
		marker := "•"
		if d.Overdue {
			marker = "⚠"
			overdue++
		}
		fmt.Fprintf(&b, "%s %s / %s: %s (%s, %s)\n", marker, d.Field, d.Crop, d.Task.Description, d.Task.Type, d.Task.Date)
	}

	color := ColorInfo
	if overdue > 0 {
		color = ColorMedium
	}
	return &Notice{
		Title: fmt.Sprintf("Farm tasks for %s", now.Format(time.DateOnly)),
		Body:  strings.TrimRight(b.String(), "\n"),
		Color: color,
		Fields: []Field{
			{Name: "Due", Value: fmt.Sprint(len(due)), Short: true},
			{Name: "Overdue", Value: fmt.Sprint(overdue), Short: true},
		},
	}
}
