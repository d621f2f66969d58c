package store

import (
	"fmt"
	"time"

	"github.com/farmhand/farmhand/internal/models"
)

// GenerateTasks expands a preset's default tasks for a cycle starting on
// startDate (YYYY-MM-DD). Each task is dated startDate plus its day offset,
// starts pending, and gets an id from newID that is not in taken. Generated
// ids are added to taken.
func GenerateTasks(preset models.CropPreset, cycleID, startDate string, newID func() string, taken map[string]bool) ([]models.Task, error) {
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		return nil, fmt.Errorf("store: preset %s: start date: %w", preset.ID, err)
	}
	tasks := make([]models.Task, 0, len(preset.DefaultTasks))
	for _, dt := range preset.DefaultTasks {
		id := newID()
		for taken[id] {
			id = newID()
		}
		taken[id] = true
		tasks = append(tasks, models.Task{
			ID:          id,
			CycleID:     cycleID,
			Type:        dt.Type,
			Date:        start.AddDate(0, 0, dt.DayOffset).Format(time.DateOnly),
			Description: dt.Description,
			Status:      models.TaskPending,
		})
	}
	return tasks, nil
}
