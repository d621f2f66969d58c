package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/models"
)

// AddField creates or overwrites a field.
func (s *Store) AddField(ctx context.Context, f models.Field) {
	if f.ID == "" {
		s.log.Warn("store: add field without id ignored", zap.String("name", f.Name))
		return
	}
	s.port.put(ctx, s.fields, f.ID, f)
}

// UpdateField merges p into the field with id.
func (s *Store) UpdateField(ctx context.Context, id string, p models.Patch) {
	s.port.merge(ctx, s.fields, id, p)
}

// DeleteField removes the field. Its cycles are kept: they stay readable by
// id but no longer belong to any field.
func (s *Store) DeleteField(ctx context.Context, id string) {
	s.port.remove(ctx, s.fields, id)
}

// AddCycle stores a new crop cycle. When presetID names a known crop
// preset, the preset's default tasks are appended to the cycle's tasks. An
// active cycle then becomes its field's current crop in a second write.
func (s *Store) AddCycle(ctx context.Context, c models.CropCycle, presetID string) {
	if c.ID == "" {
		s.log.Warn("store: add cycle without id ignored", zap.String("field", c.FieldID))
		return
	}
	c = c.Clone()
	if presetID != "" {
		s.mu.RLock()
		preset, ok := s.cropPresets.get(presetID)
		s.mu.RUnlock()
		if ok {
			taken := make(map[string]bool, len(c.Tasks))
			for _, t := range c.Tasks {
				taken[t.ID] = true
			}
			tasks, err := GenerateTasks(preset, c.ID, c.StartDate, s.newID, taken)
			if err != nil {
				s.log.Warn("store: preset tasks skipped", zap.String("cycle", c.ID), zap.Error(err))
			}
			c.Tasks = append(c.Tasks, tasks...)
		} else {
			s.log.Warn("store: unknown crop preset", zap.String("cycle", c.ID), zap.String("preset", presetID))
		}
	}

	s.port.put(ctx, s.cycles, c.ID, c)
	if c.Status == models.CycleActive && c.FieldID != "" {
		s.port.merge(ctx, s.fields, c.FieldID, models.Patch{"currentCropId": c.ID})
	}
}

// UpdateCycle merges top-level attributes into a cycle. Tasks and harvests
// have their own operations.
func (s *Store) UpdateCycle(ctx context.Context, id string, p models.Patch) {
	s.port.merge(ctx, s.cycles, id, p)
}

// EndCycle marks the cycle completed and clears its field's current crop.
// The two writes are independent.
func (s *Store) EndCycle(ctx context.Context, id string) {
	s.port.merge(ctx, s.cycles, id, models.Patch{"status": string(models.CycleCompleted)})
	c, ok := s.Cycle(id)
	if !ok || c.FieldID == "" {
		return
	}
	s.port.merge(ctx, s.fields, c.FieldID, models.Patch{"currentCropId": nil})
}

// rewriteCycle reads the cycle from memory, lets edit change a copy, and
// writes the whole cycle back. Concurrent rewrites of one cycle are
// last-write-wins.
func (s *Store) rewriteCycle(ctx context.Context, cycleID string, op string, edit func(*models.CropCycle) bool) {
	c, ok := s.Cycle(cycleID)
	if !ok {
		s.log.Warn("store: unknown cycle", zap.String("op", op), zap.String("cycle", cycleID))
		return
	}
	if !edit(&c) {
		return
	}
	s.port.put(ctx, s.cycles, c.ID, c)
}

// AddTask appends t to the cycle named by t.CycleID.
func (s *Store) AddTask(ctx context.Context, t models.Task) {
	if t.ID == "" {
		s.log.Warn("store: add task without id ignored", zap.String("cycle", t.CycleID))
		return
	}
	s.rewriteCycle(ctx, t.CycleID, "add_task", func(c *models.CropCycle) bool {
		c.Tasks = append(c.Tasks, t)
		return true
	})
}

// UpdateTask merges p into one task of a cycle.
func (s *Store) UpdateTask(ctx context.Context, cycleID, taskID string, p models.Patch) {
	s.rewriteCycle(ctx, cycleID, "update_task", func(c *models.CropCycle) bool {
		for i := range c.Tasks {
			if c.Tasks[i].ID != taskID {
				continue
			}
			merged, err := models.Apply(c.Tasks[i], p)
			if err != nil {
				s.log.Error("store: update task", zap.String("task", taskID), zap.Error(err))
				return false
			}
			merged.ID = taskID
			c.Tasks[i] = merged
		}
		return true
	})
}

// DeleteTask removes one task from a cycle.
func (s *Store) DeleteTask(ctx context.Context, cycleID, taskID string) {
	s.rewriteCycle(ctx, cycleID, "delete_task", func(c *models.CropCycle) bool {
		kept := c.Tasks[:0]
		for _, t := range c.Tasks {
			if t.ID != taskID {
				kept = append(kept, t)
			}
		}
		c.Tasks = kept
		return true
	})
}

// UpdateTaskStatus sets the status of one task.
func (s *Store) UpdateTaskStatus(ctx context.Context, cycleID, taskID string, status models.TaskStatus) {
	s.rewriteCycle(ctx, cycleID, "update_task_status", func(c *models.CropCycle) bool {
		for i := range c.Tasks {
			if c.Tasks[i].ID == taskID {
				c.Tasks[i].Status = status
			}
		}
		return true
	})
}

// AddHarvest appends h to the cycle named by h.CycleID.
func (s *Store) AddHarvest(ctx context.Context, h models.HarvestLog) {
	if h.ID == "" {
		s.log.Warn("store: add harvest without id ignored", zap.String("cycle", h.CycleID))
		return
	}
	s.rewriteCycle(ctx, h.CycleID, "add_harvest", func(c *models.CropCycle) bool {
		c.Harvests = append(c.Harvests, h)
		return true
	})
}

// AddPestReport creates or overwrites a pest report.
func (s *Store) AddPestReport(ctx context.Context, r models.PestReport) {
	if r.ID == "" {
		s.log.Warn("store: add pest report without id ignored", zap.String("cycle", r.CycleID))
		return
	}
	s.port.put(ctx, s.pestReports, r.ID, r)
}

// UpdatePestReport merges p into a pest report.
func (s *Store) UpdatePestReport(ctx context.Context, id string, p models.Patch) {
	s.port.merge(ctx, s.pestReports, id, p)
}

// AddCropPreset adds or replaces a crop preset.
func (s *Store) AddCropPreset(ctx context.Context, p models.CropPreset) {
	if p.ID == "" {
		s.log.Warn("store: add crop preset without id ignored", zap.String("name", p.Name))
		return
	}
	s.port.put(ctx, s.cropPresets, p.ID, p)
}

// DeleteCropPreset removes a crop preset.
func (s *Store) DeleteCropPreset(ctx context.Context, id string) {
	s.port.remove(ctx, s.cropPresets, id)
}

// AddPestPreset adds or replaces a pest catalog entry.
func (s *Store) AddPestPreset(ctx context.Context, p models.Pest) {
	if p.ID == "" {
		s.log.Warn("store: add pest preset without id ignored", zap.String("name", p.Name))
		return
	}
	s.port.put(ctx, s.pestPresets, p.ID, p)
}

// DeletePestPreset removes a pest catalog entry.
func (s *Store) DeletePestPreset(ctx context.Context, id string) {
	s.port.remove(ctx, s.pestPresets, id)
}

// UpdateProfile merges p into the user profile.
func (s *Store) UpdateProfile(ctx context.Context, p models.Patch) {
	merged, err := models.Apply(s.Profile(), p)
	if err != nil {
		s.log.Error("store: update profile", zap.Error(err))
		return
	}
	s.port.saveProfile(ctx, merged)
}
