package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farmhand/farmhand/internal/models"
)

// defaultGrowthDays estimates harvest when neither the request nor a
// preset says how long the crop grows.
const defaultGrowthDays = 30

func (s *server) handleListFields(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Fields())
}

func (s *server) handleGetField(c *gin.Context) {
	f, ok := s.store.Field(c.Param("id"))
	if !ok {
		notFound(c, "field")
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": f, "cycles": s.store.CyclesForField(f.ID)})
}

func (s *server) handleAddField(c *gin.Context) {
	var f models.Field
	if !bindJSON(c, &f) {
		return
	}
	var errs validationErrors
	errs.require(strings.TrimSpace(f.Name) != "", "name is required")
	errs.require(f.Area >= 0, "area must not be negative")
	if errs.abort(c) {
		return
	}
	if f.ID == "" {
		f.ID = s.newID()
	}
	s.store.AddField(c.Request.Context(), f)
	accepted(c, f.ID)
}

func (s *server) handleUpdateField(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	if name, ok := p["name"]; ok && strings.TrimSpace(asString(name)) == "" {
		badRequest(c, "name is required")
		return
	}
	id := c.Param("id")
	s.store.UpdateField(c.Request.Context(), id, p)
	accepted(c, id)
}

func (s *server) handleDeleteField(c *gin.Context) {
	id := c.Param("id")
	s.store.DeleteField(c.Request.Context(), id)
	accepted(c, id)
}

func (s *server) handleListCycles(c *gin.Context) {
	if fieldID := c.Query("fieldId"); fieldID != "" {
		c.JSON(http.StatusOK, s.store.CyclesForField(fieldID))
		return
	}
	c.JSON(http.StatusOK, s.store.Cycles())
}

func (s *server) handleGetCycle(c *gin.Context) {
	cy, ok := s.store.Cycle(c.Param("id"))
	if !ok {
		notFound(c, "cycle")
		return
	}
	c.JSON(http.StatusOK, cy)
}

type addCycleRequest struct {
	models.CropCycle
	PresetID   string `json:"presetId"`
	GrowthDays int    `json:"growthDays"`
}

func (s *server) handleAddCycle(c *gin.Context) {
	var req addCycleRequest
	if !bindJSON(c, &req) {
		return
	}
	cy := req.CropCycle

	var preset *models.CropPreset
	if req.PresetID != "" {
		for _, p := range s.store.CropPresets() {
			if p.ID == req.PresetID {
				preset = &p
				break
			}
		}
		if preset == nil {
			badRequest(c, "unknown preset "+req.PresetID)
			return
		}
		if cy.CropName == "" {
			cy.CropName = preset.Name
		}
		if cy.CropType == "" {
			cy.CropType = preset.Type
		}
	}

	var errs validationErrors
	errs.require(cy.FieldID != "", "fieldId is required")
	errs.require(strings.TrimSpace(cy.CropName) != "", "cropName is required")
	errs.date(cy.StartDate, "startDate", true)
	errs.date(cy.EstimatedHarvestDate, "estimatedHarvestDate", false)
	if errs.abort(c) {
		return
	}
	if _, ok := s.store.Field(cy.FieldID); !ok {
		notFound(c, "field")
		return
	}

	if cy.ID == "" {
		cy.ID = s.newID()
	}
	if cy.Status == "" {
		cy.Status = models.CycleActive
	}
	if cy.EstimatedHarvestDate == "" {
		days := req.GrowthDays
		if days <= 0 && preset != nil {
			days = preset.GrowthDays
		}
		if days <= 0 {
			days = defaultGrowthDays
		}
		start, _ := time.Parse(time.DateOnly, cy.StartDate)
		cy.EstimatedHarvestDate = start.AddDate(0, 0, days).Format(time.DateOnly)
	}
	for i := range cy.Tasks {
		cy.Tasks[i].CycleID = cy.ID
		if cy.Tasks[i].ID == "" {
			cy.Tasks[i].ID = s.newID()
		}
	}
	for i := range cy.Harvests {
		cy.Harvests[i].CycleID = cy.ID
		if cy.Harvests[i].ID == "" {
			cy.Harvests[i].ID = s.newID()
		}
	}

	s.store.AddCycle(c.Request.Context(), cy, req.PresetID)
	accepted(c, cy.ID)
}

func (s *server) handleUpdateCycle(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	delete(p, "tasks")
	delete(p, "harvests")
	var errs validationErrors
	for _, key := range []string{"startDate", "estimatedHarvestDate"} {
		if v, ok := p[key]; ok {
			errs.date(asString(v), key, true)
		}
	}
	if errs.abort(c) {
		return
	}
	id := c.Param("id")
	s.store.UpdateCycle(c.Request.Context(), id, p)
	accepted(c, id)
}

func (s *server) handleEndCycle(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.store.Cycle(id); !ok {
		notFound(c, "cycle")
		return
	}
	s.store.EndCycle(c.Request.Context(), id)
	accepted(c, id)
}

func (s *server) handleAddTask(c *gin.Context) {
	var t models.Task
	if !bindJSON(c, &t) {
		return
	}
	t.CycleID = c.Param("id")
	var errs validationErrors
	errs.date(t.Date, "date", true)
	errs.require(strings.TrimSpace(t.Description) != "", "description is required")
	errs.require(t.Cost == nil || *t.Cost >= 0, "cost must not be negative")
	if errs.abort(c) {
		return
	}
	if _, ok := s.store.Cycle(t.CycleID); !ok {
		notFound(c, "cycle")
		return
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	if t.Type == "" {
		t.Type = models.TaskOther
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	s.store.AddTask(c.Request.Context(), t)
	accepted(c, t.ID)
}

func (s *server) handleUpdateTask(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	delete(p, "cycleId")
	if v, ok := p["date"]; ok {
		var errs validationErrors
		errs.date(asString(v), "date", true)
		if errs.abort(c) {
			return
		}
	}
	taskID := c.Param("taskId")
	s.store.UpdateTask(c.Request.Context(), c.Param("id"), taskID, p)
	accepted(c, taskID)
}

type taskStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

func (s *server) handleUpdateTaskStatus(c *gin.Context) {
	var req taskStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status != models.TaskPending && req.Status != models.TaskCompleted {
		badRequest(c, "status must be pending or completed")
		return
	}
	taskID := c.Param("taskId")
	s.store.UpdateTaskStatus(c.Request.Context(), c.Param("id"), taskID, req.Status)
	accepted(c, taskID)
}

func (s *server) handleDeleteTask(c *gin.Context) {
	taskID := c.Param("taskId")
	s.store.DeleteTask(c.Request.Context(), c.Param("id"), taskID)
	accepted(c, taskID)
}

func (s *server) handleAddHarvest(c *gin.Context) {
	var h models.HarvestLog
	if !bindJSON(c, &h) {
		return
	}
	h.CycleID = c.Param("id")
	var errs validationErrors
	errs.date(h.Date, "date", true)
	errs.require(h.QuantityKg > 0, "quantityKg must be positive")
	errs.require(h.Revenue >= 0, "revenue must not be negative")
	if errs.abort(c) {
		return
	}
	if _, ok := s.store.Cycle(h.CycleID); !ok {
		notFound(c, "cycle")
		return
	}
	if h.ID == "" {
		h.ID = s.newID()
	}
	if h.Quality == "" {
		h.Quality = models.QualityA
	}
	s.store.AddHarvest(c.Request.Context(), h)
	accepted(c, h.ID)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
