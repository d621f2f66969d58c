package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farmhand/farmhand/internal/models"
)

func (s *server) handleListPestReports(c *gin.Context) {
	reports := s.store.PestReports()
	if cycleID := c.Query("cycleId"); cycleID != "" {
		filtered := reports[:0]
		for _, r := range reports {
			if r.CycleID == cycleID {
				filtered = append(filtered, r)
			}
		}
		reports = filtered
	}
	c.JSON(http.StatusOK, reports)
}

func (s *server) handleGetPestReport(c *gin.Context) {
	r, ok := s.store.PestReport(c.Param("id"))
	if !ok {
		notFound(c, "pest report")
		return
	}
	c.JSON(http.StatusOK, r)
}

func validSeverity(sev models.Severity) bool {
	switch sev {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
		return true
	}
	return false
}

func (s *server) handleAddPestReport(c *gin.Context) {
	var r models.PestReport
	if !bindJSON(c, &r) {
		return
	}
	if r.Date == "" {
		r.Date = s.now().Format(time.DateOnly)
	}
	if r.Severity == "" {
		r.Severity = models.SeverityLow
	}
	var errs validationErrors
	errs.require(r.CycleID != "", "cycleId is required")
	errs.date(r.Date, "date", true)
	errs.require(validSeverity(r.Severity), "severity must be low, medium or high")
	if errs.abort(c) {
		return
	}
	if _, ok := s.store.Cycle(r.CycleID); !ok {
		notFound(c, "cycle")
		return
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.Status == "" {
		r.Status = models.ReportOpen
	}
	r.AIDiagnosis = ""
	s.scouting.File(c.Request.Context(), r)
	accepted(c, r.ID)
}

func (s *server) handleUpdatePestReport(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	if v, ok := p["severity"]; ok && !validSeverity(models.Severity(asString(v))) {
		badRequest(c, "severity must be low, medium or high")
		return
	}
	id := c.Param("id")
	s.store.UpdatePestReport(c.Request.Context(), id, p)
	accepted(c, id)
}

func (s *server) handleListCropPresets(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.CropPresets())
}

func (s *server) handleAddCropPreset(c *gin.Context) {
	var p models.CropPreset
	if !bindJSON(c, &p) {
		return
	}
	var errs validationErrors
	errs.require(strings.TrimSpace(p.Name) != "", "name is required")
	errs.require(p.GrowthDays >= 0, "growthDays must not be negative")
	for _, t := range p.DefaultTasks {
		errs.require(t.DayOffset >= 0, "defaultTasks dayOffset must not be negative")
	}
	if errs.abort(c) {
		return
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	s.store.AddCropPreset(c.Request.Context(), p)
	accepted(c, p.ID)
}

func (s *server) handleDeleteCropPreset(c *gin.Context) {
	id := c.Param("id")
	s.store.DeleteCropPreset(c.Request.Context(), id)
	accepted(c, id)
}

func (s *server) handleListPestPresets(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.PestPresets())
}

func (s *server) handleAddPestPreset(c *gin.Context) {
	var p models.Pest
	if !bindJSON(c, &p) {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		badRequest(c, "name is required")
		return
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	s.store.AddPestPreset(c.Request.Context(), p)
	accepted(c, p.ID)
}

func (s *server) handleDeletePestPreset(c *gin.Context) {
	id := c.Param("id")
	s.store.DeletePestPreset(c.Request.Context(), id)
	accepted(c, id)
}

func (s *server) handleGetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Profile())
}

func (s *server) handleUpdateProfile(c *gin.Context) {
	p, ok := bindPatch(c)
	if !ok {
		return
	}
	if name, ok := p["name"]; ok && strings.TrimSpace(asString(name)) == "" {
		badRequest(c, "name is required")
		return
	}
	s.store.UpdateProfile(c.Request.Context(), p)
	c.JSON(http.StatusAccepted, gin.H{})
}
