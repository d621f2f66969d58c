package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/advisor"
	"github.com/farmhand/farmhand/internal/report"
)

type adviceRequest struct {
	Prompt       string `json:"prompt"`
	FieldID      string `json:"fieldId"`
	CycleID      string `json:"cycleId"`
	PestReportID string `json:"pestReportId"`
}

func (s *server) handleAdvice(c *gin.Context) {
	var req adviceRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		badRequest(c, "prompt is required")
		return
	}

	var ac advisor.Context
	if req.FieldID != "" {
		if f, ok := s.store.Field(req.FieldID); ok {
			ac.Field = &f
		}
	}
	if req.CycleID != "" {
		if cy, ok := s.store.Cycle(req.CycleID); ok {
			ac.Cycle = &cy
		}
	}
	if req.PestReportID != "" {
		if r, ok := s.store.PestReport(req.PestReportID); ok {
			ac.PestReport = &r
		}
	}

	c.JSON(http.StatusOK, gin.H{"advice": s.advisor.Advise(c.Request.Context(), req.Prompt, ac)})
}

func (s *server) handleFinancials(c *gin.Context) {
	rows := report.Financials(s.store.Cycles())
	if rows == nil {
		rows = []report.Row{}
	}
	totals := report.Sum(rows)
	c.JSON(http.StatusOK, gin.H{
		"rows":   rows,
		"totals": totals,
		"formatted": gin.H{
			"revenue": report.FormatVND(totals.Revenue),
			"cost":    report.FormatVND(totals.Cost),
			"profit":  report.FormatVND(totals.Profit),
		},
	})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *server) handleFinancialsXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, report.Financials(s.store.Cycles())); err != nil {
		s.log.Error("api: xlsx report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report export failed"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="financials.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
