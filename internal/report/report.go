// Package report computes the farm's financial and yield reports.
package report

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/farmhand/farmhand/internal/models"
)

// Row is the result of one completed crop cycle.
type Row struct {
	CycleID   string  `json:"cycleId"`
	FieldID   string  `json:"fieldId"`
	CropName  string  `json:"cropName"`
	StartDate string  `json:"startDate"`
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
	Profit    float64 `json:"profit"`
	YieldKg   float64 `json:"yieldKg"`
}

// Totals sums a set of rows.
type Totals struct {
	Cycles  int     `json:"cycles"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
	YieldKg float64 `json:"yieldKg"`
}

// Financials returns one row per completed cycle, in input order. Revenue
// and yield come from harvests; cost is the sum of task costs.
func Financials(cycles []models.CropCycle) []Row {
	var rows []Row
	for _, c := range cycles {
		if c.Status != models.CycleCompleted {
			continue
		}
		r := Row{CycleID: c.ID, FieldID: c.FieldID, CropName: c.CropName, StartDate: c.StartDate}
		for _, h := range c.Harvests {
			r.Revenue += h.Revenue
			r.YieldKg += h.QuantityKg
		}
		for _, t := range c.Tasks {
			if t.Cost != nil {
				r.Cost += *t.Cost
			}
		}
		r.Profit = r.Revenue - r.Cost
		rows = append(rows, r)
	}
	return rows
}

// Sum totals rows.
func Sum(rows []Row) Totals {
	t := Totals{Cycles: len(rows)}
	for _, r := range rows {
		t.Revenue += r.Revenue
		t.Cost += r.Cost
		t.Profit += r.Profit
		t.YieldKg += r.YieldKg
	}
	return t
}

// Overview is the farm-at-a-glance summary.
type Overview struct {
	Fields          int     `json:"fields"`
	TotalArea       float64 `json:"totalArea"`
	ActiveCycles    int     `json:"activeCycles"`
	OpenPestReports int     `json:"openPestReports"`
	HarvestRevenue  float64 `json:"harvestRevenue"`
}

// Summarize computes the overview. Harvest revenue counts completed cycles only.
func Summarize(fields []models.Field, cycles []models.CropCycle, reports []models.PestReport) Overview {
	o := Overview{Fields: len(fields)}
	for _, f := range fields {
		o.TotalArea += f.Area
	}
	for _, c := range cycles {
		switch c.Status {
		case models.CycleActive:
			o.ActiveCycles++
		case models.CycleCompleted:
			for _, h := range c.Harvests {
				o.HarvestRevenue += h.Revenue
			}
		}
	}
	for _, r := range reports {
		if r.Status != models.ReportResolved {
			o.OpenPestReports++
		}
	}
	return o
}

var vnd = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount in whole dong with Vietnamese digit grouping,
// e.g. "500.000 ₫".
func FormatVND(amount float64) string {
	return vnd.Sprintf("%d ₫", int64(math.Round(amount)))
}
