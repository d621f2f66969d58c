// Package scouting files pest reports and has them diagnosed by the advisor
// in the background.
package scouting

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/advisor"
	"github.com/farmhand/farmhand/internal/models"
	"github.com/farmhand/farmhand/internal/notify"
	"github.com/farmhand/farmhand/internal/store"
)

// diagnosisPrompt is the question attached to every new report.
const diagnosisPrompt = "Diagnose this pest report and recommend a treatment."

// Opts configures a Service.
type Opts struct {
	Store   *store.Store
	Advisor advisor.Advisor
	// Notifier receives alerts for high-severity reports. Nil disables alerts.
	Notifier notify.Sender
	Logger   *zap.Logger
}

// Service files pest reports.
type Service struct {
	store    *store.Store
	advisor  advisor.Advisor
	notifier notify.Sender
	log      *zap.Logger
	wg       sync.WaitGroup
}

// New creates a Service.
func New(opts Opts) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    opts.Store,
		advisor:  opts.Advisor,
		notifier: opts.Notifier,
		log:      log,
	}
}

// File adds r to the store and starts its diagnosis. It returns as soon as
// the report is added; the diagnosis and any alert outlive ctx's
// cancellation.
func (s *Service) File(ctx context.Context, r models.PestReport) {
	s.store.AddPestReport(ctx, r)

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.diagnose(bg, r)
	}()
}

func (s *Service) diagnose(ctx context.Context, r models.PestReport) {
	c := advisor.Context{PestReport: &r}
	field, cycle := s.resolve(r)
	if cycle.ID != "" {
		c.Cycle = &cycle
	}
	if field.ID != "" {
		c.Field = &field
	}

	if r.Severity == models.SeverityHigh && s.notifier != nil {
		if err := s.notifier.Send(ctx, notify.PestAlert(r, field, cycle)); err != nil {
			s.log.Warn("scouting: pest alert not delivered", zap.String("report", r.ID), zap.Error(err))
		}
	}

	if s.advisor == nil {
		return
	}
	advice := s.advisor.Advise(ctx, diagnosisPrompt, c)
	s.store.UpdatePestReport(ctx, r.ID, models.Patch{"aiDiagnosis": advice})
	s.log.Debug("scouting: diagnosis stored", zap.String("report", r.ID))
}

func (s *Service) resolve(r models.PestReport) (models.Field, models.CropCycle) {
	cycle, ok := s.store.Cycle(r.CycleID)
	if !ok {
		return models.Field{}, models.CropCycle{}
	}
	field, _ := s.store.Field(cycle.FieldID)
	return field, cycle
}

// Wait blocks until every started diagnosis has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
