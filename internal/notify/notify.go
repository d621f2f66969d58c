// Package notify delivers farm alerts and digests to chat platforms.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/models"
)

// Sidebar colors by severity.
const (
	ColorInfo    = "#36a64f"
	ColorLow     = "#5bc0de"
	ColorMedium  = "#f0ad4e"
	ColorHigh    = "#d9534f"
	ColorDefault = "#808080"
)

// Notice is a platform-neutral message.
type Notice struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a key-value pair shown under a notice.
type Field struct {
	Name  string
	Value string
	Short bool // render side-by-side with the next field
}

// Sender delivers a notice to one destination.
type Sender interface {
	Send(ctx context.Context, n Notice) error
}

// Multi fans a notice out to every sender. A failing sender is logged and
// does not stop delivery to the others.
type Multi struct {
	senders []Sender
	log     *zap.Logger
}

// NewMulti returns a fan-out over senders. With no senders Send is a no-op.
func NewMulti(log *zap.Logger, senders ...Sender) *Multi {
	if log == nil {
		log = zap.NewNop()
	}
	return &Multi{senders: senders, log: log}
}

// Len reports how many senders are configured.
func (m *Multi) Len() int { return len(m.senders) }

// Send delivers n to all senders and joins their errors.
func (m *Multi) Send(ctx context.Context, n Notice) error {
	var errs []error
	for _, s := range m.senders {
		if err := s.Send(ctx, n); err != nil {
			m.log.Error("notify: send failed", zap.String("title", n.Title), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SeverityColor maps a pest severity to a sidebar color.
func SeverityColor(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return ColorHigh
	case models.SeverityMedium:
		return ColorMedium
	case models.SeverityLow:
		return ColorLow
	}
	return ColorDefault
}

// PestAlert builds the notice sent when a pest report needs attention.
// field and cycle may be zero values when they cannot be resolved.
func PestAlert(r models.PestReport, field models.Field, cycle models.CropCycle) Notice {
	n := Notice{
		Title: fmt.Sprintf("Pest alert: %s severity", r.Severity),
		Body:  r.ObserverNotes,
		Color: SeverityColor(r.Severity),
		Fields: []Field{
			{Name: "Date", Value: r.Date, Short: true},
		},
	}
	if field.Name != "" {
		n.Fields = append(n.Fields, Field{Name: "Field", Value: field.Name, Short: true})
	}
	if cycle.CropName != "" {
		n.Fields = append(n.Fields, Field{Name: "Crop", Value: cycle.CropName, Short: true})
	}
	if r.SuspectedPestID != "" {
		n.Fields = append(n.Fields, Field{Name: "Suspected", Value: r.SuspectedPestID, Short: true})
	}
	return n
}
