// Package advisor answers farmer questions with an AI agronomist. Every
// request is a single round trip with no retry; any failure yields the
// fixed Unavailable reply.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/farmhand/farmhand/internal/models"
)

// Unavailable is returned whenever the advisor cannot answer.
const Unavailable = "Sorry, the advisory service is busy right now. Please try again later."

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

const systemInstruction = `You are an AI agricultural engineer specialising in sustainable, high-tech farming.
You know the soils and climate of Binh Duong province in depth.
You advise farmers on planting plans, crop rotation, pest and disease treatment and season forecasts.

Binh Duong context:
- Rainy season: May to October.
- Dry season: November to April.
- Soils: gray soil (poor, needs organic fertiliser), red-yellow soil (industrial and fruit crops), alluvial soil (river banks, good for vegetables).

Answer briefly and practically, focusing on technique and economic return. Format answers as Markdown.
When a farmer reports pests or disease, recommend biological and safe measures first; chemicals are the last resort.`

// Context is optional background attached to a question.
type Context struct {
	Field      *models.Field
	Cycle      *models.CropCycle
	PestReport *models.PestReport
}

// Advisor answers a prompt. Advise never fails: errors become Unavailable.
type Advisor interface {
	Advise(ctx context.Context, prompt string, c Context) string
}

// generator performs one model call.
type generator interface {
	generate(ctx context.Context, model, system, prompt string) (string, error)
}

// Gemini is an Advisor backed by the Gemini API.
type Gemini struct {
	gen   generator
	model string
	now   func() time.Time
	log   *zap.Logger
}

// NewGemini creates a Gemini advisor. An empty model selects DefaultModel.
func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("advisor: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: create genai client: %w", err)
	}
	return newGemini(&genaiGenerator{client: client}, model, time.Now, log), nil
}

func newGemini(gen generator, model string, now func() time.Time, log *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{gen: gen, model: model, now: now, log: log}
}

// Advise sends the prompt, prefixed with the context preamble.
func (g *Gemini) Advise(ctx context.Context, prompt string, c Context) string {
	full := Preamble(c, g.now()) + "\n\nFarmer's question or request: " + prompt
	text, err := g.gen.generate(ctx, g.model, systemInstruction, full)
	if err != nil {
		g.log.Error("advisor: generate failed", zap.String("model", g.model), zap.Error(err))
		return Unavailable
	}
	if strings.TrimSpace(text) == "" {
		g.log.Warn("advisor: empty response", zap.String("model", g.model))
		return Unavailable
	}
	return text
}

// Preamble renders the bracketed context lines that precede a prompt.
func Preamble(c Context, now time.Time) string {
	var b strings.Builder
	if f := c.Field; f != nil {
		fmt.Fprintf(&b, "\n[Field under review: name %q, area %gm2, soil: %s, location: %s]",
			f.Name, f.Area, f.SoilType, f.Location)
	}
	if cy := c.Cycle; cy != nil {
		fmt.Fprintf(&b, "\n[Current season: crop %s, started %s, status: %s]",
			cy.CropName, cy.StartDate, cy.Status)
	}
	if r := c.PestReport; r != nil {
		suspected := r.SuspectedPestID
		if suspected == "" {
			suspected = "unknown"
		}
		fmt.Fprintf(&b, "\n[NEW PEST REPORT:\n - Observed: %s\n - Severity: %s\n - Farmer's notes: %q\n - Suspected: %s\n]\nANALYSE THE SYMPTOMS AND GIVE A CONCRETE TREATMENT PLAN FOR THIS CROP.",
			r.Date, r.Severity, r.ObserverNotes, suspected)
	}
	fmt.Fprintf(&b, "\n[Now: %s - %s in Binh Duong]", now.Format("02/01/2006"), Season(now))
	return b.String()
}

// Season names the Binh Duong season for t: rainy from May to October, dry
// otherwise.
func Season(t time.Time) string {
	if m := t.Month(); m >= time.May && m <= time.October {
		return "rainy season"
	}
	return "dry season"
}

// SeasonAdvice is the watering recommendation for the season of t.
func SeasonAdvice(t time.Time) string {
	if Season(t) == "rainy season" {
		return "Afternoon rain expected. Water less and keep the bed drains clear."
	}
	return "Strong sun. Water early in the morning or in the cool of the evening to keep the soil moist."
}

type genaiGenerator struct {
	client *genai.Client
}

func (g *genaiGenerator) generate(ctx context.Context, model, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates in response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// Mock is a deterministic Advisor used when no API key is configured.
type Mock struct{}

// Advise returns a canned answer that echoes the context it was given.
func (Mock) Advise(_ context.Context, prompt string, c Context) string {
	var b strings.Builder
	b.WriteString("**Offline advisor** (no API key configured)\n\n")
	switch {
	case c.PestReport != nil:
		fmt.Fprintf(&b, "Pest report of %s severity noted. Isolate affected plants, remove damaged leaves and try a biological treatment first.", c.PestReport.Severity)
	case c.Cycle != nil:
		fmt.Fprintf(&b, "For your %s crop, keep to the task schedule and check the field every few days.", c.Cycle.CropName)
	case c.Field != nil:
		fmt.Fprintf(&b, "Field %s (%s soil): add organic matter before the next planting.", c.Field.Name, c.Field.SoilType)
	default:
		fmt.Fprintf(&b, "Question received: %s", prompt)
	}
	return b.String()
}
