// Package catalog holds the datasets bundled with farmhand: the crop preset
// and pest catalogs, the demo fields and cycles a fresh local install starts
// with, and the default user profile.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/farmhand/farmhand/internal/models"
)

//go:embed data/*.yaml data/*.json
var files embed.FS

type demoSet struct {
	Fields []models.Field     `json:"fields"`
	Cycles []models.CropCycle `json:"cycles"`
}

// CropPresets returns the bundled crop preset catalog.
func CropPresets() ([]models.CropPreset, error) {
	var out []models.CropPreset
	if err := decodeYAML("data/crops.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pests returns the bundled pest and disease catalog.
func Pests() ([]models.Pest, error) {
	var out []models.Pest
	if err := decodeYAML("data/pests.yaml", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DemoFields returns the fields seeded into a new local install.
func DemoFields() ([]models.Field, error) {
	d, err := demo()
	if err != nil {
		return nil, err
	}
	return d.Fields, nil
}

// DemoCycles returns the crop cycles seeded into a new local install.
// Tasks and harvests are never nil.
func DemoCycles() ([]models.CropCycle, error) {
	d, err := demo()
	if err != nil {
		return nil, err
	}
	for i := range d.Cycles {
		d.Cycles[i] = d.Cycles[i].Clone()
	}
	return d.Cycles, nil
}

// DefaultProfile returns the bundled profile, joined on now's date.
func DefaultProfile(now time.Time) (models.UserProfile, error) {
	var p models.UserProfile
	if err := decodeYAML("data/profile.yaml", &p); err != nil {
		return models.UserProfile{}, err
	}
	if p.JoinDate == "" {
		p.JoinDate = now.Format(time.DateOnly)
	}
	return p, nil
}

func demo() (demoSet, error) {
	raw, err := files.ReadFile("data/demo.json")
	if err != nil {
		return demoSet{}, fmt.Errorf("catalog: read demo.json: %w", err)
	}
	var d demoSet
	if err := json.Unmarshal(raw, &d); err != nil {
		return demoSet{}, fmt.Errorf("catalog: parse demo.json: %w", err)
	}
	return d, nil
}

func decodeYAML(name string, v any) error {
	raw, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	return nil
}
