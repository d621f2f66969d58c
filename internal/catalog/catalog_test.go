package catalog

import (
	"testing"
	"time"

	"github.com/farmhand/farmhand/internal/models"
)

func TestCropPresets(t *testing.T) {
	presets, err := CropPresets()
	if err != nil {
		t.Fatalf("CropPresets: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("expected bundled crop presets")
	}
	seen := map[string]bool{}
	for _, p := range presets {
		if p.ID == "" || p.Name == "" {
			t.Errorf("preset %+v missing id or name", p)
		}
		if seen[p.ID] {
			t.Errorf("duplicate preset id %q", p.ID)
		}
		seen[p.ID] = true
		if p.GrowthDays <= 0 {
			t.Errorf("preset %q GrowthDays = %d, want > 0", p.ID, p.GrowthDays)
		}
		if len(p.DefaultTasks) == 0 {
			t.Errorf("preset %q has no default tasks", p.ID)
		}
		for _, task := range p.DefaultTasks {
			if task.DayOffset < 0 || task.DayOffset > p.GrowthDays {
				t.Errorf("preset %q task %q DayOffset = %d, outside 0..%d", p.ID, task.Description, task.DayOffset, p.GrowthDays)
			}
		}
	}

	var spinach models.CropPreset
	for _, p := range presets {
		if p.ID == "water-spinach" {
			spinach = p
		}
	}
	if spinach.GrowthDays != 25 {
		t.Errorf("water-spinach GrowthDays = %d, want 25", spinach.GrowthDays)
	}
	if spinach.WaterNeeds != models.WaterHigh {
		t.Errorf("water-spinach WaterNeeds = %q, want %q", spinach.WaterNeeds, models.WaterHigh)
	}
	if got := spinach.DefaultTasks[2]; got.DayOffset != 1 || got.Type != models.TaskWater {
		t.Errorf("water-spinach task[2] = %+v, want day 1 water", got)
	}
}

func TestPests(t *testing.T) {
	pests, err := Pests()
	if err != nil {
		t.Fatalf("Pests: %v", err)
	}
	if len(pests) == 0 {
		t.Fatal("expected bundled pests")
	}
	for _, p := range pests {
		if p.Type != models.PestInsect && p.Type != models.PestDisease {
			t.Errorf("pest %q type = %q", p.ID, p.Type)
		}
		if len(p.AffectedCrops) == 0 {
			t.Errorf("pest %q has no affected crops", p.ID)
		}
		if p.TreatmentBio == "" {
			t.Errorf("pest %q missing biological treatment", p.ID)
		}
	}
}

func TestDemoData(t *testing.T) {
	fields, err := DemoFields()
	if err != nil {
		t.Fatalf("DemoFields: %v", err)
	}
	cycles, err := DemoCycles()
	if err != nil {
		t.Fatalf("DemoCycles: %v", err)
	}
	if len(fields) != 3 || len(cycles) != 3 {
		t.Fatalf("got %d fields and %d cycles, want 3 and 3", len(fields), len(cycles))
	}

	fieldIDs := map[string]bool{}
	for _, f := range fields {
		fieldIDs[f.ID] = true
	}
	for _, c := range cycles {
		if !fieldIDs[c.FieldID] {
			t.Errorf("cycle %q references unknown field %q", c.ID, c.FieldID)
		}
		if c.Tasks == nil || c.Harvests == nil {
			t.Errorf("cycle %q has nil tasks or harvests", c.ID)
		}
	}

	c1 := cycles[0]
	if c1.Status != models.CycleCompleted || len(c1.Harvests) != 1 || c1.Harvests[0].Revenue != 500000 {
		t.Errorf("c1 = %+v, want completed with one 500000 harvest", c1)
	}
	c2 := cycles[1]
	if len(c2.Tasks) != 2 || c2.Tasks[0].Cost == nil || *c2.Tasks[0].Cost != 20000 {
		t.Errorf("c2 tasks = %+v, want two tasks, first costing 20000", c2.Tasks)
	}
}

func TestDefaultProfile(t *testing.T) {
	now := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	p, err := DefaultProfile(now)
	if err != nil {
		t.Fatalf("DefaultProfile: %v", err)
	}
	if p.Role != models.RoleOwner {
		t.Errorf("Role = %q, want %q", p.Role, models.RoleOwner)
	}
	if p.JoinDate != "2024-03-09" {
		t.Errorf("JoinDate = %q, want %q", p.JoinDate, "2024-03-09")
	}
	if p.Name == "" {
		t.Error("Name is empty")
	}
}
