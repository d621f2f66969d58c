package models

// WaterNeeds is a coarse irrigation requirement.
type WaterNeeds string

const (
	WaterLow    WaterNeeds = "low"
	WaterMedium WaterNeeds = "medium"
	WaterHigh   WaterNeeds = "high"
)

// PresetTask is a task template, scheduled DayOffset days after sowing.
type PresetTask struct {
	DayOffset   int      `json:"dayOffset" yaml:"day_offset"`
	Type        TaskType `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
}

// CropPreset is a catalog template used to populate a new crop cycle.
type CropPreset struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Type         CropType     `json:"type" yaml:"type"`
	GrowthDays   int          `json:"growthDays" yaml:"growth_days"`
	WaterNeeds   WaterNeeds   `json:"waterNeeds" yaml:"water_needs"`
	Description  string       `json:"description" yaml:"description"`
	DefaultTasks []PresetTask `json:"defaultTasks" yaml:"default_tasks"`
}
