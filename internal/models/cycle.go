package models

// CropType groups crops by what is harvested.
type CropType string

const (
	CropLeafy      CropType = "leafy"
	CropFruit      CropType = "fruit"
	CropRoot       CropType = "root"
	CropIndustrial CropType = "industrial"
)

// CycleStatus is the lifecycle state of a crop cycle.
type CycleStatus string

const (
	CycleActive    CycleStatus = "active"
	CycleCompleted CycleStatus = "completed"
	CycleCancelled CycleStatus = "cancelled"
)

// CropCycle is one planting on a field, from sowing to harvest. Tasks and
// harvests are embedded: they are only ever read and written through the
// owning cycle document.
type CropCycle struct {
	ID                   string       `json:"id"`
	FieldID              string       `json:"fieldId"`
	CropName             string       `json:"cropName"`
	CropType             CropType     `json:"cropType"`
	StartDate            string       `json:"startDate"`
	EstimatedHarvestDate string       `json:"estimatedHarvestDate"`
	Status               CycleStatus  `json:"status"`
	Tasks                []Task       `json:"tasks"`
	Harvests             []HarvestLog `json:"harvests"`
	Notes                string       `json:"notes,omitempty"`
}

// Clone returns a copy whose task and harvest slices do not alias c's.
func (c CropCycle) Clone() CropCycle {
	out := c
	out.Tasks = append(make([]Task, 0, len(c.Tasks)), c.Tasks...)
	out.Harvests = append(make([]HarvestLog, 0, len(c.Harvests)), c.Harvests...)
	for i := range out.Tasks {
		if c.Tasks[i].Cost != nil {
			cost := *c.Tasks[i].Cost
			out.Tasks[i].Cost = &cost
		}
	}
	return out
}

// TaskType is the kind of field work a task represents.
type TaskType string

const (
	TaskPrepare   TaskType = "prepare"
	TaskSow       TaskType = "sow"
	TaskFertilize TaskType = "fertilize"
	TaskPesticide TaskType = "pesticide"
	TaskWater     TaskType = "water"
	TaskHarvest   TaskType = "harvest"
	TaskOther     TaskType = "other"
)

// TaskStatus is either pending or completed.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Task is a scheduled piece of work inside a crop cycle.
type Task struct {
	ID          string     `json:"id"`
	CycleID     string     `json:"cycleId"`
	Type        TaskType   `json:"type"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Cost        *float64   `json:"cost,omitempty"`
}

// Quality grades a harvest.
type Quality string

const (
	QualityA Quality = "A"
	QualityB Quality = "B"
	QualityC Quality = "C"
)

// HarvestLog records one harvest of a crop cycle.
type HarvestLog struct {
	ID         string  `json:"id"`
	CycleID    string  `json:"cycleId"`
	Date       string  `json:"date"`
	QuantityKg float64 `json:"quantityKg"`
	Quality    Quality `json:"quality"`
	Revenue    float64 `json:"revenue"` // VND
}
