package models

// Severity of a pest observation.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ReportStatus tracks whether a pest report still needs attention.
type ReportStatus string

const (
	ReportOpen     ReportStatus = "open"
	ReportResolved ReportStatus = "resolved"
)

// PestReport is a field observation of pests or disease. AIDiagnosis is
// filled in after creation, once the advisor has answered.
type PestReport struct {
	ID              string       `json:"id"`
	CycleID         string       `json:"cycleId"`
	Date            string       `json:"date"`
	ObserverNotes   string       `json:"observerNotes"`
	Severity        Severity     `json:"severity"`
	SuspectedPestID string       `json:"suspectedPestId,omitempty"`
	PhotoURL        string       `json:"photoUrl,omitempty"`
	AIDiagnosis     string       `json:"aiDiagnosis,omitempty"`
	Status          ReportStatus `json:"status"`
}

// PestKind distinguishes insects from diseases.
type PestKind string

const (
	PestInsect  PestKind = "insect"
	PestDisease PestKind = "disease"
)

// Pest is a catalog entry describing a pest or disease and how to treat it.
type Pest struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Type          PestKind `json:"type" yaml:"type"`
	Symptoms      string   `json:"symptoms" yaml:"symptoms"`
	AffectedCrops []string `json:"affectedCrops" yaml:"affected_crops"`
	Prevention    string   `json:"prevention" yaml:"prevention"`
	TreatmentBio  string   `json:"treatmentBio" yaml:"treatment_bio"`
	TreatmentChem string   `json:"treatmentChem" yaml:"treatment_chem"`
	ImageURL      string   `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
}
