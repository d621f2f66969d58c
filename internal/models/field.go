// Package models defines the farm domain entities and the storage rows that
// persist them.
package models

// SoilType classifies the soil of a field.
type SoilType string

const (
	SoilGray      SoilType = "gray"
	SoilRedYellow SoilType = "red_yellow"
	SoilAlluvial  SoilType = "alluvial"
)

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Field is a plot of land that hosts crop cycles over time.
type Field struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Area          float64  `json:"area"` // m²
	SoilType      SoilType `json:"soilType"`
	Location      string   `json:"location"`
	AssignedTo    string   `json:"assignedTo,omitempty"`
	Coordinates   *LatLng  `json:"coordinates,omitempty"`
	CurrentCropID string   `json:"currentCropId,omitempty"` // active cycle, if any
}
