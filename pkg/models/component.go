package models

// ComponentType classifies a hardware component extracted from an
// "inventory" capture.
type ComponentType string

const (
	ComponentChassis     ComponentType = "chassis"
	ComponentModule      ComponentType = "module"
	ComponentPSU         ComponentType = "psu"
	ComponentFan         ComponentType = "fan"
	ComponentTransceiver ComponentType = "transceiver"
	ComponentSupervisor  ComponentType = "supervisor"
	ComponentUnknown     ComponentType = "unknown"
)

// Component belongs to a Device. The key (DeviceID, Name, Position)
// uniquely identifies a component across reloads (§3).
type Component struct {
	ID                   string        `json:"id"`
	DeviceID             string        `json:"device_id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description,omitempty"`
	Serial               string        `json:"serial,omitempty"`
	Position             string        `json:"position,omitempty"`
	Type                 ComponentType `json:"type"`
	Subtype              string        `json:"subtype,omitempty"`
	HaveSN               bool          `json:"have_sn"`
	ExtractionSource     string        `json:"extraction_source,omitempty"`
	ExtractionConfidence float64       `json:"extraction_confidence"`
}
