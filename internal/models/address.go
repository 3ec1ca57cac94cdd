package models

// Address is the human-readable result of grounding a fix against a mapping
// service. Formatted is never empty in a rendered state; callers substitute a
// placeholder string when resolution soft-fails.
type Address struct {
	Formatted string // Formatted is the full human-readable address.
	POIName   string // POIName is the nearest point of interest, if the service reported one.
}
