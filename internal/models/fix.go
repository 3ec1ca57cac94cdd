package models

import "time"

// Fix represents a single GPS coordinate reading.
type Fix struct {
	Latitude  float64   // Latitude in decimal degrees.
	Longitude float64   // Longitude in decimal degrees.
	Accuracy  float64   // Accuracy radius of the reading, in meters.
	Timestamp time.Time // Timestamp is when the reading was taken.
}

// SamePoint reports whether two fixes carry exactly the same coordinates.
// Accuracy and timestamp are ignored; equality on (latitude, longitude) is
// the key used to suppress repeated address resolutions for the same spot.
func (f Fix) SamePoint(other Fix) bool {
	return f.Latitude == other.Latitude && f.Longitude == other.Longitude
}

// PositionOptions configures a single position request against a geolocation
// source, mirroring the options of the browser geolocation API.
type PositionOptions struct {
	HighAccuracy bool          // HighAccuracy requests the most precise fix available.
	Timeout      time.Duration // Timeout bounds how long the source may take.
	MaximumAge   time.Duration // MaximumAge is the oldest acceptable cached fix; zero means fresh only.
}
