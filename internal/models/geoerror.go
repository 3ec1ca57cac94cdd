package models

import "fmt"

// Geolocation error codes, matching the browser geolocation API.
const (
	GeoErrPermissionDenied    = 1
	GeoErrPositionUnavailable = 2
	GeoErrTimeout             = 3
)

// GeoError is a failure reported by a geolocation source. Message carries the
// platform-provided text, used verbatim when the code is not recognized.
type GeoError struct {
	Code    int
	Message string
}

func (e *GeoError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}
