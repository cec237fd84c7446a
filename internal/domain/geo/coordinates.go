// Package geo holds coordinate types and the validation rules applied to
// incoming geographic data.
package geo

import (
	"fmt"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
)

// Colombia's approximate bounding envelope in WGS84. Coordinates outside this
// range are rejected even when they are valid world coordinates.
const (
	MinLatitude  = -5.0
	MaxLatitude  = 13.0
	MinLongitude = -80.0
	MaxLongitude = -66.0
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks world bounds first, then the Colombia envelope.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return domain.ValidationError("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return domain.ValidationError("longitude must be between -180 and 180")
	}
	if c.Latitude < MinLatitude || c.Latitude > MaxLatitude {
		return domain.ValidationError(fmt.Sprintf("latitude must be between %g and %g (Colombia range)", MinLatitude, MaxLatitude))
	}
	if c.Longitude < MinLongitude || c.Longitude > MaxLongitude {
		return domain.ValidationError(fmt.Sprintf("longitude must be between %g and %g (Colombia range)", MinLongitude, MaxLongitude))
	}
	return nil
}
