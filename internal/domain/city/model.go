package city

import (
	"strings"
	"time"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
)

// DefaultCountry is assigned when a city is created without one.
const DefaultCountry = "Colombia"

// City represents a city available to the digital twins system. Zones are
// attached to exactly one city.
type City struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the invariants enforced on create and update.
func (c City) Validate() error {
	name := strings.TrimSpace(c.Name)
	if len(name) < 2 || len(name) > 255 {
		return domain.ValidationError("name must be between 2 and 255 characters")
	}
	if len(c.Country) > 100 {
		return domain.ValidationError("country must be at most 100 characters")
	}
	return nil
}
