package zone

import (
	"strings"
	"time"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
)

// DefaultColor is assigned when a zone is created without a display color.
const DefaultColor = "#3498DB"

// Zone represents an area within a city, rendered on the map with a
// distinguishing color.
type Zone struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CityID      int64     `json:"city_id"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WithCity decorates a zone with the name and country of its city for list
// and detail responses.
type WithCity struct {
	Zone
	CityName    string `json:"city_name"`
	CityCountry string `json:"city_country"`
}

// Validate checks the invariants enforced on create and update.
func (z Zone) Validate() error {
	name := strings.TrimSpace(z.Name)
	if len(name) < 2 || len(name) > 255 {
		return domain.ValidationError("name must be between 2 and 255 characters")
	}
	if z.CityID <= 0 {
		return domain.ValidationError("city_id must be positive")
	}
	if _, err := NormalizeColor(z.Color); err != nil {
		return err
	}
	return nil
}

// NormalizeColor validates a #RRGGBB color and returns it uppercased.
func NormalizeColor(color string) (string, error) {
	if !strings.HasPrefix(color, "#") {
		return "", domain.ValidationError("color must start with #")
	}
	if len(color) != 7 {
		return "", domain.ValidationError("color must have format #RRGGBB")
	}
	for _, r := range color[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return "", domain.ValidationError("color must have format #RRGGBB")
		}
	}
	return strings.ToUpper(color), nil
}
