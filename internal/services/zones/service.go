// Package zones implements the business rules for zone records.
package zones

import (
	"context"
	"fmt"
	"strings"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
	"github.com/DigitalTwins-IS/ms-geo/internal/services/cities"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
	"github.com/DigitalTwins-IS/ms-geo/pkg/logger"
)

// Service manages zones within cities.
type Service struct {
	zones   storage.ZoneStore
	citySvc *cities.Service
	cities  storage.CityStore
	log     *logger.Logger
}

// New constructs a zone service. citySvc is used for cache invalidation and
// may be nil.
func New(zonesStore storage.ZoneStore, citiesStore storage.CityStore, citySvc *cities.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("zones")
	}
	return &Service{
		zones:   zonesStore,
		citySvc: citySvc,
		cities:  citiesStore,
		log:     log,
	}
}

// List returns zones matching the filter, each with its city's name and
// country.
func (s *Service) List(ctx context.Context, filter storage.ZoneFilter) ([]zone.WithCity, error) {
	result, err := s.zones.ListZones(ctx, filter)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []zone.WithCity{}
	}
	return result, nil
}

// Get returns a single zone with its city information.
func (s *Service) Get(ctx context.Context, id int64) (zone.WithCity, error) {
	return s.zones.GetZone(ctx, id)
}

// Create registers a new zone in a city. The city must exist and the zone
// name must be unique within it.
func (s *Service) Create(ctx context.Context, name string, cityID int64, color, description string) (zone.Zone, error) {
	name = strings.TrimSpace(name)
	if color == "" {
		color = zone.DefaultColor
	}
	normalized, err := zone.NormalizeColor(color)
	if err != nil {
		return zone.Zone{}, err
	}

	z := zone.Zone{
		Name:        name,
		CityID:      cityID,
		Color:       normalized,
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := z.Validate(); err != nil {
		return zone.Zone{}, err
	}

	c, err := s.cities.GetCity(ctx, cityID)
	if err != nil {
		return zone.Zone{}, fmt.Errorf("city %d: %w", cityID, err)
	}

	siblings, err := s.zones.ListZonesByCity(ctx, cityID, false)
	if err != nil {
		return zone.Zone{}, err
	}
	for _, sibling := range siblings {
		if strings.EqualFold(sibling.Name, name) {
			return zone.Zone{}, domain.ConflictError(fmt.Sprintf("zone %q already exists in %s", name, c.Name))
		}
	}

	created, err := s.zones.CreateZone(ctx, z)
	if err != nil {
		return zone.Zone{}, err
	}

	s.invalidate(ctx, cityID)
	s.log.WithField("zone_id", created.ID).
		WithField("city_id", cityID).
		WithField("name", created.Name).
		Info("zone created")
	return created, nil
}

// Update applies the provided fields to an existing zone. Nil fields are
// left unchanged. Moving a zone to another city revalidates the target.
func (s *Service) Update(ctx context.Context, id int64, name *string, cityID *int64, color, description *string, isActive *bool) (zone.Zone, error) {
	current, err := s.zones.GetZone(ctx, id)
	if err != nil {
		return zone.Zone{}, err
	}
	z := current.Zone
	previousCityID := z.CityID

	if name != nil {
		z.Name = strings.TrimSpace(*name)
	}
	if cityID != nil {
		if _, err := s.cities.GetCity(ctx, *cityID); err != nil {
			return zone.Zone{}, fmt.Errorf("city %d: %w", *cityID, err)
		}
		z.CityID = *cityID
	}
	if color != nil {
		normalized, err := zone.NormalizeColor(*color)
		if err != nil {
			return zone.Zone{}, err
		}
		z.Color = normalized
	}
	if description != nil {
		z.Description = strings.TrimSpace(*description)
	}
	if isActive != nil {
		z.IsActive = *isActive
	}

	if err := z.Validate(); err != nil {
		return zone.Zone{}, err
	}

	updated, err := s.zones.UpdateZone(ctx, z)
	if err != nil {
		return zone.Zone{}, err
	}

	s.invalidate(ctx, previousCityID)
	if updated.CityID != previousCityID {
		s.invalidate(ctx, updated.CityID)
	}
	s.log.WithField("zone_id", updated.ID).Info("zone updated")
	return updated, nil
}

func (s *Service) invalidate(ctx context.Context, cityID int64) {
	if s.citySvc != nil {
		s.citySvc.InvalidateCache(ctx, cityID)
	}
}
