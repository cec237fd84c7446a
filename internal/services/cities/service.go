// Package cities implements the business rules for city records.
package cities

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DigitalTwins-IS/ms-geo/internal/cache"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/city"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
	"github.com/DigitalTwins-IS/ms-geo/pkg/logger"
)

// WithZones is a city detail response including its active zones.
type WithZones struct {
	city.City
	Zones      []zone.Zone `json:"zones"`
	TotalZones int         `json:"total_zones"`
}

// Service manages cities.
type Service struct {
	cities         storage.CityStore
	zones          storage.ZoneStore
	cache          *cache.Cache
	defaultCountry string
	log            *logger.Logger
}

// New constructs a city service. cacheClient may be nil.
func New(citiesStore storage.CityStore, zonesStore storage.ZoneStore, cacheClient *cache.Cache, defaultCountry string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cities")
	}
	if defaultCountry == "" {
		defaultCountry = city.DefaultCountry
	}
	return &Service{
		cities:         citiesStore,
		zones:          zonesStore,
		cache:          cacheClient,
		defaultCountry: defaultCountry,
		log:            log,
	}
}

// List returns cities matching the filter.
func (s *Service) List(ctx context.Context, filter storage.ListFilter) ([]city.City, error) {
	result, err := s.cities.ListCities(ctx, filter)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []city.City{}
	}
	return result, nil
}

// GetWithZones returns a city and its active zones.
func (s *Service) GetWithZones(ctx context.Context, id int64) (WithZones, error) {
	key := cacheKey(id)

	var cached WithZones
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	c, err := s.cities.GetCity(ctx, id)
	if err != nil {
		return WithZones{}, err
	}

	zones, err := s.zones.ListZonesByCity(ctx, id, true)
	if err != nil {
		return WithZones{}, err
	}
	if zones == nil {
		zones = []zone.Zone{}
	}

	result := WithZones{City: c, Zones: zones, TotalZones: len(zones)}
	s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// Create registers a new city. Duplicate names are rejected.
func (s *Service) Create(ctx context.Context, name, country string) (city.City, error) {
	name = strings.TrimSpace(name)
	country = strings.TrimSpace(country)
	if country == "" {
		country = s.defaultCountry
	}

	c := city.City{Name: name, Country: country, IsActive: true}
	if err := c.Validate(); err != nil {
		return city.City{}, err
	}

	if existing, err := s.cities.GetCityByName(ctx, name); err == nil {
		return city.City{}, domain.ConflictError(fmt.Sprintf("city %q already exists (id %d)", name, existing.ID))
	} else if !errors.Is(err, storage.ErrNotFound) {
		return city.City{}, err
	}

	created, err := s.cities.CreateCity(ctx, c)
	if err != nil {
		return city.City{}, err
	}

	s.log.WithField("city_id", created.ID).
		WithField("name", created.Name).
		Info("city created")
	return created, nil
}

// Update applies the provided fields to an existing city. Nil fields are
// left unchanged.
func (s *Service) Update(ctx context.Context, id int64, name, country *string, isActive *bool) (city.City, error) {
	c, err := s.cities.GetCity(ctx, id)
	if err != nil {
		return city.City{}, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed != "" && !strings.EqualFold(trimmed, c.Name) {
			if existing, err := s.cities.GetCityByName(ctx, trimmed); err == nil && existing.ID != id {
				return city.City{}, domain.ConflictError(fmt.Sprintf("city %q already exists (id %d)", trimmed, existing.ID))
			} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return city.City{}, err
			}
		}
		c.Name = trimmed
	}
	if country != nil {
		c.Country = strings.TrimSpace(*country)
	}
	if isActive != nil {
		c.IsActive = *isActive
	}

	if err := c.Validate(); err != nil {
		return city.City{}, err
	}

	updated, err := s.cities.UpdateCity(ctx, c)
	if err != nil {
		return city.City{}, err
	}

	s.cache.Delete(ctx, cacheKey(id))
	s.log.WithField("city_id", updated.ID).Info("city updated")
	return updated, nil
}

// InvalidateCache drops the cached detail view for a city. Zone mutations
// call this since the detail view embeds zones.
func (s *Service) InvalidateCache(ctx context.Context, cityID int64) {
	s.cache.Delete(ctx, cacheKey(cityID))
}

func cacheKey(id int64) string {
	return fmt.Sprintf("geo:city:%d", id)
}
