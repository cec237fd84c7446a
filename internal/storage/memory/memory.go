// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/city"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
)

// Store keeps cities and zones in maps guarded by a single mutex.
type Store struct {
	mu         sync.RWMutex
	nextCityID int64
	nextZoneID int64
	cities     map[int64]city.City
	zones      map[int64]zone.Zone
}

var _ storage.CityStore = (*Store)(nil)
var _ storage.ZoneStore = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextCityID: 1,
		nextZoneID: 1,
		cities:     make(map[int64]city.City),
		zones:      make(map[int64]zone.Zone),
	}
}

// Ping always succeeds; there is no backend to lose.
func (s *Store) Ping(context.Context) error { return nil }

// CityStore implementation ----------------------------------------------------

func (s *Store) CreateCity(_ context.Context, c city.City) (city.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cities {
		if strings.EqualFold(existing.Name, c.Name) {
			return city.City{}, domain.ConflictError(fmt.Sprintf("city %q already exists", c.Name))
		}
	}

	c.ID = s.nextCityID
	s.nextCityID++
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.cities[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCity(_ context.Context, c city.City) (city.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.cities[c.ID]
	if !ok {
		return city.City{}, storage.ErrNotFound
	}

	c.CreatedAt = original.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.cities[c.ID] = c
	return c, nil
}

func (s *Store) GetCity(_ context.Context, id int64) (city.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cities[id]
	if !ok {
		return city.City{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetCityByName(_ context.Context, name string) (city.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.cities {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return city.City{}, storage.ErrNotFound
}

func (s *Store) ListCities(_ context.Context, filter storage.ListFilter) ([]city.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]city.City, 0, len(s.cities))
	for _, c := range s.cities {
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, filter.Skip, filter.Limit), nil
}

// ZoneStore implementation ----------------------------------------------------

func (s *Store) CreateZone(_ context.Context, z zone.Zone) (zone.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cities[z.CityID]; !ok {
		return zone.Zone{}, storage.ErrNotFound
	}
	for _, existing := range s.zones {
		if existing.CityID == z.CityID && strings.EqualFold(existing.Name, z.Name) {
			return zone.Zone{}, domain.ConflictError(fmt.Sprintf("zone %q already exists in city %d", z.Name, z.CityID))
		}
	}

	z.ID = s.nextZoneID
	s.nextZoneID++
	now := time.Now().UTC()
	z.CreatedAt = now
	z.UpdatedAt = now

	s.zones[z.ID] = z
	return z, nil
}

func (s *Store) UpdateZone(_ context.Context, z zone.Zone) (zone.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.zones[z.ID]
	if !ok {
		return zone.Zone{}, storage.ErrNotFound
	}
	if _, ok := s.cities[z.CityID]; !ok {
		return zone.Zone{}, storage.ErrNotFound
	}

	z.CreatedAt = original.CreatedAt
	z.UpdatedAt = time.Now().UTC()
	s.zones[z.ID] = z
	return z, nil
}

func (s *Store) GetZone(_ context.Context, id int64) (zone.WithCity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.zones[id]
	if !ok {
		return zone.WithCity{}, storage.ErrNotFound
	}
	return s.withCityLocked(z), nil
}

func (s *Store) ListZones(_ context.Context, filter storage.ZoneFilter) ([]zone.WithCity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]zone.WithCity, 0, len(s.zones))
	for _, z := range s.zones {
		if filter.CityID != 0 && z.CityID != filter.CityID {
			continue
		}
		if filter.IsActive != nil && z.IsActive != *filter.IsActive {
			continue
		}
		result = append(result, s.withCityLocked(z))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, filter.Skip, filter.Limit), nil
}

func (s *Store) ListZonesByCity(_ context.Context, cityID int64, activeOnly bool) ([]zone.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []zone.Zone
	for _, z := range s.zones {
		if z.CityID != cityID {
			continue
		}
		if activeOnly && !z.IsActive {
			continue
		}
		result = append(result, z)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) withCityLocked(z zone.Zone) zone.WithCity {
	wc := zone.WithCity{Zone: z}
	if c, ok := s.cities[z.CityID]; ok {
		wc.CityName = c.Name
		wc.CityCountry = c.Country
	}
	return wc
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
