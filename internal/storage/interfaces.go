// Package storage defines the persistence interfaces the services depend on.
package storage

import (
	"context"
	"errors"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain/city"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ListFilter narrows list queries. A nil IsActive means no filtering on the
// active flag. Limit is clamped by the stores to 1..1000.
type ListFilter struct {
	Skip     int
	Limit    int
	IsActive *bool
}

// ZoneFilter narrows zone list queries. CityID zero means all cities.
type ZoneFilter struct {
	ListFilter
	CityID int64
}

// CityStore persists city records.
type CityStore interface {
	CreateCity(ctx context.Context, c city.City) (city.City, error)
	UpdateCity(ctx context.Context, c city.City) (city.City, error)
	GetCity(ctx context.Context, id int64) (city.City, error)
	GetCityByName(ctx context.Context, name string) (city.City, error)
	ListCities(ctx context.Context, filter ListFilter) ([]city.City, error)
}

// ZoneStore persists zone records.
type ZoneStore interface {
	CreateZone(ctx context.Context, z zone.Zone) (zone.Zone, error)
	UpdateZone(ctx context.Context, z zone.Zone) (zone.Zone, error)
	GetZone(ctx context.Context, id int64) (zone.WithCity, error)
	ListZones(ctx context.Context, filter ZoneFilter) ([]zone.WithCity, error)
	ListZonesByCity(ctx context.Context, cityID int64, activeOnly bool) ([]zone.Zone, error)
}

// Pinger reports backend connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
