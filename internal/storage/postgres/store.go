// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain/city"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
)

// Store implements the storage interfaces using database/sql.
type Store struct {
	db *sql.DB
}

var _ storage.CityStore = (*Store)(nil)
var _ storage.ZoneStore = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- CityStore --------------------------------------------------------------

func (s *Store) CreateCity(ctx context.Context, c city.City) (city.City, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO cities (name, country, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.Name, c.Country, c.IsActive, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return city.City{}, err
	}
	return c, nil
}

func (s *Store) UpdateCity(ctx context.Context, c city.City) (city.City, error) {
	existing, err := s.GetCity(ctx, c.ID)
	if err != nil {
		return city.City{}, err
	}

	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE cities
		SET name = $2, country = $3, is_active = $4, updated_at = $5
		WHERE id = $1
	`, c.ID, c.Name, c.Country, c.IsActive, c.UpdatedAt)
	if err != nil {
		return city.City{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return city.City{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetCity(ctx context.Context, id int64) (city.City, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, country, is_active, created_at, updated_at
		FROM cities
		WHERE id = $1
	`, id)
	return scanCity(row)
}

func (s *Store) GetCityByName(ctx context.Context, name string) (city.City, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, country, is_active, created_at, updated_at
		FROM cities
		WHERE lower(name) = lower($1)
	`, name)
	return scanCity(row)
}

func (s *Store) ListCities(ctx context.Context, filter storage.ListFilter) ([]city.City, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, country, is_active, created_at, updated_at
		FROM cities
		WHERE $1::boolean IS NULL OR is_active = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`, nullBool(filter.IsActive), clampSkip(filter.Skip), clampLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []city.City
	for rows.Next() {
		var c city.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// --- ZoneStore --------------------------------------------------------------

func (s *Store) CreateZone(ctx context.Context, z zone.Zone) (zone.Zone, error) {
	now := time.Now().UTC()
	z.CreatedAt = now
	z.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO zones (name, city_id, color, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, z.Name, z.CityID, z.Color, z.Description, z.IsActive, z.CreatedAt, z.UpdatedAt).Scan(&z.ID)
	if err != nil {
		return zone.Zone{}, err
	}
	return z, nil
}

func (s *Store) UpdateZone(ctx context.Context, z zone.Zone) (zone.Zone, error) {
	existing, err := s.GetZone(ctx, z.ID)
	if err != nil {
		return zone.Zone{}, err
	}

	z.CreatedAt = existing.CreatedAt
	z.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE zones
		SET name = $2, city_id = $3, color = $4, description = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`, z.ID, z.Name, z.CityID, z.Color, z.Description, z.IsActive, z.UpdatedAt)
	if err != nil {
		return zone.Zone{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return zone.Zone{}, storage.ErrNotFound
	}
	return z, nil
}

func (s *Store) GetZone(ctx context.Context, id int64) (zone.WithCity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT z.id, z.name, z.city_id, z.color, z.description, z.is_active, z.created_at, z.updated_at,
		       c.name, c.country
		FROM zones z
		JOIN cities c ON c.id = z.city_id
		WHERE z.id = $1
	`, id)

	var (
		wc          zone.WithCity
		description sql.NullString
	)
	err := row.Scan(&wc.ID, &wc.Name, &wc.CityID, &wc.Color, &description, &wc.IsActive, &wc.CreatedAt, &wc.UpdatedAt, &wc.CityName, &wc.CityCountry)
	if errors.Is(err, sql.ErrNoRows) {
		return zone.WithCity{}, storage.ErrNotFound
	}
	if err != nil {
		return zone.WithCity{}, err
	}
	wc.Description = description.String
	return wc, nil
}

func (s *Store) ListZones(ctx context.Context, filter storage.ZoneFilter) ([]zone.WithCity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT z.id, z.name, z.city_id, z.color, z.description, z.is_active, z.created_at, z.updated_at,
		       c.name, c.country
		FROM zones z
		JOIN cities c ON c.id = z.city_id
		WHERE ($1 = 0 OR z.city_id = $1)
		  AND ($2::boolean IS NULL OR z.is_active = $2)
		ORDER BY z.id
		OFFSET $3 LIMIT $4
	`, filter.CityID, nullBool(filter.IsActive), clampSkip(filter.Skip), clampLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []zone.WithCity
	for rows.Next() {
		var (
			wc          zone.WithCity
			description sql.NullString
		)
		if err := rows.Scan(&wc.ID, &wc.Name, &wc.CityID, &wc.Color, &description, &wc.IsActive, &wc.CreatedAt, &wc.UpdatedAt, &wc.CityName, &wc.CityCountry); err != nil {
			return nil, err
		}
		wc.Description = description.String
		result = append(result, wc)
	}
	return result, rows.Err()
}

func (s *Store) ListZonesByCity(ctx context.Context, cityID int64, activeOnly bool) ([]zone.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, city_id, color, description, is_active, created_at, updated_at
		FROM zones
		WHERE city_id = $1 AND ($2 = false OR is_active = true)
		ORDER BY id
	`, cityID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []zone.Zone
	for rows.Next() {
		var (
			z           zone.Zone
			description sql.NullString
		)
		if err := rows.Scan(&z.ID, &z.Name, &z.CityID, &z.Color, &description, &z.IsActive, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, err
		}
		z.Description = description.String
		result = append(result, z)
	}
	return result, rows.Err()
}

func scanCity(row *sql.Row) (city.City, error) {
	var c city.City
	err := row.Scan(&c.ID, &c.Name, &c.Country, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return city.City{}, storage.ErrNotFound
	}
	if err != nil {
		return city.City{}, err
	}
	return c, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func clampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
