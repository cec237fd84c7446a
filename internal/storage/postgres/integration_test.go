package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/DigitalTwins-IS/ms-geo/internal/domain/city"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
)

// openTestDB connects to the database named by TEST_DATABASE_URL. The test
// is skipped when the variable is unset so the suite runs without a server.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	_ = godotenv.Load("../../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIntegrationCityAndZoneRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := New(db)
	ctx := context.Background()

	name := fmt.Sprintf("it-city-%d", time.Now().UnixNano())
	c, err := store.CreateCity(ctx, city.City{Name: name, Country: city.DefaultCountry, IsActive: true})
	if err != nil {
		t.Fatalf("CreateCity: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, `DELETE FROM cities WHERE id = $1`, c.ID)
	})

	z, err := store.CreateZone(ctx, zone.Zone{
		Name: "it-norte", CityID: c.ID, Color: zone.DefaultColor, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateZone: %v", err)
	}

	got, err := store.GetZone(ctx, z.ID)
	if err != nil {
		t.Fatalf("GetZone: %v", err)
	}
	if got.CityName != name {
		t.Fatalf("city_name = %q, want %q", got.CityName, name)
	}

	zones, err := store.ListZonesByCity(ctx, c.ID, true)
	if err != nil {
		t.Fatalf("ListZonesByCity: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(zones))
	}

	// Cascade delete removes the zone with the city.
	if _, err := db.ExecContext(ctx, `DELETE FROM cities WHERE id = $1`, c.ID); err != nil {
		t.Fatalf("delete city: %v", err)
	}
	if _, err := store.GetZone(ctx, z.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("zone survived cascade: %v", err)
	}
}
