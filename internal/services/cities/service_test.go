package cities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/DigitalTwins-IS/ms-geo/internal/cache"
	"github.com/DigitalTwins-IS/ms-geo/internal/domain/zone"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage"
	"github.com/DigitalTwins-IS/ms-geo/internal/storage/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, store, nil, "", nil), store
}

func TestCreateDefaultsCountry(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), "  Bogotá  ", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "Bogotá" {
		t.Fatalf("name not trimmed: %q", created.Name)
	}
	if created.Country != "Colombia" {
		t.Fatalf("country = %q, want Colombia", created.Country)
	}
	if !created.IsActive {
		t.Fatal("new city should be active")
	}
}

func TestCreateRejectsDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Medellín", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, "medellín", "")
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("duplicate should not map to not-found: %v", err)
	}
}

func TestCreateRejectsInvalidName(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Create(context.Background(), "X", ""); err == nil {
		t.Fatal("expected validation error for short name")
	}
}

func TestGetWithZonesReturnsActiveOnly(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Cali", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, z := range []zone.Zone{
		{Name: "Norte", CityID: c.ID, Color: zone.DefaultColor, IsActive: true},
		{Name: "Sur", CityID: c.ID, Color: zone.DefaultColor, IsActive: false},
	} {
		if _, err := store.CreateZone(ctx, z); err != nil {
			t.Fatalf("CreateZone: %v", err)
		}
	}

	got, err := svc.GetWithZones(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetWithZones: %v", err)
	}
	if got.TotalZones != 1 || len(got.Zones) != 1 {
		t.Fatalf("expected 1 active zone, got %d", got.TotalZones)
	}
	if got.Zones[0].Name != "Norte" {
		t.Fatalf("unexpected zone %q", got.Zones[0].Name)
	}
}

func TestGetWithZonesNotFound(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.GetWithZones(context.Background(), 404); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func newCachedService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0, time.Minute)
	t.Cleanup(func() { c.Close() })
	return New(store, store, c, "", nil), store
}

func TestGetWithZonesReadsThroughCache(t *testing.T) {
	svc, store := newCachedService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Bogotá", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.GetWithZones(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetWithZones: %v", err)
	}
	if first.TotalZones != 0 {
		t.Fatalf("TotalZones = %d", first.TotalZones)
	}

	// Write past the service; the cached detail view must still be served.
	if _, err := store.CreateZone(ctx, zone.Zone{Name: "Norte", CityID: c.ID, Color: zone.DefaultColor, IsActive: true}); err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	cached, err := svc.GetWithZones(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetWithZones: %v", err)
	}
	if cached.TotalZones != 0 {
		t.Fatal("expected stale cached view before invalidation")
	}

	// A city mutation drops the cached view.
	active := true
	if _, err := svc.Update(ctx, c.ID, nil, nil, &active); err != nil {
		t.Fatalf("Update: %v", err)
	}
	fresh, err := svc.GetWithZones(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetWithZones: %v", err)
	}
	if fresh.TotalZones != 1 {
		t.Fatalf("TotalZones = %d after invalidation, want 1", fresh.TotalZones)
	}
}

func TestInvalidateCacheDropsDetailView(t *testing.T) {
	svc, store := newCachedService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Cali", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.GetWithZones(ctx, c.ID); err != nil {
		t.Fatalf("GetWithZones: %v", err)
	}

	if _, err := store.CreateZone(ctx, zone.Zone{Name: "Sur", CityID: c.ID, Color: zone.DefaultColor, IsActive: true}); err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	svc.InvalidateCache(ctx, c.ID)

	fresh, err := svc.GetWithZones(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetWithZones: %v", err)
	}
	if fresh.TotalZones != 1 {
		t.Fatalf("TotalZones = %d, want 1", fresh.TotalZones)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Barranquilla", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, c.ID, nil, nil, &inactive)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsActive {
		t.Fatal("is_active not applied")
	}
	if updated.Name != "Barranquilla" {
		t.Fatalf("name should be unchanged, got %q", updated.Name)
	}
}

func TestUpdateRejectsRenameToExisting(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Bogotá", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, "Cali", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Bogotá"
	if _, err := svc.Update(ctx, second.ID, &name, nil, nil); err == nil {
		t.Fatal("expected duplicate error on rename")
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newService(t)
	name := "Nowhere"
	if _, err := svc.Update(context.Background(), 404, &name, nil, nil); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
