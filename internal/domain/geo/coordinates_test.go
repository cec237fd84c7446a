package geo

import (
	"strings"
	"testing"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		coords  Coordinates
		wantErr string
	}{
		{"bogota", Coordinates{Latitude: 4.711, Longitude: -74.0721}, ""},
		{"medellin", Coordinates{Latitude: 6.2442, Longitude: -75.5812}, ""},
		{"south edge", Coordinates{Latitude: -5, Longitude: -74}, ""},
		{"north edge", Coordinates{Latitude: 13, Longitude: -74}, ""},
		{"west edge", Coordinates{Latitude: 4, Longitude: -80}, ""},
		{"east edge", Coordinates{Latitude: 4, Longitude: -66}, ""},
		{"latitude beyond world", Coordinates{Latitude: 91, Longitude: -74}, "between -90 and 90"},
		{"longitude beyond world", Coordinates{Latitude: 4, Longitude: -181}, "between -180 and 180"},
		{"valid world but outside envelope north", Coordinates{Latitude: 40.7, Longitude: -74}, "Colombia range"},
		{"valid world but outside envelope east", Coordinates{Latitude: 4, Longitude: -60}, "Colombia range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coords.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWorldBoundsCheckedBeforeEnvelope(t *testing.T) {
	err := Coordinates{Latitude: 95, Longitude: -74}.Validate()
	if err == nil || strings.Contains(err.Error(), "Colombia") {
		t.Fatalf("expected world-bounds error first, got %v", err)
	}
}
