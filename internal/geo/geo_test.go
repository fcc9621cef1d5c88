package geo

import "testing"

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestHaversineSamePoint(t *testing.T) {
	if d := Haversine(37.7749, -122.4194, 37.7749, -122.4194); d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversineSanFranciscoToLosAngeles(t *testing.T) {
	// roughly 347 miles as the crow flies
	d := Haversine(37.7749, -122.4194, 34.0522, -118.2437)
	if !almost(d, 347, 5) {
		t.Fatalf("want ~347 miles, got %f", d)
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{name: "origin", lat: 0, lng: 0, want: true},
		{name: "bounds", lat: -90, lng: 180, want: true},
		{name: "lat too high", lat: 90.1, lng: 0, want: false},
		{name: "lng too low", lat: 0, lng: -180.5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoordinates(tt.lat, tt.lng); got != tt.want {
				t.Fatalf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
			}
		})
	}
}
