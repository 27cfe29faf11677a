package utils

import (
	"math"
	"testing"
)

func TestCalculateDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKM                 float64
		tolerance              float64
	}{
		{name: "same point", lat1: 24.7136, lon1: 46.6753, lat2: 24.7136, lon2: 46.6753, wantKM: 0, tolerance: 1e-9},
		{name: "one degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, wantKM: 111.19, tolerance: 0.01},
		{name: "riyadh to jeddah", lat1: 24.7136, lon1: 46.6753, lat2: 21.4858, lon2: 39.1925, wantKM: 846, tolerance: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKM) > tt.tolerance {
				t.Fatalf("CalculateDistance = %.3f, want %.3f ± %.3f", got, tt.wantKM, tt.tolerance)
			}
		})
	}
}

func TestEstimateETASeconds(t *testing.T) {
	if got := EstimateETASeconds(30000, 30); math.Abs(got-3600) > 1e-6 {
		t.Fatalf("30 km at 30 km/h = %.2f s, want 3600", got)
	}
	if got := EstimateETASeconds(30000, 0); math.Abs(got-3600) > 1e-6 {
		t.Fatalf("non-positive speed should use the default, got %.2f", got)
	}
}

func TestIsValidCoordinates(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
	}
	for _, c := range cases {
		if got := IsValidCoordinates(c.lat, c.lng); got != c.want {
			t.Errorf("IsValidCoordinates(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}
