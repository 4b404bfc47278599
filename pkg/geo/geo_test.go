package geo

import (
	"math"
	"testing"
)

func TestDistanceMeters_Zero(t *testing.T) {
	if d := DistanceMeters(-6.2, 106.8, -6.2, 106.8); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceMeters_OneDegreeLatitude(t *testing.T) {
	// one degree of latitude is R * pi / 180 on a sphere
	want := EarthRadiusM * math.Pi / 180
	got := DistanceMeters(0, 0, 1, 0)
	if math.Abs(got-want) > 0.001 {
		t.Fatalf("got %f want %f", got, want)
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := DistanceMeters(-6.2000, 106.8166, -6.2010, 106.8170)
	b := DistanceMeters(-6.2010, 106.8170, -6.2000, 106.8166)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance must be symmetric: %f vs %f", a, b)
	}
}

func TestMpsToKph(t *testing.T) {
	if got := MpsToKph(10); math.Abs(got-36) > 1e-9 {
		t.Fatalf("expected 36, got %f", got)
	}
}

func BenchmarkDistanceMeters(b *testing.B) {
	for b.Loop() {
		_ = DistanceMeters(-6.2000, 106.8166, -6.2010, 106.8170)
	}
}
