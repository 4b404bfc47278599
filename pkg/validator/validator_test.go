package validator

import "testing"

func TestValidator_FirstErrorWins(t *testing.T) {
	v := New()
	v.Check(false, "lat", "must be provided")
	v.Check(false, "lat", "must be between -90 and 90")

	if v.Valid() {
		t.Fatalf("validator must be invalid")
	}
	if v.Errors["lat"] != "must be provided" {
		t.Fatalf("unexpected message: %q", v.Errors["lat"])
	}
}

func TestPermittedValue(t *testing.T) {
	if !PermittedValue("car", "car", "motorcycle") {
		t.Fatalf("car must be permitted")
	}
	if PermittedValue("bus", "car", "motorcycle") {
		t.Fatalf("bus must not be permitted")
	}
}
