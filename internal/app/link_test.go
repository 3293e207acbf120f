package app

import (
	"testing"

	"medharvest/internal/domain"
)

func TestHospitalKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Apollo Hospitals", "apollo"},
		{"Apollo Hospital, Chennai", "apollo chennai"},
		{"The Fortis Medical Centre Pvt. Ltd.", "fortis"},
		{"BLK-Max Super Speciality Hospital", "blk max super speciality"},
		{"", ""},
	}
	for _, c := range cases {
		if got := hospitalKey(c.in); got != c.want {
			t.Errorf("hospitalKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMatchHospital(t *testing.T) {
	refs := []domain.HospitalRef{
		{ID: 1, Name: "Apollo Hospitals", City: "Chennai"},
		{ID: 2, Name: "Max Hospital Saket", City: "Delhi"},
		{ID: 3, Name: "Max Hospital Patparganj", City: "Delhi"},
	}

	if m := matchHospital(refs, "Apollo Hospital"); m == nil || m.ID != 1 {
		t.Fatalf("exact-normalized match failed: %+v", m)
	}
	if m := matchHospital(refs, "Apollo Hospitals Chennai Campus"); m == nil || m.ID != 1 {
		t.Fatalf("containment match failed: %+v", m)
	}
	// "Max Hospital" is a substring of both Delhi entries; must stay unmapped.
	if m := matchHospital(refs, "Max Hospital"); m != nil {
		t.Fatalf("ambiguous name must not link, got %+v", m)
	}
	if m := matchHospital(refs, "Unknown Clinic"); m != nil {
		t.Fatalf("unknown name must not link, got %+v", m)
	}
	if m := matchHospital(refs, ""); m != nil {
		t.Fatalf("empty name must not link, got %+v", m)
	}
}
