package app_test

import (
	"context"
	"strings"
	"testing"

	"medharvest/internal/app"
)

const importFixture = `Hospital Name,Location,Specialty,Rating,Number of Beds,Established Year,Description,Image URL
Apollo Hospital,"India, Chennai, Tamil Nadu","Cardiology, Oncology",4.3 (86 Ratings),Number of Beds: 710,Established in: 1983,Large private hospital,https://img.test/apollo.jpg
Fortis Hospital,"India, Delhi",Orthopedics,,,,,
xx,"India, Pune",,,,,malformed: name too short,
`

func TestImporter_ImportHospitals(t *testing.T) {
	store := newFakeStore()
	im := app.NewImporter(store, nil, 100)

	n, err := im.ImportHospitals(context.Background(), strings.NewReader(importFixture))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported = %d, want 2 (bad row skipped)", n)
	}

	apollo, ok := store.hospitals["Apollo Hospital|Chennai"]
	if !ok {
		t.Fatalf("apollo missing: %v", store.hospitals)
	}
	if apollo.Location.Country != "India" || apollo.Location.State != "Tamil Nadu" {
		t.Fatalf("location = %+v", apollo.Location)
	}
	if apollo.Ratings.Overall != 4.3 || apollo.Facilities.BedCount != 710 {
		t.Fatalf("ratings/beds = %+v %+v", apollo.Ratings, apollo.Facilities)
	}
	if apollo.EstablishedYear == nil || *apollo.EstablishedYear != 1983 {
		t.Fatalf("year = %v", apollo.EstablishedYear)
	}
	if len(apollo.Specialties) != 2 {
		t.Fatalf("specialties = %+v", apollo.Specialties)
	}

	if _, ok := store.hospitals["Fortis Hospital|Delhi"]; !ok {
		t.Fatalf("fortis missing: %v", store.hospitals)
	}
}

func TestImporter_Idempotent(t *testing.T) {
	store := newFakeStore()
	im := app.NewImporter(store, nil, 1)

	if _, err := im.ImportHospitals(context.Background(), strings.NewReader(importFixture)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := im.ImportHospitals(context.Background(), strings.NewReader(importFixture)); err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(store.hospitals) != 2 {
		t.Fatalf("rows = %d, want 2 after re-import", len(store.hospitals))
	}
}

func TestImporter_MissingNameColumn(t *testing.T) {
	im := app.NewImporter(newFakeStore(), nil, 100)
	_, err := im.ImportHospitals(context.Background(), strings.NewReader("Name,City\nA,B\n"))
	if err == nil {
		t.Fatal("expected header validation error")
	}
}
