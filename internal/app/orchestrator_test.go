package app_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"medharvest/internal/app"
	"medharvest/internal/domain"
)

// ---- fakes ----

type fakeHarvester struct {
	urls        []string
	discoverErr error
	pages       map[string]domain.HospitalPage
	doctors     map[string][]domain.DoctorListing
	cats        []domain.Category
	treatments  map[string][]domain.TreatmentListing
}

func (f *fakeHarvester) DiscoverHospitals(_ context.Context) ([]string, error) {
	return f.urls, f.discoverErr
}
func (f *fakeHarvester) HospitalPage(_ context.Context, url string) (domain.HospitalPage, error) {
	p, ok := f.pages[url]
	if !ok {
		return domain.HospitalPage{}, domain.ErrNotFound
	}
	return p, nil
}
func (f *fakeHarvester) DoctorListings(_ context.Context, hospitalURL string) ([]domain.DoctorListing, error) {
	return f.doctors[hospitalURL], nil
}
func (f *fakeHarvester) TreatmentCategories(_ context.Context) ([]domain.Category, error) {
	return f.cats, nil
}
func (f *fakeHarvester) TreatmentListings(_ context.Context, cat domain.Category) ([]domain.TreatmentListing, error) {
	return f.treatments[cat.Name], nil
}

// fakeStore keys rows the way the real schema does, so running the same
// input twice must not grow it.
type fakeStore struct {
	mu         sync.Mutex
	hospitals  map[string]domain.Hospital // name|city
	doctors    map[string]domain.Doctor   // name|hospital_name
	treatments map[string]domain.Treatment

	hospitalBatches int
	failBatch       int // 1-based hospital batch to fail; 0 disables
	linked          map[int64]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hospitals:  map[string]domain.Hospital{},
		doctors:    map[string]domain.Doctor{},
		treatments: map[string]domain.Treatment{},
		linked:     map[int64]int64{},
	}
}

func (f *fakeStore) UpsertHospitals(_ context.Context, hs []domain.Hospital) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hospitalBatches++
	if f.failBatch > 0 && f.hospitalBatches == f.failBatch {
		return errors.New("deadlock detected")
	}
	for _, h := range hs {
		f.hospitals[h.Name+"|"+h.Location.City] = h
	}
	return nil
}
func (f *fakeStore) UpsertDoctors(_ context.Context, ds []domain.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range ds {
		f.doctors[d.Name+"|"+d.HospitalName] = d
	}
	return nil
}
func (f *fakeStore) UpsertTreatments(_ context.Context, ts []domain.Treatment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range ts {
		f.treatments[t.Name] = t
	}
	return nil
}
func (f *fakeStore) ListHospitalRefs(_ context.Context) ([]domain.HospitalRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.HospitalRef
	id := int64(1)
	for _, h := range f.hospitals {
		out = append(out, domain.HospitalRef{ID: id, Name: h.Name, City: h.Location.City})
		id++
	}
	return out, nil
}
func (f *fakeStore) ListUnlinkedDoctors(_ context.Context) ([]domain.UnlinkedDoctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.UnlinkedDoctor
	id := int64(1)
	for _, d := range f.doctors {
		out = append(out, domain.UnlinkedDoctor{ID: id, Name: d.Name, HospitalName: d.HospitalName})
		id++
	}
	return out, nil
}
func (f *fakeStore) LinkDoctor(_ context.Context, doctorID, hospitalID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linked[doctorID] = hospitalID
	return nil
}
func (f *fakeStore) DoctorRefs(_ context.Context, _ int64) ([]domain.DoctorRef, error) {
	return nil, nil
}
func (f *fakeStore) ReplaceHospitalDoctors(_ context.Context, _ int64, _ []domain.DoctorRef) error {
	return nil
}

func fixtureHarvester() *fakeHarvester {
	return &fakeHarvester{
		urls: []string{
			"https://x.test/hospitals/apollo-chennai",
			"https://x.test/hospitals/fortis-delhi",
			"https://x.test/hospitals/broken-page",
		},
		pages: map[string]domain.HospitalPage{
			"https://x.test/hospitals/apollo-chennai": {
				Name:            "Apollo Hospital",
				LocationText:    "Location: India, Chennai, Tamil Nadu",
				RatingText:      "4.3 (86 Ratings)",
				SpecialtiesText: "Cardiology, Oncology",
				BedsText:        "Number of Beds: 710",
				EstablishedText: "Established in: 1983",
				SourceURL:       "https://x.test/hospitals/apollo-chennai",
			},
			"https://x.test/hospitals/fortis-delhi": {
				Name:         "Fortis Hospital",
				LocationText: "India, Delhi",
				// no rating text at all
				SourceURL: "https://x.test/hospitals/fortis-delhi",
			},
			"https://x.test/hospitals/broken-page": {
				// nav chrome matched instead of a name
				Name: "Top",
			},
		},
		doctors: map[string][]domain.DoctorListing{
			"https://x.test/hospitals/apollo-chennai": {
				{Name: "Dr. Anita Rao", Specialization: "Cardiology", ExperienceText: "15+ years"},
			},
		},
		cats: []domain.Category{{Name: "Cardiology", URL: "https://x.test/treatments/cardiology"}},
		treatments: map[string][]domain.TreatmentListing{
			"Cardiology": {
				{Name: "Heart Bypass Surgery", PriceText: "₹50,000 - 80,000"},
			},
		},
	}
}

// ---- tests ----

func TestPipeline_EndToEnd(t *testing.T) {
	store := newFakeStore()
	dir := t.TempDir()
	p := app.NewPipeline(fixtureHarvester(), store, nil, app.Options{
		Concurrency: 2,
		ReportDir:   dir,
		ExportCSV:   true,
	})

	rep, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if len(store.hospitals) != 2 {
		t.Fatalf("persisted hospitals = %d, want 2", len(store.hospitals))
	}
	apollo, ok := store.hospitals["Apollo Hospital|Chennai"]
	if !ok {
		t.Fatalf("apollo missing: %v", store.hospitals)
	}
	if apollo.Ratings.Overall != 4.3 || apollo.Ratings.TotalReviews != 86 {
		t.Fatalf("apollo ratings = %+v", apollo.Ratings)
	}
	if apollo.Facilities.BedCount != 710 || apollo.EstablishedYear == nil || *apollo.EstablishedYear != 1983 {
		t.Fatalf("apollo facilities/year = %+v %v", apollo.Facilities, apollo.EstablishedYear)
	}
	fortis := store.hospitals["Fortis Hospital|Delhi"]
	if fortis.Ratings.Overall != 0 {
		t.Fatalf("missing rating must normalize to 0, got %v", fortis.Ratings.Overall)
	}

	if _, ok := store.doctors["Dr. Anita Rao|Apollo Hospital"]; !ok {
		t.Fatalf("doctor missing: %v", store.doctors)
	}
	tr, ok := store.treatments["Heart Bypass Surgery"]
	if !ok {
		t.Fatalf("treatment missing: %v", store.treatments)
	}
	if tr.Price.MinPrice != 50000 || tr.Price.MaxPrice != 80000 || tr.Price.Currency != "INR" {
		t.Fatalf("treatment price = %+v", tr.Price)
	}

	if rep.FinalState != "done" || rep.Hospitals != 2 || rep.Doctors != 1 || rep.Treatments != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.ByCity["Chennai"] != 1 || rep.ByCity["Delhi"] != 1 {
		t.Fatalf("by city = %v", rep.ByCity)
	}

	for _, name := range []string{"harvest_report.json", "hospitals.csv", "doctors.csv", "treatments.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
}

func TestPipeline_PartialBatchFailureContained(t *testing.T) {
	h := &fakeHarvester{pages: map[string]domain.HospitalPage{}}
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://x.test/hospitals/h-%d", i)
		h.urls = append(h.urls, u)
		h.pages[u] = domain.HospitalPage{
			Name:         fmt.Sprintf("Hospital %02d", i),
			LocationText: "India, Mumbai",
			SourceURL:    u,
		}
	}
	store := newFakeStore()
	store.failBatch = 2

	p := app.NewPipeline(h, store, nil, app.Options{
		Concurrency: 10,
		UpsertBatch: 2,
		ReportDir:   t.TempDir(),
	})
	rep, err := p.Execute(context.Background())
	if err != nil {
		t.Fatalf("a failed batch must not fail the run: %v", err)
	}

	if store.hospitalBatches != 5 {
		t.Fatalf("batches = %d, want 5", store.hospitalBatches)
	}
	if len(store.hospitals) != 8 {
		t.Fatalf("persisted = %d, want 8 (one batch of 2 lost)", len(store.hospitals))
	}
	if len(rep.Errors) != 1 {
		t.Fatalf("report errors = %+v, want exactly the failed batch", rep.Errors)
	}
	if rep.FinalState != "done" {
		t.Fatalf("final state = %s", rep.FinalState)
	}
}

func TestPipeline_DiscoveryFailureAborts(t *testing.T) {
	h := &fakeHarvester{discoverErr: errors.New("all strategies failed")}
	dir := t.TempDir()
	p := app.NewPipeline(h, newFakeStore(), nil, app.Options{ReportDir: dir})

	rep, err := p.Execute(context.Background())
	if err == nil {
		t.Fatal("expected discovery failure to surface")
	}
	if rep == nil || rep.FinalState != "aborted" {
		t.Fatalf("report = %+v", rep)
	}
	// Even the aborted run leaves a report behind.
	if _, err := os.Stat(filepath.Join(dir, "harvest_report.json")); err != nil {
		t.Fatalf("missing abort report: %v", err)
	}
}

func TestPipeline_RerunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	opts := app.Options{Concurrency: 3, ReportDir: t.TempDir()}

	if _, err := app.NewPipeline(fixtureHarvester(), store, nil, opts).Execute(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := len(store.hospitals) + len(store.doctors) + len(store.treatments)

	if _, err := app.NewPipeline(fixtureHarvester(), store, nil, opts).Execute(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	after := len(store.hospitals) + len(store.doctors) + len(store.treatments)

	if before != after {
		t.Fatalf("rerun grew the store: %d -> %d", before, after)
	}
}

type fixedGeocoder struct{ c domain.Coordinates }

func (g fixedGeocoder) Geocode(_ context.Context, _ string) (*domain.Coordinates, error) {
	c := g.c
	return &c, nil
}

func TestPipeline_GeocodesCity(t *testing.T) {
	store := newFakeStore()
	p := app.NewPipeline(fixtureHarvester(), store, fixedGeocoder{domain.Coordinates{Lat: 13.08, Lon: 80.27}}, app.Options{
		ReportDir: t.TempDir(),
	})
	if _, err := p.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	apollo := store.hospitals["Apollo Hospital|Chennai"]
	if apollo.Location.Coordinates == nil || apollo.Location.Coordinates.Lat != 13.08 {
		t.Fatalf("coordinates = %+v", apollo.Location.Coordinates)
	}
}
