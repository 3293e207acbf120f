package domain

import "context"

// Raw page extracts. Fields hold uncleaned text exactly as pulled from the
// markup; the normalizer turns them into schema shapes. Absent fields are
// empty strings, never an error.

type HospitalPage struct {
	Name            string
	LocationText    string
	Address         string
	RatingText      string
	SpecialtiesText string
	BedsText        string
	EstablishedText string
	Description     string
	FacilitiesText  string
	Phone           string
	Email           string
	Website         string
	Accreditations  []string
	SourceURL       string
}

type DoctorListing struct {
	Name           string
	Specialization string
	Designation    string
	ExperienceText string
	Qualifications string
	ProfileURL     string
}

type TreatmentListing struct {
	Name         string
	PriceText    string
	Description  string
	Duration     string
	HospitalText string
	LocationText string
	Category     string
}

type Category struct {
	Name string
	URL  string
}

// Harvester is the scraping surface the orchestrator drives. Implementations
// return best-effort partial data; only a harvester that cannot produce
// anything at all (browser dead, site unreachable) returns an error alongside
// an empty result.
type Harvester interface {
	DiscoverHospitals(ctx context.Context) ([]string, error)
	HospitalPage(ctx context.Context, url string) (HospitalPage, error)
	DoctorListings(ctx context.Context, hospitalURL string) ([]DoctorListing, error)
	TreatmentCategories(ctx context.Context) ([]Category, error)
	TreatmentListings(ctx context.Context, cat Category) ([]TreatmentListing, error)
}
