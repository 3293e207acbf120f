package domain

import "time"

type Rating struct {
	Value        float64 `json:"value"`
	TotalReviews int     `json:"totalReviews"`
}

// Doctor is keyed by (Name, HospitalName) in the store. HospitalID is a weak
// back-reference established post-hoc by fuzzy name matching; nil means the
// doctor is unmapped, which is a valid state.
type Doctor struct {
	ID              int64
	Name            string
	Specializations []string
	Designation     string
	ExperienceYears int
	ExperienceText  string
	Rating          Rating
	Location        Location
	HospitalName    string
	HospitalID      *int64
	Qualifications  []string
	Languages       []string
	ConsultationFee string
	ProfileURL      string
	Verified        bool
	LastUpdated     time.Time
}
