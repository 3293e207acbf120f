package domain

import "time"

// VerificationStatus values for hospitals.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Location struct {
	City        string       `json:"city"`
	State       string       `json:"state"`
	Country     string       `json:"country"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Contact struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

type Specialty struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Certifications []string `json:"certifications"`
}

type Ratings struct {
	Overall      float64            `json:"overall"`
	TotalReviews int                `json:"totalReviews"`
	Categories   map[string]float64 `json:"categories,omitempty"`
}

type Facilities struct {
	BedCount          int             `json:"bedCount"`
	EmergencyServices bool            `json:"emergencyServices"`
	Imaging           map[string]bool `json:"imaging,omitempty"` // mri, ct, xray, ...
}

// DoctorRef is the embedded back-reference a hospital keeps for each of its
// doctors. DoctorID resolves to a Doctor row whose HospitalID points back.
type DoctorRef struct {
	DoctorID        int64  `json:"doctor_id"`
	Name            string `json:"name"`
	Specialization  string `json:"specialization"`
	Designation     string `json:"designation"`
	ExperienceYears int    `json:"experience_years"`
}

// Hospital is keyed by (Name, Location.City) in the store.
type Hospital struct {
	ID                 int64
	Name               string
	Location           Location
	Contact            Contact
	Specialties        []Specialty
	Ratings            Ratings
	Facilities         Facilities
	Accreditations     []string
	Doctors            []DoctorRef
	Description        string
	ImageURL           string
	EstablishedYear    *int
	IsActive           bool
	VerificationStatus string
	SourceURL          string
	LastUpdated        time.Time
}
