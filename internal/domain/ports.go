package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrBlocked   = errors.New("request blocked")
	ErrRateLimit = errors.New("rate limited")
)

// PageFetcher loads a URL and returns the rendered HTML. Implemented by the
// stealth browser session and by the static site client; callers must treat a
// returned error as "this URL is unavailable", not as fatal.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HospitalRef is the minimal projection used for doctor linking.
type HospitalRef struct {
	ID   int64
	Name string
	City string
}

// UnlinkedDoctor is a doctor row whose hospital back-reference is unresolved.
type UnlinkedDoctor struct {
	ID              int64
	Name            string
	Specialization  string
	Designation     string
	ExperienceYears int
	HospitalName    string
}

// Store persists entities with upsert-by-key semantics. Each Upsert* call
// receives one batch and issues a single bulk conditional write; identity keys
// are (name, city) for hospitals, (name, hospital_name) for doctors and name
// for treatments. Every upsert stamps last_updated.
type Store interface {
	UpsertHospitals(ctx context.Context, hs []Hospital) error
	UpsertDoctors(ctx context.Context, ds []Doctor) error
	UpsertTreatments(ctx context.Context, ts []Treatment) error

	ListHospitalRefs(ctx context.Context) ([]HospitalRef, error)
	ListUnlinkedDoctors(ctx context.Context) ([]UnlinkedDoctor, error)
	LinkDoctor(ctx context.Context, doctorID, hospitalID int64) error
	DoctorRefs(ctx context.Context, hospitalID int64) ([]DoctorRef, error)
	ReplaceHospitalDoctors(ctx context.Context, hospitalID int64, refs []DoctorRef) error
}

// Geocoder resolves a free-text place to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (*Coordinates, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ScrapeError is accumulated per run for the final report; it is never
// persisted to the primary store.
type ScrapeError struct {
	URL     string    `json:"url"`
	Message string    `json:"message"`
	Entity  string    `json:"entity"`
	At      time.Time `json:"timestamp"`
}
