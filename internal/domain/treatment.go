package domain

import "time"

type PriceRange struct {
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
	Currency string  `json:"currency"`
}

// Treatment is keyed by Name in the store. HospitalName is a loose string
// reference captured during extraction, not a foreign key.
type Treatment struct {
	ID           int64
	Name         string
	Category     string
	Department   string
	Description  string
	Price        PriceRange
	Duration     string
	SuccessRate  string
	HospitalName string
	RiskFactors  []string
	AgeGroups    []string
	LastUpdated  time.Time
}
