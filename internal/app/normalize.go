package app

import (
	"regexp"
	"strconv"
	"strings"

	"medharvest/internal/domain"
)

// Normalization helpers. Every function is total (never returns an error or
// panics on malformed input) and idempotent: feeding a function its own
// already-normalized output yields the same value, because cleanup scripts
// re-run normalization over previously imported records.

var (
	locationPrefixRe = regexp.MustCompile(`(?i)^location:\s*`)
	bedsPrefixRe     = regexp.MustCompile(`(?i)^number of beds:\s*`)
	yearPrefixRe     = regexp.MustCompile(`(?i)^established in:\s*`)
	decimalRe        = regexp.MustCompile(`\d+(?:\.\d+)?`)
	reviewCountRe    = regexp.MustCompile(`\((\d+)`)
	intRe            = regexp.MustCompile(`\d+`)
	yearRe           = regexp.MustCompile(`\b(\d{4})\b`)
	priceNumberRe    = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?`)
	specialtySplitRe = regexp.MustCompile(`[,;|]`)
)

var currencySymbols = map[string]string{
	"₹": "INR",
	"€": "EUR",
	"£": "GBP",
	"$": "USD",
}

// ParseLocation splits a "Country, City[, State]" string positionally. A
// string with fewer than two comma-separated parts is treated as a bare city.
func ParseLocation(raw string) domain.Location {
	clean := strings.TrimSpace(locationPrefixRe.ReplaceAllString(strings.TrimSpace(raw), ""))
	if clean == "" {
		return domain.Location{}
	}

	parts := strings.Split(clean, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) < 2 {
		return domain.Location{City: parts[0]}
	}
	loc := domain.Location{Country: parts[0], City: parts[1]}
	if len(parts) > 2 {
		loc.State = parts[2]
	}
	return loc
}

// ParseRating pulls the rating value and review count out of strings like
// "4.3 (86 Ratings)". Both default to zero.
func ParseRating(raw string) domain.Rating {
	var r domain.Rating
	if m := decimalRe.FindString(raw); m != "" {
		r.Value, _ = strconv.ParseFloat(m, 64)
	}
	if m := reviewCountRe.FindStringSubmatch(raw); m != nil {
		r.TotalReviews, _ = strconv.Atoi(m[1])
	}
	return r
}

// ParseBedCount handles "Number of Beds: 710" as well as a bare "710".
func ParseBedCount(raw string) int {
	clean := bedsPrefixRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if m := intRe.FindString(clean); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}

// ParseEstablishedYear extracts a 4-digit year; nil when absent.
func ParseEstablishedYear(raw string) *int {
	clean := yearPrefixRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if m := yearRe.FindStringSubmatch(clean); m != nil {
		y, _ := strconv.Atoi(m[1])
		return &y
	}
	return nil
}

// ParsePriceRange detects the currency symbol and extracts one or two numeric
// groups. With a single group max equals min; a reversed pair is swapped so
// min <= max always holds.
func ParsePriceRange(raw string) domain.PriceRange {
	pr := domain.PriceRange{Currency: "USD"}
	for sym, code := range currencySymbols {
		if strings.Contains(raw, sym) {
			pr.Currency = code
			break
		}
	}

	nums := priceNumberRe.FindAllString(raw, 2)
	if len(nums) == 0 {
		return pr
	}
	pr.MinPrice = parsePriceNumber(nums[0])
	pr.MaxPrice = pr.MinPrice
	if len(nums) > 1 {
		pr.MaxPrice = parsePriceNumber(nums[1])
	}
	if pr.MaxPrice < pr.MinPrice {
		pr.MinPrice, pr.MaxPrice = pr.MaxPrice, pr.MinPrice
	}
	return pr
}

func parsePriceNumber(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return f
}

// ParseSpecialties splits on comma/semicolon/pipe, trims, drops empties and
// duplicates, and wraps each name in the schema shape.
func ParseSpecialties(raw string) []domain.Specialty {
	parts := specialtySplitRe.Split(raw, -1)
	seen := make(map[string]struct{}, len(parts))
	out := make([]domain.Specialty, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, domain.Specialty{Name: name, Certifications: []string{}})
	}
	return out
}

// ParseExperienceYears extracts the leading year count from strings like
// "15+ years of experience".
func ParseExperienceYears(raw string) int {
	if m := intRe.FindString(raw); m != "" {
		n, _ := strconv.Atoi(m)
		return n
	}
	return 0
}
