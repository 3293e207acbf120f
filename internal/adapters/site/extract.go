package site

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"medharvest/internal/adapters/observability"
	"medharvest/internal/domain"
)

// MinNameLen guards against selector cascades matching page chrome
// ("Advertisement", nav labels) instead of an entity name.
const MinNameLen = 4

var (
	phoneRe        = regexp.MustCompile(`\+?\d[\d\s().-]{8,14}\d`)
	emailRe        = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	drNameRe       = regexp.MustCompile(`\b[Dd]r\.?\s+([A-Z][A-Za-z.'-]+(?:\s+[A-Z][A-Za-z.'-]+){0,3})`)
	experienceRe   = regexp.MustCompile(`(?i)(\d+)\+?\s*years?(?:\s*of)?\s*experience`)
	qualRe         = regexp.MustCompile(`(?i)\b(MBBS|MD|MS|DM|MCh|DNB|FRCS|MRCP)\b`)
	scriptURLRe    = regexp.MustCompile(`/(?:hospitals?|treatments?)/[a-zA-Z0-9\-_/]+`)
	hospitalURLRe  = regexp.MustCompile(`/hospitals?/(?:[a-z-]+/)?[^/?#]+/?$`)
	treatmentURLRe = regexp.MustCompile(`/treatments?/[^/?#]+/?$`)
	titleSuffixRe  = regexp.MustCompile(`\s+[-|–]\s.{0,60}$`)
)

// Extractor pulls structured values out of loaded pages via per-field selector
// cascades. It never fails: missing fields come back as zero values.
type Extractor struct {
	base *url.URL
}

func NewExtractor(base string) (*Extractor, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return &Extractor{base: u}, nil
}

// firstText evaluates a selector cascade and returns the first non-empty
// trimmed text. A full miss is counted per entity/field.
func firstText(doc *goquery.Document, entity, field string, selectors []string) string {
	for _, sel := range selectors {
		if txt := strings.TrimSpace(doc.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}
	observability.FieldMisses.WithLabelValues(entity, field).Inc()
	return ""
}

func firstTextIn(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		if txt := strings.TrimSpace(sel.Find(s).First().Text()); txt != "" {
			return txt
		}
	}
	return ""
}

// Hospital extracts a best-effort hospital record from a detail page.
func (e *Extractor) Hospital(doc *goquery.Document, pageURL string) domain.HospitalPage {
	h := domain.HospitalPage{
		Name:            cleanTitle(firstText(doc, "hospital", "name", hospitalSelectors["name"])),
		LocationText:    firstText(doc, "hospital", "location", hospitalSelectors["location"]),
		Address:         firstText(doc, "hospital", "address", hospitalSelectors["address"]),
		RatingText:      firstText(doc, "hospital", "rating", hospitalSelectors["rating"]),
		SpecialtiesText: firstText(doc, "hospital", "specialties", hospitalSelectors["specialties"]),
		BedsText:        firstText(doc, "hospital", "beds", hospitalSelectors["beds"]),
		EstablishedText: firstText(doc, "hospital", "established", hospitalSelectors["established"]),
		Description:     firstText(doc, "hospital", "description", hospitalSelectors["description"]),
		FacilitiesText:  firstText(doc, "hospital", "facilities", hospitalSelectors["facilities"]),
		SourceURL:       pageURL,
	}

	body := doc.Find("body").Text()
	if h.BedsText == "" {
		if m := regexp.MustCompile(`(?i)number of beds:?\s*\d+|\d+\s*beds?\b`).FindString(body); m != "" {
			h.BedsText = m
		}
	}
	if h.EstablishedText == "" {
		if m := regexp.MustCompile(`(?i)(?:established|founded)[^.\d]{0,20}\d{4}`).FindString(body); m != "" {
			h.EstablishedText = m
		}
	}
	h.Phone = phoneRe.FindString(body)
	h.Email = emailRe.FindString(body)

	doc.Find("a[href^='http']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if href == "" || strings.Contains(href, e.base.Hostname()) {
			return true
		}
		if strings.Contains(strings.ToLower(href), "hospital") {
			h.Website = href
			return false
		}
		return true
	})

	doc.Find("[class*='accreditation'] li, [class*='accreditation'] span, .accreditations li").Each(func(_ int, s *goquery.Selection) {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			h.Accreditations = append(h.Accreditations, txt)
		}
	})

	if h.Name != "" {
		observability.EntitiesExtracted.WithLabelValues("hospital").Inc()
	}
	return h
}

// Doctors extracts doctor listings from a doctors sub-page or, failing any
// structured section, regex-matches "Dr. <name>" patterns in the page body.
func (e *Extractor) Doctors(doc *goquery.Document) []domain.DoctorListing {
	var out []domain.DoctorListing
	seen := map[string]struct{}{}

	for _, container := range doctorContainerSelectors {
		doc.Find(container).Each(func(_ int, s *goquery.Selection) {
			d := domain.DoctorListing{
				Name:           cleanDoctorName(firstTextIn(s, doctorSelectors["name"])),
				Specialization: firstTextIn(s, doctorSelectors["specialization"]),
				Designation:    firstTextIn(s, doctorSelectors["designation"]),
				ExperienceText: firstTextIn(s, doctorSelectors["experience"]),
				Qualifications: firstTextIn(s, doctorSelectors["qualifications"]),
			}
			if d.Name == "" {
				// container matched but no name selector did; fall back to text
				if m := drNameRe.FindStringSubmatch(s.Text()); m != nil {
					d.Name = strings.TrimSpace(m[1])
				}
			}
			if d.ExperienceText == "" {
				if m := experienceRe.FindString(s.Text()); m != "" {
					d.ExperienceText = m
				}
			}
			if d.Qualifications == "" {
				if quals := qualRe.FindAllString(s.Text(), -1); len(quals) > 0 {
					d.Qualifications = strings.Join(dedupStrings(quals), ", ")
				}
			}
			if href, ok := s.Find("a").First().Attr("href"); ok {
				d.ProfileURL = e.absolute(href)
			}
			if d.Name == "" {
				return
			}
			key := strings.ToLower(d.Name)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			out = append(out, d)
		})
	}

	if len(out) == 0 {
		// no structured doctor section at all: sweep the body text
		for _, m := range drNameRe.FindAllStringSubmatch(doc.Find("body").Text(), -1) {
			name := strings.TrimSpace(m[1])
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, domain.DoctorListing{Name: name})
		}
	}

	observability.EntitiesExtracted.WithLabelValues("doctor").Add(float64(len(out)))
	return out
}

// Treatments extracts treatment cards from a category listing page.
func (e *Extractor) Treatments(doc *goquery.Document, category string) []domain.TreatmentListing {
	var out []domain.TreatmentListing
	seen := map[string]struct{}{}

	for _, container := range treatmentContainerSelectors {
		doc.Find(container).Each(func(_ int, s *goquery.Selection) {
			tr := domain.TreatmentListing{
				Name:         firstTextIn(s, treatmentSelectors["name"]),
				PriceText:    firstTextIn(s, treatmentSelectors["price"]),
				Description:  firstTextIn(s, treatmentSelectors["description"]),
				Duration:     firstTextIn(s, treatmentSelectors["duration"]),
				HospitalText: firstTextIn(s, treatmentSelectors["hospital"]),
				LocationText: firstTextIn(s, treatmentSelectors["location"]),
				Category:     category,
			}
			if tr.Name == "" {
				return
			}
			key := strings.ToLower(tr.Name)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			out = append(out, tr)
		})
	}

	observability.EntitiesExtracted.WithLabelValues("treatment").Add(float64(len(out)))
	return out
}

// EntityLinks harvests candidate detail-page URLs from anchors and from URL
// shapes embedded in script bodies, canonicalized and deduplicated.
func (e *Extractor) EntityLinks(doc *goquery.Document, entity string) []string {
	selectors := hospitalLinkSelectors
	if entity == "treatment" {
		selectors = treatmentLinkSelectors
	}

	seen := map[string]struct{}{}
	var out []string
	add := func(href string) {
		u := e.absolute(href)
		// MatchesEntityURL also rejects listing roots, so a next-page anchor
		// whose query was stripped cannot slip in as a detail page.
		if u == "" || !e.MatchesEntityURL(u, entity) {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				add(href)
			}
		})
	}
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		for _, m := range scriptURLRe.FindAllString(s.Text(), -1) {
			add(m)
		}
	})
	return out
}

// HasNextPage reports whether the page exposes a next-page affordance.
func (e *Extractor) HasNextPage(doc *goquery.Document) bool {
	for _, sel := range nextPageSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// MatchesEntityURL reports whether a URL has the detail-page shape. Both link
// harvesting and sitemap filtering go through it, and listing roots never
// qualify.
func (e *Extractor) MatchesEntityURL(raw, entity string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() != e.base.Hostname() {
		return false
	}
	if entity == "treatment" {
		return treatmentURLRe.MatchString(u.Path)
	}
	// listing roots are not detail pages
	switch strings.Trim(u.Path, "/") {
	case "hospitals", "hospitals/india":
		return false
	}
	return hospitalURLRe.MatchString(u.Path)
}

func (e *Extractor) absolute(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := e.base.ResolveReference(ref)
	if abs.Hostname() != e.base.Hostname() {
		return ""
	}
	abs.Fragment = ""
	abs.RawQuery = ""
	return strings.TrimRight(abs.String(), "/")
}

func cleanTitle(s string) string {
	return strings.TrimSpace(titleSuffixRe.ReplaceAllString(s, ""))
}

func cleanDoctorName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Dr. ")
	s = strings.TrimPrefix(s, "Dr ")
	return strings.TrimSpace(s)
}

func dedupStrings(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		k := strings.ToUpper(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
