package site

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"medharvest/internal/domain"
)

// Harvester wires fetching, discovery and extraction into the surface the
// orchestrator drives. It implements domain.Harvester.
type Harvester struct {
	base    string
	fetcher domain.PageFetcher
	client  *Client
	ex      *Extractor
	disc    *Discoverer
}

// doctorPagePaths are tried in order when looking for a hospital's doctors;
// the empty path means the hospital page itself (doctors sometimes only
// appear inline).
var doctorPagePaths = []string{"/doctors", "/team", "/staff", ""}

func NewHarvester(base string, fetcher domain.PageFetcher, client *Client, maxPages int) (*Harvester, error) {
	ex, err := NewExtractor(base)
	if err != nil {
		return nil, fmt.Errorf("bad base url %q: %w", base, err)
	}
	base = strings.TrimRight(base, "/")
	return &Harvester{
		base:    base,
		fetcher: fetcher,
		client:  client,
		ex:      ex,
		disc:    NewDiscoverer(base, fetcher, client, ex, maxPages),
	}, nil
}

func (h *Harvester) DiscoverHospitals(ctx context.Context) ([]string, error) {
	return h.disc.Discover(ctx, "hospital")
}

func (h *Harvester) HospitalPage(ctx context.Context, url string) (domain.HospitalPage, error) {
	doc, err := h.load(ctx, url)
	if err != nil {
		return domain.HospitalPage{}, err
	}
	return h.ex.Hospital(doc, url), nil
}

func (h *Harvester) DoctorListings(ctx context.Context, hospitalURL string) ([]domain.DoctorListing, error) {
	var lastErr error
	loaded := false
	for _, path := range doctorPagePaths {
		doc, err := h.load(ctx, hospitalURL+path)
		if err != nil {
			lastErr = err
			continue
		}
		loaded = true
		if ds := h.ex.Doctors(doc); len(ds) > 0 {
			return ds, nil
		}
	}
	if loaded {
		// pages existed, just no doctors on them
		return nil, nil
	}
	return nil, lastErr
}

func (h *Harvester) TreatmentCategories(ctx context.Context) ([]domain.Category, error) {
	doc, err := h.load(ctx, h.base+"/treatments")
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var cats []domain.Category
	doc.Find("a[href*='/treatments/']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		name := strings.TrimSpace(s.Text())
		u := h.ex.absolute(href)
		if u == "" || name == "" || len(name) < 3 {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		cats = append(cats, domain.Category{Name: name, URL: u})
	})

	if len(cats) == 0 {
		// listing page exposed no category anchors; fall back to the fixed list
		log.Warn().Msg("no treatment categories discovered, using fixed specialty list")
		for _, sp := range specialties {
			cats = append(cats, domain.Category{
				Name: titleCase(strings.ReplaceAll(sp, "-", " ")),
				URL:  h.base + "/treatments/" + sp,
			})
		}
	}
	return cats, nil
}

func (h *Harvester) TreatmentListings(ctx context.Context, cat domain.Category) ([]domain.TreatmentListing, error) {
	doc, err := h.load(ctx, cat.URL)
	if err != nil {
		return nil, err
	}
	return h.ex.Treatments(doc, cat.Name), nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (h *Harvester) load(ctx context.Context, url string) (*goquery.Document, error) {
	html, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
