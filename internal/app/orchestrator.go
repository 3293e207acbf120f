package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"medharvest/internal/adapters/observability"
	"medharvest/internal/domain"
)

// minNameLen mirrors the extractor's guard; records whose name is shorter are
// page chrome, not entities.
const minNameLen = 4

type State int

const (
	StateInit State = iota
	StateDiscovering
	StateExtracting
	StateExtractingDoctors
	StateScrapingTreatments
	StatePersisting
	StateReporting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDiscovering:
		return "discovering"
	case StateExtracting:
		return "extracting"
	case StateExtractingDoctors:
		return "extracting_doctors"
	case StateScrapingTreatments:
		return "scraping_treatments"
	case StatePersisting:
		return "persisting"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Options bounds a single run. Zero values fall back to the defaults below so
// tests can construct a Pipeline with just the collaborators they need.
type Options struct {
	Concurrency int
	BatchDelay  time.Duration
	UpsertBatch int
	ReportDir   string
	ExportCSV   bool
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.UpsertBatch <= 0 {
		o.UpsertBatch = 100
	}
	if o.ReportDir == "" {
		o.ReportDir = "."
	}
	return o
}

// Run is the per-execution context: progress, collected records and the error
// accumulator all live here, never at package level, so concurrent runs and
// tests cannot bleed into each other.
type Run struct {
	StartedAt time.Time
	State     State

	mu         sync.Mutex
	discovered int
	hospitals  []domain.Hospital
	doctors    []domain.Doctor
	treatments []domain.Treatment
	errs       []domain.ScrapeError
}

func newRun() *Run {
	return &Run{StartedAt: time.Now(), State: StateInit}
}

func (r *Run) AddError(url, entity string, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, domain.ScrapeError{
		URL:     url,
		Message: err.Error(),
		Entity:  entity,
		At:      time.Now(),
	})
	r.mu.Unlock()
}

func (r *Run) addHospital(h domain.Hospital) {
	r.mu.Lock()
	r.hospitals = append(r.hospitals, h)
	r.mu.Unlock()
	observability.EntitiesExtracted.WithLabelValues("hospital").Inc()
}

func (r *Run) transition(s State) {
	r.mu.Lock()
	r.State = s
	r.mu.Unlock()
	log.Info().Str("state", s.String()).Msg("pipeline state")
}

// Pipeline drives one harvest end to end. Item-level failures are recorded
// and skipped; only setup failures (discovery returning nothing at all) abort
// the run, and even then a report is still written.
type Pipeline struct {
	harvester domain.Harvester
	store     domain.Store
	geo       domain.Geocoder
	opts      Options
}

func NewPipeline(h domain.Harvester, s domain.Store, g domain.Geocoder, opts Options) *Pipeline {
	return &Pipeline{harvester: h, store: s, geo: g, opts: opts.withDefaults()}
}

func (p *Pipeline) Execute(ctx context.Context) (*Report, error) {
	run := newRun()

	run.transition(StateDiscovering)
	urls, err := p.harvester.DiscoverHospitals(ctx)
	run.mu.Lock()
	run.discovered = len(urls)
	run.mu.Unlock()
	if err != nil && len(urls) == 0 {
		run.AddError("", "hospital", err)
		run.transition(StateAborted)
		rep := p.report(run)
		rep.Write(p.opts.ReportDir, p.opts.ExportCSV)
		return rep, err
	}
	if err != nil {
		// Partial discovery: some strategies failed but we still have URLs.
		run.AddError("", "hospital", err)
	}
	log.Info().Int("urls", len(urls)).Msg("discovery complete")

	run.transition(StateExtracting)
	p.extractHospitals(ctx, run, urls)

	run.transition(StateExtractingDoctors)
	p.extractDoctors(ctx, run)

	run.transition(StateScrapingTreatments)
	p.scrapeTreatments(ctx, run)

	run.transition(StatePersisting)
	p.persist(ctx, run)
	p.linkDoctors(ctx, run)

	run.transition(StateReporting)
	rep := p.report(run)
	rep.Write(p.opts.ReportDir, p.opts.ExportCSV)

	run.transition(StateDone)
	rep.FinalState = StateDone.String()
	return rep, nil
}

// extractHospitals walks the URL list in fixed-size batches. The semaphore
// bounds in-flight fetches; the inter-batch delay keeps pressure off the site.
func (p *Pipeline) extractHospitals(ctx context.Context, run *Run, urls []string) {
	sem := semaphore.NewWeighted(int64(p.opts.Concurrency))

	for start := 0; start < len(urls); start += p.opts.Concurrency {
		if ctx.Err() != nil {
			run.AddError("", "hospital", ctx.Err())
			return
		}
		end := start + p.opts.Concurrency
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for _, u := range urls[start:end] {
			if err := sem.Acquire(ctx, 1); err != nil {
				run.AddError(u, "hospital", err)
				break
			}
			wg.Add(1)
			go func(pageURL string) {
				defer wg.Done()
				defer sem.Release(1)

				page, err := p.harvester.HospitalPage(ctx, pageURL)
				if err != nil {
					log.Warn().Str("url", pageURL).Err(err).Msg("hospital page failed")
					run.AddError(pageURL, "hospital", err)
					return
				}
				h, ok := p.normalizeHospital(ctx, page)
				if !ok {
					log.Debug().Str("url", pageURL).Msg("discarded unnamed hospital page")
					return
				}
				run.addHospital(h)
			}(u)
		}
		wg.Wait()

		if end < len(urls) && p.opts.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				run.AddError("", "hospital", ctx.Err())
				return
			case <-time.After(p.opts.BatchDelay):
			}
		}
	}
}

func (p *Pipeline) extractDoctors(ctx context.Context, run *Run) {
	for _, h := range run.hospitals {
		if ctx.Err() != nil {
			run.AddError("", "doctor", ctx.Err())
			return
		}
		if h.SourceURL == "" {
			continue
		}
		listings, err := p.harvester.DoctorListings(ctx, h.SourceURL)
		if err != nil {
			log.Warn().Str("hospital", h.Name).Err(err).Msg("doctor listings failed")
			run.AddError(h.SourceURL, "doctor", err)
			continue
		}
		for _, l := range listings {
			d, ok := normalizeDoctor(l, h)
			if !ok {
				continue
			}
			run.mu.Lock()
			run.doctors = append(run.doctors, d)
			run.mu.Unlock()
			observability.EntitiesExtracted.WithLabelValues("doctor").Inc()
		}
	}
}

func (p *Pipeline) scrapeTreatments(ctx context.Context, run *Run) {
	cats, err := p.harvester.TreatmentCategories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("treatment categories failed")
		run.AddError("", "treatment", err)
		return
	}
	for _, cat := range cats {
		if ctx.Err() != nil {
			run.AddError("", "treatment", ctx.Err())
			return
		}
		listings, err := p.harvester.TreatmentListings(ctx, cat)
		if err != nil {
			log.Warn().Str("category", cat.Name).Err(err).Msg("treatment listings failed")
			run.AddError(cat.URL, "treatment", err)
			continue
		}
		for _, l := range listings {
			t, ok := normalizeTreatment(l, cat.Name)
			if !ok {
				continue
			}
			run.mu.Lock()
			run.treatments = append(run.treatments, t)
			run.mu.Unlock()
			observability.EntitiesExtracted.WithLabelValues("treatment").Inc()
		}
	}
}

// persist writes each collection in UpsertBatch-sized chunks. A failed chunk
// is recorded and the rest keep going.
func (p *Pipeline) persist(ctx context.Context, run *Run) {
	for _, batch := range chunksOf(run.hospitals, p.opts.UpsertBatch) {
		err := p.store.UpsertHospitals(ctx, batch)
		observability.ObserveUpsertBatch("hospital", err)
		if err != nil {
			log.Error().Int("batch", len(batch)).Err(err).Msg("hospital upsert failed")
			run.AddError("", "hospital", err)
		}
	}
	for _, batch := range chunksOf(run.doctors, p.opts.UpsertBatch) {
		err := p.store.UpsertDoctors(ctx, batch)
		observability.ObserveUpsertBatch("doctor", err)
		if err != nil {
			log.Error().Int("batch", len(batch)).Err(err).Msg("doctor upsert failed")
			run.AddError("", "doctor", err)
		}
	}
	for _, batch := range chunksOf(run.treatments, p.opts.UpsertBatch) {
		err := p.store.UpsertTreatments(ctx, batch)
		observability.ObserveUpsertBatch("treatment", err)
		if err != nil {
			log.Error().Int("batch", len(batch)).Err(err).Msg("treatment upsert failed")
			run.AddError("", "treatment", err)
		}
	}
}

func (p *Pipeline) normalizeHospital(ctx context.Context, page domain.HospitalPage) (domain.Hospital, bool) {
	name := strings.TrimSpace(page.Name)
	if len(name) < minNameLen {
		return domain.Hospital{}, false
	}

	loc := ParseLocation(page.LocationText)
	rating := ParseRating(page.RatingText)

	h := domain.Hospital{
		Name:     name,
		Location: loc,
		Contact: domain.Contact{
			Phone:   strings.TrimSpace(page.Phone),
			Email:   strings.TrimSpace(page.Email),
			Website: strings.TrimSpace(page.Website),
		},
		Specialties:        ParseSpecialties(page.SpecialtiesText),
		Ratings:            domain.Ratings{Overall: rating.Value, TotalReviews: rating.TotalReviews},
		Facilities:         parseFacilities(page.BedsText, page.FacilitiesText),
		Accreditations:     page.Accreditations,
		Description:        strings.TrimSpace(page.Description),
		EstablishedYear:    ParseEstablishedYear(page.EstablishedText),
		IsActive:           true,
		VerificationStatus: domain.VerificationPending,
		SourceURL:          page.SourceURL,
		LastUpdated:        time.Now(),
	}

	if p.geo != nil && h.Location.City != "" && h.Location.Coordinates == nil {
		place := h.Location.City
		if h.Location.Country != "" {
			place += ", " + h.Location.Country
		}
		if c, err := p.geo.Geocode(ctx, place); err != nil {
			log.Debug().Str("place", place).Err(err).Msg("geocode failed")
		} else if c != nil {
			h.Location.Coordinates = c
		}
	}
	return h, true
}

func parseFacilities(bedsText, facilitiesText string) domain.Facilities {
	f := domain.Facilities{BedCount: ParseBedCount(bedsText)}
	low := strings.ToLower(facilitiesText)
	f.EmergencyServices = strings.Contains(low, "emergency")
	imaging := map[string]bool{}
	for _, mod := range []string{"mri", "ct", "x-ray", "ultrasound", "pet"} {
		if strings.Contains(low, mod) {
			imaging[mod] = true
		}
	}
	if len(imaging) > 0 {
		f.Imaging = imaging
	}
	return f
}

func normalizeDoctor(l domain.DoctorListing, h domain.Hospital) (domain.Doctor, bool) {
	name := strings.TrimSpace(l.Name)
	if len(name) < minNameLen {
		return domain.Doctor{}, false
	}

	var specs []string
	for _, s := range ParseSpecialties(l.Specialization) {
		specs = append(specs, s.Name)
	}
	var quals []string
	for _, q := range strings.Split(l.Qualifications, ",") {
		if q = strings.TrimSpace(q); q != "" {
			quals = append(quals, q)
		}
	}

	return domain.Doctor{
		Name:            name,
		Specializations: specs,
		Designation:     strings.TrimSpace(l.Designation),
		ExperienceYears: ParseExperienceYears(l.ExperienceText),
		ExperienceText:  strings.TrimSpace(l.ExperienceText),
		Location:        domain.Location{City: h.Location.City, State: h.Location.State, Country: h.Location.Country},
		HospitalName:    h.Name,
		Qualifications:  quals,
		ProfileURL:      l.ProfileURL,
		LastUpdated:     time.Now(),
	}, true
}

func normalizeTreatment(l domain.TreatmentListing, category string) (domain.Treatment, bool) {
	name := strings.TrimSpace(l.Name)
	if len(name) < minNameLen {
		return domain.Treatment{}, false
	}
	if l.Category != "" {
		category = l.Category
	}
	return domain.Treatment{
		Name:         name,
		Category:     category,
		Description:  strings.TrimSpace(l.Description),
		Price:        ParsePriceRange(l.PriceText),
		Duration:     strings.TrimSpace(l.Duration),
		HospitalName: strings.TrimSpace(l.HospitalText),
		LastUpdated:  time.Now(),
	}, true
}

func chunksOf[T any](in []T, size int) [][]T {
	if len(in) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(in)+size-1)/size)
	for start := 0; start < len(in); start += size {
		end := start + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[start:end])
	}
	return out
}
