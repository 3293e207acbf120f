package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"medharvest/internal/domain"
)

// Report is the run summary artifact. It is informational: writing it can
// fail without affecting anything already persisted.
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Duration    string               `json:"duration"`
	FinalState  string               `json:"final_state"`
	Discovered  int                  `json:"urls_discovered"`
	Hospitals   int                  `json:"hospitals"`
	Doctors     int                  `json:"doctors"`
	Treatments  int                  `json:"treatments"`
	ByCity      map[string]int       `json:"by_city"`
	BySpecialty map[string]int       `json:"by_specialty"`
	Errors      []domain.ScrapeError `json:"errors"`

	hospitals  []domain.Hospital
	doctors    []domain.Doctor
	treatments []domain.Treatment
}

func (p *Pipeline) report(run *Run) *Report {
	run.mu.Lock()
	defer run.mu.Unlock()

	rep := &Report{
		GeneratedAt: time.Now(),
		Duration:    time.Since(run.StartedAt).Round(time.Millisecond).String(),
		FinalState:  run.State.String(),
		Discovered:  run.discovered,
		Hospitals:   len(run.hospitals),
		Doctors:     len(run.doctors),
		Treatments:  len(run.treatments),
		ByCity:      map[string]int{},
		BySpecialty: map[string]int{},
		Errors:      append([]domain.ScrapeError(nil), run.errs...),
		hospitals:   run.hospitals,
		doctors:     run.doctors,
		treatments:  run.treatments,
	}
	for _, h := range run.hospitals {
		if h.Location.City != "" {
			rep.ByCity[h.Location.City]++
		}
		for _, s := range h.Specialties {
			rep.BySpecialty[s.Name]++
		}
	}
	return rep
}

// Write emits the JSON summary and, when enabled, one CSV per collection.
// Failures are logged and swallowed.
func (rep *Report) Write(dir string, exportCSV bool) {
	if err := rep.writeJSON(dir); err != nil {
		log.Warn().Err(err).Msg("report write failed")
	}
	if !exportCSV {
		return
	}
	if err := rep.writeCSVs(dir); err != nil {
		log.Warn().Err(err).Msg("csv export failed")
	}
}

func (rep *Report) writeJSON(dir string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "harvest_report.json"), b, 0o644)
}

func (rep *Report) writeCSVs(dir string) error {
	if err := writeCSV(filepath.Join(dir, "hospitals.csv"),
		[]string{"name", "city", "state", "country", "rating", "reviews", "beds", "established", "specialties", "source_url"},
		len(rep.hospitals), func(i int) []string {
			h := rep.hospitals[i]
			year := ""
			if h.EstablishedYear != nil {
				year = strconv.Itoa(*h.EstablishedYear)
			}
			specs := make([]string, 0, len(h.Specialties))
			for _, s := range h.Specialties {
				specs = append(specs, s.Name)
			}
			return []string{
				h.Name, h.Location.City, h.Location.State, h.Location.Country,
				strconv.FormatFloat(h.Ratings.Overall, 'f', -1, 64),
				strconv.Itoa(h.Ratings.TotalReviews),
				strconv.Itoa(h.Facilities.BedCount),
				year,
				joinSemi(specs),
				h.SourceURL,
			}
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, "doctors.csv"),
		[]string{"name", "specializations", "designation", "experience_years", "hospital", "qualifications", "profile_url"},
		len(rep.doctors), func(i int) []string {
			d := rep.doctors[i]
			return []string{
				d.Name, joinSemi(d.Specializations), d.Designation,
				strconv.Itoa(d.ExperienceYears), d.HospitalName,
				joinSemi(d.Qualifications), d.ProfileURL,
			}
		}); err != nil {
		return err
	}

	return writeCSV(filepath.Join(dir, "treatments.csv"),
		[]string{"name", "category", "min_price", "max_price", "currency", "duration", "hospital"},
		len(rep.treatments), func(i int) []string {
			t := rep.treatments[i]
			return []string{
				t.Name, t.Category,
				strconv.FormatFloat(t.Price.MinPrice, 'f', -1, 64),
				strconv.FormatFloat(t.Price.MaxPrice, 'f', -1, 64),
				t.Price.Currency, t.Duration, t.HospitalName,
			}
		})
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func joinSemi(parts []string) string { return strings.Join(parts, "; ") }
