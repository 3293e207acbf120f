package app

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"medharvest/internal/adapters/observability"
	"medharvest/internal/domain"
)

var errMissingNameColumn = errors.New(`csv is missing a "Hospital Name" column`)

// Importer bulk-loads hospital rows from a spreadsheet export. Rows pass
// through the same normalizers as scraped pages, so re-importing a file a
// second time updates rows in place.
type Importer struct {
	store domain.Store
	geo   domain.Geocoder
	batch int
}

func NewImporter(store domain.Store, geo domain.Geocoder, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Importer{store: store, geo: geo, batch: batchSize}
}

// ImportHospitals reads CSV rows with the columns Hospital Name, Location,
// Specialty, Rating, Number of Beds, Established Year, Description and
// Image URL. Header matching is case-insensitive; unknown columns are
// ignored and malformed rows are skipped with a logged error. Returns the
// number of rows upserted.
func (im *Importer) ImportHospitals(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["hospital name"]; !ok {
		return 0, errMissingNameColumn
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var pending []domain.Hospital
	imported := 0
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed row")
			continue
		}

		name := field(rec, "hospital name")
		if len(name) < minNameLen {
			log.Warn().Int("line", line).Msg("skipping row without a usable hospital name")
			continue
		}

		rating := ParseRating(field(rec, "rating"))
		h := domain.Hospital{
			Name:               name,
			Location:           ParseLocation(field(rec, "location")),
			Specialties:        ParseSpecialties(field(rec, "specialty")),
			Ratings:            domain.Ratings{Overall: rating.Value, TotalReviews: rating.TotalReviews},
			Facilities:         domain.Facilities{BedCount: ParseBedCount(field(rec, "number of beds"))},
			Description:        field(rec, "description"),
			ImageURL:           field(rec, "image url"),
			EstablishedYear:    ParseEstablishedYear(field(rec, "established year")),
			IsActive:           true,
			VerificationStatus: domain.VerificationPending,
			LastUpdated:        time.Now(),
		}

		if im.geo != nil && h.Location.City != "" {
			place := h.Location.City
			if h.Location.Country != "" {
				place += ", " + h.Location.Country
			}
			if c, gerr := im.geo.Geocode(ctx, place); gerr == nil && c != nil {
				h.Location.Coordinates = c
			}
		}

		pending = append(pending, h)
		if len(pending) >= im.batch {
			n, err := im.flush(ctx, pending)
			imported += n
			if err != nil {
				log.Error().Err(err).Msg("import batch failed")
			}
			pending = pending[:0]
		}
	}

	n, err := im.flush(ctx, pending)
	imported += n
	if err != nil {
		log.Error().Err(err).Msg("import batch failed")
	}
	return imported, nil
}

func (im *Importer) flush(ctx context.Context, batch []domain.Hospital) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	err := im.store.UpsertHospitals(ctx, batch)
	observability.ObserveUpsertBatch("hospital", err)
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}
