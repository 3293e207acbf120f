package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"medharvest/internal/domain"
)

// Empty scraped values are stored as NULL so the COALESCE clauses in the
// upserts can keep previously harvested data.
func nullStr(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
func nullInt(i int) any {
	if i == 0 {
		return nil
	}
	return i
}
func nullF64(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}
func nullInt64p(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func nullIntp(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func jsonCol(v any) any {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertHospitals(ctx context.Context, hs []domain.Hospital) error {
	if len(hs) == 0 {
		return nil
	}
	values := make([]string, 0, len(hs))
	args := make([]any, 0, len(hs)*23)
	for _, h := range hs {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		var lat, lon any
		if c := h.Location.Coordinates; c != nil {
			lat, lon = c.Lat, c.Lon
		}
		status := h.VerificationStatus
		if status == "" {
			status = domain.VerificationPending
		}
		args = append(args,
			h.Name,
			h.Location.City,
			nullStr(h.Location.State),
			nullStr(h.Location.Country),
			lat,
			lon,
			nullStr(h.Contact.Phone),
			nullStr(h.Contact.Email),
			nullStr(h.Contact.Website),
			jsonCol(h.Specialties),
			nullF64(h.Ratings.Overall),
			nullInt(h.Ratings.TotalReviews),
			jsonCol(h.Ratings.Categories),
			nullInt(h.Facilities.BedCount),
			h.Facilities.EmergencyServices,
			jsonCol(h.Facilities.Imaging),
			jsonCol(h.Accreditations),
			nullStr(h.Description),
			nullStr(h.ImageURL),
			nullIntp(h.EstablishedYear),
			h.IsActive,
			status,
			nullStr(h.SourceURL),
		)
	}
	sqlStr := insertHospitalsPrefix + strings.Join(values, ",") + insertHospitalsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) UpsertDoctors(ctx context.Context, ds []domain.Doctor) error {
	if len(ds) == 0 {
		return nil
	}
	values := make([]string, 0, len(ds))
	args := make([]any, 0, len(ds)*17)
	for _, d := range ds {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			d.Name,
			jsonCol(d.Specializations),
			nullStr(d.Designation),
			nullInt(d.ExperienceYears),
			nullStr(d.ExperienceText),
			nullF64(d.Rating.Value),
			nullInt(d.Rating.TotalReviews),
			nullStr(d.Location.City),
			nullStr(d.Location.State),
			nullStr(d.Location.Country),
			d.HospitalName,
			nullInt64p(d.HospitalID),
			jsonCol(d.Qualifications),
			jsonCol(d.Languages),
			nullStr(d.ConsultationFee),
			nullStr(d.ProfileURL),
			d.Verified,
		)
	}
	sqlStr := insertDoctorsPrefix + strings.Join(values, ",") + insertDoctorsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) UpsertTreatments(ctx context.Context, ts []domain.Treatment) error {
	if len(ts) == 0 {
		return nil
	}
	values := make([]string, 0, len(ts))
	args := make([]any, 0, len(ts)*12)
	for _, t := range ts {
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			t.Name,
			nullStr(t.Category),
			nullStr(t.Department),
			nullStr(t.Description),
			nullF64(t.Price.MinPrice),
			nullF64(t.Price.MaxPrice),
			nullStr(t.Price.Currency),
			nullStr(t.Duration),
			nullStr(t.SuccessRate),
			nullStr(t.HospitalName),
			jsonCol(t.RiskFactors),
			jsonCol(t.AgeGroups),
		)
	}
	sqlStr := insertTreatmentsPrefix + strings.Join(values, ",") + insertTreatmentsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) ListHospitalRefs(ctx context.Context) ([]domain.HospitalRef, error) {
	rows, err := r.db.QueryContext(ctx, listHospitalRefsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HospitalRef
	for rows.Next() {
		var ref domain.HospitalRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.City); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *Repo) ListUnlinkedDoctors(ctx context.Context) ([]domain.UnlinkedDoctor, error) {
	rows, err := r.db.QueryContext(ctx, listUnlinkedDoctorsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UnlinkedDoctor
	for rows.Next() {
		var d domain.UnlinkedDoctor
		var specsJSON []byte
		var designation sql.NullString
		var expYears sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Name, &specsJSON, &designation, &expYears, &d.HospitalName); err != nil {
			return nil, err
		}
		if designation.Valid {
			d.Designation = designation.String
		}
		if expYears.Valid {
			d.ExperienceYears = int(expYears.Int64)
		}
		var specs []string
		_ = json.Unmarshal(specsJSON, &specs)
		if len(specs) > 0 {
			d.Specialization = specs[0]
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) DoctorRefs(ctx context.Context, hospitalID int64) ([]domain.DoctorRef, error) {
	rows, err := r.db.QueryContext(ctx, doctorRefsSQL, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DoctorRef
	for rows.Next() {
		var ref domain.DoctorRef
		var specsJSON []byte
		var designation sql.NullString
		var expYears sql.NullInt64
		if err := rows.Scan(&ref.DoctorID, &ref.Name, &specsJSON, &designation, &expYears); err != nil {
			return nil, err
		}
		if designation.Valid {
			ref.Designation = designation.String
		}
		if expYears.Valid {
			ref.ExperienceYears = int(expYears.Int64)
		}
		var specs []string
		_ = json.Unmarshal(specsJSON, &specs)
		if len(specs) > 0 {
			ref.Specialization = specs[0]
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *Repo) LinkDoctor(ctx context.Context, doctorID, hospitalID int64) error {
	_, err := r.db.ExecContext(ctx, linkDoctorSQL, hospitalID, doctorID)
	return err
}

func (r *Repo) ReplaceHospitalDoctors(ctx context.Context, hospitalID int64, refs []domain.DoctorRef) error {
	if refs == nil {
		refs = []domain.DoctorRef{}
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, replaceHospitalDoctorsSQL, string(b), hospitalID)
	return err
}
