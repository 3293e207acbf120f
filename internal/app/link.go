package app

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"medharvest/internal/domain"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)

// Suffix words that carry no identity: "Apollo Hospitals Chennai" and
// "Apollo Hospital" should land on the same key.
var hospitalNoise = map[string]struct{}{
	"hospital": {}, "hospitals": {}, "clinic": {}, "clinics": {},
	"centre": {}, "center": {}, "institute": {}, "medical": {},
	"ltd": {}, "pvt": {}, "the": {},
}

func hospitalKey(name string) string {
	s := nonAlnumRe.ReplaceAllString(strings.ToLower(name), " ")
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if _, noise := hospitalNoise[f]; noise {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// matchHospital resolves a doctor's loose hospital-name string against the
// stored refs: exact normalized match first, then substring containment
// either way. Ambiguity or no match returns nil; an unmapped doctor is a
// valid end state.
func matchHospital(refs []domain.HospitalRef, name string) *domain.HospitalRef {
	key := hospitalKey(name)
	if key == "" {
		return nil
	}
	for i := range refs {
		if hospitalKey(refs[i].Name) == key {
			return &refs[i]
		}
	}
	var found *domain.HospitalRef
	for i := range refs {
		rk := hospitalKey(refs[i].Name)
		if rk == "" {
			continue
		}
		if strings.Contains(rk, key) || strings.Contains(key, rk) {
			if found != nil {
				return nil
			}
			found = &refs[i]
		}
	}
	return found
}

// linkDoctors back-fills hospital_id on doctors whose hospital name matches a
// stored hospital, then rebuilds each touched hospital's embedded doctor
// list. Runs after persistence; every failure here is recoverable.
func (p *Pipeline) linkDoctors(ctx context.Context, run *Run) {
	refs, err := p.store.ListHospitalRefs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list hospital refs failed")
		run.AddError("", "doctor", err)
		return
	}
	unlinked, err := p.store.ListUnlinkedDoctors(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("list unlinked doctors failed")
		run.AddError("", "doctor", err)
		return
	}

	touched := make(map[int64]struct{})
	linked := 0
	for _, d := range unlinked {
		ref := matchHospital(refs, d.HospitalName)
		if ref == nil {
			continue
		}
		if err := p.store.LinkDoctor(ctx, d.ID, ref.ID); err != nil {
			log.Warn().Int64("doctor", d.ID).Err(err).Msg("link doctor failed")
			run.AddError("", "doctor", err)
			continue
		}
		touched[ref.ID] = struct{}{}
		linked++
	}

	for hospitalID := range touched {
		drs, err := p.store.DoctorRefs(ctx, hospitalID)
		if err != nil {
			log.Warn().Int64("hospital", hospitalID).Err(err).Msg("load doctor refs failed")
			run.AddError("", "doctor", err)
			continue
		}
		if err := p.store.ReplaceHospitalDoctors(ctx, hospitalID, drs); err != nil {
			log.Warn().Int64("hospital", hospitalID).Err(err).Msg("rebuild doctor refs failed")
			run.AddError("", "doctor", err)
		}
	}
	log.Info().Int("linked", linked).Int("unlinked", len(unlinked)-linked).Msg("doctor linking complete")
}
