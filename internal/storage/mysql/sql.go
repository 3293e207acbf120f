package mysql

// The hospitals upsert never touches the doctors column; that blob is owned
// by ReplaceHospitalDoctors so a re-scrape without doctor pages cannot wipe
// earlier links.
const insertHospitalsPrefix = "INSERT INTO hospitals\n" +
	"  (name, city, state, country, lat, lon, phone, email, website,\n" +
	"   specialties, rating_overall, rating_reviews, rating_categories,\n" +
	"   bed_count, emergency_services, imaging, accreditations,\n" +
	"   description, image_url, established_year, is_active,\n" +
	"   verification_status, source_url)\nVALUES "

// COALESCE keeps the stored value when the new scrape came back empty for a
// nullable field.
const insertHospitalsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  state               = COALESCE(VALUES(state), hospitals.state),\n" +
	"  country             = COALESCE(VALUES(country), hospitals.country),\n" +
	"  lat                 = COALESCE(VALUES(lat), hospitals.lat),\n" +
	"  lon                 = COALESCE(VALUES(lon), hospitals.lon),\n" +
	"  phone               = COALESCE(VALUES(phone), hospitals.phone),\n" +
	"  email               = COALESCE(VALUES(email), hospitals.email),\n" +
	"  website             = COALESCE(VALUES(website), hospitals.website),\n" +
	"  specialties         = VALUES(specialties),\n" +
	"  rating_overall      = COALESCE(VALUES(rating_overall), hospitals.rating_overall),\n" +
	"  rating_reviews      = COALESCE(VALUES(rating_reviews), hospitals.rating_reviews),\n" +
	"  rating_categories   = COALESCE(VALUES(rating_categories), hospitals.rating_categories),\n" +
	"  bed_count           = COALESCE(VALUES(bed_count), hospitals.bed_count),\n" +
	"  emergency_services  = VALUES(emergency_services),\n" +
	"  imaging             = COALESCE(VALUES(imaging), hospitals.imaging),\n" +
	"  accreditations      = VALUES(accreditations),\n" +
	"  description         = COALESCE(VALUES(description), hospitals.description),\n" +
	"  image_url           = COALESCE(VALUES(image_url), hospitals.image_url),\n" +
	"  established_year    = COALESCE(VALUES(established_year), hospitals.established_year),\n" +
	"  is_active           = VALUES(is_active),\n" +
	"  verification_status = VALUES(verification_status),\n" +
	"  source_url          = VALUES(source_url),\n" +
	"  last_updated        = CURRENT_TIMESTAMP\n"

const insertDoctorsPrefix = "INSERT INTO doctors\n" +
	"  (name, specializations, designation, experience_years, experience_text,\n" +
	"   rating_value, rating_reviews, city, state, country, hospital_name,\n" +
	"   hospital_id, qualifications, languages, consultation_fee, profile_url,\n" +
	"   verified)\nVALUES "

// hospital_id survives re-scrapes: linking is a separate pass and a fresh
// extract never carries the id.
const insertDoctorsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  specializations  = VALUES(specializations),\n" +
	"  designation      = COALESCE(VALUES(designation), doctors.designation),\n" +
	"  experience_years = COALESCE(VALUES(experience_years), doctors.experience_years),\n" +
	"  experience_text  = COALESCE(VALUES(experience_text), doctors.experience_text),\n" +
	"  rating_value     = COALESCE(VALUES(rating_value), doctors.rating_value),\n" +
	"  rating_reviews   = COALESCE(VALUES(rating_reviews), doctors.rating_reviews),\n" +
	"  city             = COALESCE(VALUES(city), doctors.city),\n" +
	"  state            = COALESCE(VALUES(state), doctors.state),\n" +
	"  country          = COALESCE(VALUES(country), doctors.country),\n" +
	"  hospital_id      = COALESCE(VALUES(hospital_id), doctors.hospital_id),\n" +
	"  qualifications   = VALUES(qualifications),\n" +
	"  languages        = VALUES(languages),\n" +
	"  consultation_fee = COALESCE(VALUES(consultation_fee), doctors.consultation_fee),\n" +
	"  profile_url      = COALESCE(VALUES(profile_url), doctors.profile_url),\n" +
	"  verified         = VALUES(verified),\n" +
	"  last_updated     = CURRENT_TIMESTAMP\n"

const insertTreatmentsPrefix = "INSERT INTO treatments\n" +
	"  (name, category, department, description, min_price, max_price,\n" +
	"   currency, duration, success_rate, hospital_name, risk_factors,\n" +
	"   age_groups)\nVALUES "

const insertTreatmentsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  category      = COALESCE(VALUES(category), treatments.category),\n" +
	"  department    = COALESCE(VALUES(department), treatments.department),\n" +
	"  description   = COALESCE(VALUES(description), treatments.description),\n" +
	"  min_price     = COALESCE(VALUES(min_price), treatments.min_price),\n" +
	"  max_price     = COALESCE(VALUES(max_price), treatments.max_price),\n" +
	"  currency      = COALESCE(VALUES(currency), treatments.currency),\n" +
	"  duration      = COALESCE(VALUES(duration), treatments.duration),\n" +
	"  success_rate  = COALESCE(VALUES(success_rate), treatments.success_rate),\n" +
	"  hospital_name = COALESCE(VALUES(hospital_name), treatments.hospital_name),\n" +
	"  risk_factors  = VALUES(risk_factors),\n" +
	"  age_groups    = VALUES(age_groups),\n" +
	"  last_updated  = CURRENT_TIMESTAMP\n"

const listHospitalRefsSQL = `
SELECT id, name, city
FROM hospitals
ORDER BY id
`

const listUnlinkedDoctorsSQL = `
SELECT id, name, specializations, designation, experience_years, hospital_name
FROM doctors
WHERE hospital_id IS NULL AND hospital_name <> ''
ORDER BY id
`

const doctorRefsSQL = `
SELECT id, name, specializations, designation, experience_years
FROM doctors
WHERE hospital_id = ?
ORDER BY id
`

const linkDoctorSQL = `
UPDATE doctors
SET hospital_id = ?, last_updated = CURRENT_TIMESTAMP
WHERE id = ?
`

const replaceHospitalDoctorsSQL = `
UPDATE hospitals
SET doctors = ?, last_updated = CURRENT_TIMESTAMP
WHERE id = ?
`
