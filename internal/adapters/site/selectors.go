package site

// Selector cascades, one ordered candidate list per field. Extraction tries
// each selector in turn and keeps the first non-empty text, which tolerates
// markup drift across page templates without per-field branching. These lists
// track a moving target and are expected to need maintenance.

var hospitalSelectors = map[string][]string{
	"name":        {"h1", ".hospital-name", ".page-title", "[class*='hospital-title']", "title"},
	"location":    {".location", ".hospital-location", "[class*='location']", ".address", "[class*='address']"},
	"address":     {".full-address", ".address", "[class*='address']"},
	"rating":      {".rating", ".score", "[class*='rating']", "[class*='score']"},
	"specialties": {".specialties", ".specialty-list", "[class*='specialt']", "[class*='department']"},
	"beds":        {".beds", "[class*='bed']"},
	"established": {".established", "[class*='established']", "[class*='founded']"},
	"description": {".description", ".about", ".overview", "[class*='description']", "[class*='about']"},
	"facilities":  {".facilities", "[class*='facilit']", "[class*='infrastructure']"},
}

var doctorSelectors = map[string][]string{
	"name":           {".doctor-name", "h3", "h4", "[class*='name']"},
	"specialization": {".specialization", ".specialty", "[class*='special']"},
	"designation":    {".designation", "[class*='designation']", "[class*='title']"},
	"experience":     {".experience", "[class*='experience']"},
	"qualifications": {".qualifications", "[class*='qualification']", "[class*='degree']"},
}

var doctorContainerSelectors = []string{
	"[class*='doctor']", "[class*='physician']", "[class*='team-member']", "[class*='staff']", ".profile", ".member",
}

var treatmentSelectors = map[string][]string{
	"name":        {"h2", "h3", "h4", ".treatment-name", "[class*='title']"},
	"price":       {".price", ".cost", "[class*='price']", "[class*='cost']"},
	"description": {".description", "p", "[class*='description']"},
	"duration":    {".duration", "[class*='duration']", "[class*='stay']"},
	"hospital":    {".hospital", "[class*='hospital']"},
	"location":    {".location", "[class*='location']", "[class*='city']"},
}

var treatmentContainerSelectors = []string{
	"[class*='treatment']", "[class*='procedure']", ".card", "article",
}

var hospitalLinkSelectors = []string{
	"a[href*='/hospitals/']", "a[href*='/hospital/']", "a[href*='/hospital-detail/']",
	".hospital-card a", ".hospital-item a", ".listing-item a",
}

var treatmentLinkSelectors = []string{
	"a[href*='/treatments/']", "a[href*='/treatment/']", ".treatment-card a",
}

var nextPageSelectors = []string{
	"a[rel='next']", ".pagination .next", ".pagination a.next", "li.next a",
}

// Administrative regions for the location sweep. A trimmed set of the major
// metros the target indexes; each region is queried independently.
var regions = []string{
	"delhi", "new-delhi", "mumbai", "bangalore", "chennai", "kolkata",
	"hyderabad", "pune", "gurgaon", "noida", "ahmedabad", "jaipur",
	"lucknow", "kochi", "chandigarh", "nagpur", "indore", "bhopal",
	"patna", "vadodara", "coimbatore", "visakhapatnam", "ludhiana", "faridabad",
}

// Medical specialties for the category sweep.
var specialties = []string{
	"cardiology", "cardiac-surgery", "oncology", "orthopedics",
	"joint-replacement", "neurology", "neurosurgery", "gastroenterology",
	"liver-transplant", "urology", "kidney-transplant", "gynecology",
	"ivf", "pediatrics", "ophthalmology", "ent", "nephrology",
	"pulmonology", "dermatology", "plastic-surgery", "spine-surgery",
	"bariatric-surgery", "bone-marrow-transplant", "general-surgery",
}

var sitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}
