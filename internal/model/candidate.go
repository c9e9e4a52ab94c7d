package model

// Seniority is the bounded seniority level of a candidate.
type Seniority string

const (
	SeniorityIntern   Seniority = "Intern"
	SeniorityEntry    Seniority = "Entry"
	SeniorityJunior   Seniority = "Junior"
	SeniorityMid      Seniority = "Mid"
	SenioritySenior   Seniority = "Senior"
	SeniorityLead     Seniority = "Lead"
	SeniorityManager  Seniority = "Manager"
	SeniorityDirector Seniority = "Director"
	SeniorityVP       Seniority = "VP"
	SeniorityCLevel   Seniority = "C-Level"
)

// AllSeniorities returns every valid seniority level, junior to senior.
func AllSeniorities() []Seniority {
	return []Seniority{
		SeniorityIntern, SeniorityEntry, SeniorityJunior, SeniorityMid,
		SenioritySenior, SeniorityLead, SeniorityManager, SeniorityDirector,
		SeniorityVP, SeniorityCLevel,
	}
}

// Valid reports whether s is one of the known seniority levels.
// The empty value is accepted: not every profile carries a seniority.
func (s Seniority) Valid() bool {
	if s == "" {
		return true
	}
	for _, v := range AllSeniorities() {
		if s == v {
			return true
		}
	}
	return false
}

// BusinessModel classifies the go-to-market model of an experience's company.
type BusinessModel string

const (
	BusinessModelB2B   BusinessModel = "B2B"
	BusinessModelB2C   BusinessModel = "B2C"
	BusinessModelB2B2C BusinessModel = "B2B2C"
	BusinessModelC2C   BusinessModel = "C2C"
	BusinessModelB2G   BusinessModel = "B2G"
)

// Candidate is one enriched LinkedIn profile as loaded from the candidate
// store. LinkedInURL is the stable identifier; ProfilePic is derived at read
// time and never stored.
type Candidate struct {
	LinkedInURL     string       `json:"linkedin_url"`
	Name            string       `json:"name"`
	Headline        string       `json:"headline,omitempty"`
	Location        string       `json:"location,omitempty"`
	Seniority       Seniority    `json:"seniority,omitempty"`
	Skills          []string     `json:"skills,omitempty"`
	YearsExperience float64      `json:"years_experience"`
	AverageTenure   float64      `json:"average_tenure,omitempty"`
	WorkedAtStartup bool         `json:"worked_at_startup"`
	ConnectedTo     []string     `json:"connected_to,omitempty"`
	Experiences     []Experience `json:"experiences,omitempty"`
	Education       []Education  `json:"education,omitempty"`
	ProfilePic      string       `json:"profile_pic,omitempty"`
}

// Experience is a single position, most-recent-first in Candidate.Experiences.
// Position 0 is treated as the current role.
type Experience struct {
	Org           string        `json:"org"`
	Title         string        `json:"title"`
	Summary       string        `json:"summary,omitempty"`
	ShortSummary  string        `json:"short_summary,omitempty"`
	Location      string        `json:"location,omitempty"`
	CompanySkills []string      `json:"company_skills,omitempty"`
	BusinessModel BusinessModel `json:"business_model,omitempty"`
	ProductType   string        `json:"product_type,omitempty"`
	IndustryTags  []string      `json:"industry_tags,omitempty"`
}

// Education is a single school entry.
type Education struct {
	School string `json:"school"`
	Degree string `json:"degree,omitempty"`
	Field  string `json:"field,omitempty"`
}
