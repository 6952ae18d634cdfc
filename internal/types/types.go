package types

// ResumeDocument is the resume record produced by the surrounding
// application. Every field is optional: the scorer treats missing or empty
// collections as zero-value inputs, never as errors.
type ResumeDocument struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Location       string           `json:"location"`
	Summary        string           `json:"summary"`
	TargetTitle    string           `json:"targetTitle"`
	JobDescription string           `json:"jobDescription"`
	Experience     []WorkExperience `json:"experience"`
	Education      []Education      `json:"education"`
	Skills         SkillSet         `json:"skills"`
	Projects       []Project        `json:"projects"`
	Certifications []Certification  `json:"certifications"`
}

// WorkExperience represents one employment entry
type WorkExperience struct {
	Position     string   `json:"position"`
	Company      string   `json:"company"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Current      bool     `json:"current"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements"`
}

// Education represents one education entry
type Education struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

// SkillSet groups the flat skill lists from the resume builder
type SkillSet struct {
	General   []string `json:"general"`
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

// Count returns the total number of skills across all lists
func (s SkillSet) Count() int {
	return len(s.General) + len(s.Technical) + len(s.Soft)
}

// All returns every skill in one list, general first
func (s SkillSet) All() []string {
	all := make([]string, 0, s.Count())
	all = append(all, s.General...)
	all = append(all, s.Technical...)
	all = append(all, s.Soft...)
	return all
}

// Project represents one project entry
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
}

// Certification represents one certification entry
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// ExtractKeywordsInput represents the input for keyword extraction
type ExtractKeywordsInput struct {
	JobDescription string `json:"jobDescription"`
}

// KeywordCategories is the categorized keyword record returned by
// extraction. General is the bucket used by the local fallback extractor.
type KeywordCategories struct {
	TechnicalSkills  []string `json:"technicalSkills"`
	SoftSkills       []string `json:"softSkills"`
	Education        []string `json:"education"`
	Responsibilities []string `json:"responsibilities"`
	IndustryTerms    []string `json:"industryTerms"`
	Tools            []string `json:"tools"`
	Certifications   []string `json:"certifications"`
	General          []string `json:"general"`
}

// CategoryNames lists the well-known category names in a stable order.
var CategoryNames = []string{
	"technicalSkills",
	"softSkills",
	"education",
	"responsibilities",
	"industryTerms",
	"tools",
	"certifications",
	"general",
}

// Get returns the keyword list for a well-known category name
func (kc *KeywordCategories) Get(name string) []string {
	switch name {
	case "technicalSkills":
		return kc.TechnicalSkills
	case "softSkills":
		return kc.SoftSkills
	case "education":
		return kc.Education
	case "responsibilities":
		return kc.Responsibilities
	case "industryTerms":
		return kc.IndustryTerms
	case "tools":
		return kc.Tools
	case "certifications":
		return kc.Certifications
	case "general":
		return kc.General
	default:
		return nil
	}
}

// Total returns the number of keywords across all categories
func (kc *KeywordCategories) Total() int {
	total := 0
	for _, name := range CategoryNames {
		total += len(kc.Get(name))
	}
	return total
}

// ExtractedKeywords is the result of a keyword extraction pass, remote or
// local fallback.
type ExtractedKeywords struct {
	Keywords   []string          `json:"keywords"`
	Categories KeywordCategories `json:"categories"`
}

// KeywordBucket holds the found/missing/all split for one scope
type KeywordBucket struct {
	Found   []string `json:"found"`
	Missing []string `json:"missing"`
	All     []string `json:"all"`
}

// CategoryBreakdown carries the per-category found/missing/all split
type CategoryBreakdown struct {
	TechnicalSkills  KeywordBucket `json:"technicalSkills"`
	SoftSkills       KeywordBucket `json:"softSkills"`
	Education        KeywordBucket `json:"education"`
	Responsibilities KeywordBucket `json:"responsibilities"`
	IndustryTerms    KeywordBucket `json:"industryTerms"`
	Tools            KeywordBucket `json:"tools"`
	Certifications   KeywordBucket `json:"certifications"`
	General          KeywordBucket `json:"general"`
}

// Get returns the bucket for a well-known category name
func (cb *CategoryBreakdown) Get(name string) KeywordBucket {
	switch name {
	case "technicalSkills":
		return cb.TechnicalSkills
	case "softSkills":
		return cb.SoftSkills
	case "education":
		return cb.Education
	case "responsibilities":
		return cb.Responsibilities
	case "industryTerms":
		return cb.IndustryTerms
	case "tools":
		return cb.Tools
	case "certifications":
		return cb.Certifications
	case "general":
		return cb.General
	default:
		return KeywordBucket{}
	}
}

// Set stores the bucket for a well-known category name
func (cb *CategoryBreakdown) Set(name string, bucket KeywordBucket) {
	switch name {
	case "technicalSkills":
		cb.TechnicalSkills = bucket
	case "softSkills":
		cb.SoftSkills = bucket
	case "education":
		cb.Education = bucket
	case "responsibilities":
		cb.Responsibilities = bucket
	case "industryTerms":
		cb.IndustryTerms = bucket
	case "tools":
		cb.Tools = bucket
	case "certifications":
		cb.Certifications = bucket
	case "general":
		cb.General = bucket
	}
}

// KeywordAnalysis is the shared keyword context produced once per scoring
// pass and consumed by the sub-scorers and the feedback generator.
type KeywordAnalysis struct {
	Found      []string          `json:"found"`
	Missing    []string          `json:"missing"`
	All        []string          `json:"all"`
	Categories CategoryBreakdown `json:"categories"`
}

// CategoryFeedback is one per-category entry in the score breakdown.
// Priority is "high", "medium", or "low".
type CategoryFeedback struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Priority string `json:"priority"`
}

// ATSScoreResult is the complete scoring output. A fresh value is built for
// every call; callers never receive shared state.
type ATSScoreResult struct {
	GeneralScore     int                `json:"generalScore"`
	JobSpecificScore *int               `json:"jobSpecificScore,omitempty"`
	GeneralFeedback  []CategoryFeedback `json:"generalFeedback"`
	Keywords         KeywordAnalysis    `json:"keywords"`
	Suggestions      []string           `json:"suggestions"`
}
