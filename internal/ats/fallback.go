package ats

import (
	"regexp"
	"strings"

	"atscore/internal/types"
)

// fallbackKeywordCap bounds the local extractor's output.
const fallbackKeywordCap = 15

// fallbackPattern pairs a detection regex with the canonical casing used in
// the result, so multi-form terms like "node.js"/"nodejs" collapse to one
// entry.
type fallbackPattern struct {
	re        *regexp.Regexp
	canonical string
}

func pat(expr, canonical string) fallbackPattern {
	return fallbackPattern{
		re:        regexp.MustCompile(`(?i)(^|[^a-z0-9])(` + expr + `)($|[^a-z0-9])`),
		canonical: canonical,
	}
}

// fallbackPatterns is the fixed battery scanned by the local extractor:
// languages, frameworks, databases, cloud tooling, methodologies, and soft
// skills commonly named in job descriptions.
var fallbackPatterns = []fallbackPattern{
	// Languages
	pat(`javascript`, "JavaScript"),
	pat(`typescript`, "TypeScript"),
	pat(`python`, "Python"),
	pat(`java`, "Java"),
	pat(`golang|go`, "Go"),
	pat(`ruby`, "Ruby"),
	pat(`php`, "PHP"),
	pat(`c\+\+`, "C++"),
	pat(`c#`, "C#"),
	pat(`swift`, "Swift"),
	pat(`kotlin`, "Kotlin"),
	pat(`rust`, "Rust"),
	pat(`scala`, "Scala"),
	// Frameworks
	pat(`react(\.js|js)?`, "React"),
	pat(`angular`, "Angular"),
	pat(`vue(\.js|js)?`, "Vue.js"),
	pat(`node[\s.-]?js|nodejs`, "Node.js"),
	pat(`next[\s.-]?js`, "Next.js"),
	pat(`django`, "Django"),
	pat(`flask`, "Flask"),
	pat(`spring`, "Spring"),
	pat(`rails`, "Rails"),
	pat(`laravel`, "Laravel"),
	pat(`express`, "Express"),
	pat(`\.net|dotnet`, ".NET"),
	// Databases
	pat(`postgres(ql)?`, "PostgreSQL"),
	pat(`mysql`, "MySQL"),
	pat(`mongodb|mongo`, "MongoDB"),
	pat(`redis`, "Redis"),
	pat(`elasticsearch`, "Elasticsearch"),
	pat(`dynamodb`, "DynamoDB"),
	pat(`cassandra`, "Cassandra"),
	pat(`oracle`, "Oracle"),
	pat(`sql`, "SQL"),
	// Cloud and tooling
	pat(`aws|amazon web services`, "AWS"),
	pat(`azure`, "Azure"),
	pat(`gcp|google cloud`, "GCP"),
	pat(`docker`, "Docker"),
	pat(`kubernetes|k8s`, "Kubernetes"),
	pat(`terraform`, "Terraform"),
	pat(`jenkins`, "Jenkins"),
	pat(`ci/cd|ci-cd`, "CI/CD"),
	pat(`git`, "Git"),
	pat(`linux`, "Linux"),
	// Methodologies
	pat(`agile`, "Agile"),
	pat(`scrum`, "Scrum"),
	pat(`kanban`, "Kanban"),
	pat(`devops`, "DevOps"),
	pat(`tdd|test[\s-]driven`, "TDD"),
	pat(`microservices?`, "Microservices"),
	pat(`graphql`, "GraphQL"),
	pat(`rest(ful)?`, "REST"),
	// Soft skills
	pat(`leadership`, "Leadership"),
	pat(`communication`, "Communication"),
	pat(`teamwork|team player`, "Teamwork"),
	pat(`problem[\s-]solving`, "Problem Solving"),
	pat(`collaboration`, "Collaboration"),
	pat(`mentoring|mentorship`, "Mentoring"),
	pat(`analytical`, "Analytical"),
	pat(`project management`, "Project Management"),
}

// FallbackExtract scans the job description with the fixed pattern battery.
// Results are deduplicated, canonically cased, capped, and bucketed under
// the general category. It is the terminal degrade path and never fails.
func FallbackExtract(jobDescription string) types.ExtractedKeywords {
	seen := make(map[string]bool)
	var keywords []string

	for _, p := range fallbackPatterns {
		if len(keywords) >= fallbackKeywordCap {
			break
		}
		if !p.re.MatchString(jobDescription) {
			continue
		}
		key := strings.ToLower(p.canonical)
		if seen[key] {
			continue
		}
		seen[key] = true
		keywords = append(keywords, p.canonical)
	}

	return types.ExtractedKeywords{
		Keywords:   keywords,
		Categories: types.KeywordCategories{General: keywords},
	}
}
