package documents

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SummaryRunes is the length of the leading text excerpt.
const SummaryRunes = 1000

// Extraction holds the fields inferred from resume text.
type Extraction struct {
	Skills        []string
	Projects      []string
	Summary       string
	SuggestedRole string
}

var (
	// Labels only count at the start of a line.
	skillsLabel   = regexp.MustCompile(`(?im)^[ \t]*skills[:\s]+`)
	projectsLabel = regexp.MustCompile(`(?im)^[ \t]*projects[:\s]+`)
	blankLine     = regexp.MustCompile(`\n[ \t\r]*\n`)
	afterSkills   = regexp.MustCompile(`(?i)\b(projects|experience|education)\b`)
	afterProjects = regexp.MustCompile(`(?i)\b(skills|experience|education)\b`)
	skillSep      = regexp.MustCompile(`[,\n]`)
	lineSep       = regexp.MustCompile(`\n`)
)

type roleRule struct {
	role     string
	keywords []string
}

// Checked in order; the first group with a matching keyword wins.
var roleRules = []roleRule{
	{"Frontend Engineer", []string{"react", "angular", "vue", "frontend", "javascript", "html", "css"}},
	{"Backend Engineer", []string{"node", "express", "django", "flask", "backend", "api", "java", "c#", "spring"}},
	{"Data Scientist", []string{"data", "ml", "machine learning", "ai", "pandas", "numpy", "scikit", "tensorflow", "pytorch"}},
	{"DevOps Engineer", []string{"devops", "aws", "azure", "docker", "kubernetes", "cloud"}},
	{"Full Stack Engineer", []string{"fullstack", "full-stack"}},
	{"Software Engineer", []string{"software"}},
}

// FallbackRole is suggested when no keyword group matches.
const FallbackRole = "Engineer"

// Extract infers skills, projects, a summary and a suggested role from
// plain resume text.
func Extract(text string) Extraction {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	skills := splitTrimmed(section(text, skillsLabel, afterSkills), skillSep)
	projects := splitTrimmed(section(text, projectsLabel, afterProjects), lineSep)
	role := SuggestRole(skills)
	return Extraction{
		Skills:        skills,
		Projects:      projects,
		Summary:       "Suggested Role: " + role + "\n\n" + excerpt(text, SummaryRunes),
		SuggestedRole: role,
	}
}

// SuggestRole maps skills onto a role label by substring keyword matching.
func SuggestRole(skills []string) string {
	joined := cases.Lower(language.Und).String(strings.Join(skills, ", "))
	for _, rule := range roleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(joined, kw) {
				return rule.role
			}
		}
	}
	return FallbackRole
}

func section(text string, label, siblings *regexp.Regexp) string {
	loc := label.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	rest := text[loc[1]:]
	end := len(rest)
	if m := blankLine.FindStringIndex(rest); m != nil && m[0] < end {
		end = m[0]
	}
	if m := siblings.FindStringIndex(rest); m != nil && m[0] < end {
		end = m[0]
	}
	return rest[:end]
}

func splitTrimmed(span string, sep *regexp.Regexp) []string {
	out := []string{}
	if span == "" {
		return out
	}
	for _, part := range sep.Split(span, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
