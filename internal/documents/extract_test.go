package documents

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSkillsSuggestFrontend(t *testing.T) {
	text := "Jane Doe\nSkills: React, Node.js, CSS\n\nProjects:\nPortfolio site\nChat app\n"
	got := Extract(text)

	assert.Equal(t, []string{"React", "Node.js", "CSS"}, got.Skills)
	assert.Equal(t, []string{"Portfolio site", "Chat app"}, got.Projects)
	assert.Equal(t, "Frontend Engineer", got.SuggestedRole)
	assert.True(t, strings.HasPrefix(got.Summary, "Suggested Role: Frontend Engineer\n\n"))
}

func TestExtractIgnoresLabelsInProse(t *testing.T) {
	text := "I have strong communication skills and teamwork.\nSkills: Docker, Kubernetes\n\nSide projects are listed below.\n  Projects:\nHomelab\n"
	got := Extract(text)

	assert.Equal(t, []string{"Docker", "Kubernetes"}, got.Skills)
	assert.Equal(t, []string{"Homelab"}, got.Projects)
	assert.Equal(t, "DevOps Engineer", got.SuggestedRole)
}

func TestExtractWithoutSections(t *testing.T) {
	got := Extract("Just a cover letter with nothing structured.")

	require.NotNil(t, got.Skills)
	require.NotNil(t, got.Projects)
	assert.Empty(t, got.Skills)
	assert.Empty(t, got.Projects)
	assert.Equal(t, FallbackRole, got.SuggestedRole)
}

func TestExtractSectionStopsAtSiblingLabel(t *testing.T) {
	text := "SKILLS docker\nkubernetes\nExperience\nAcme Corp"
	got := Extract(text)
	assert.Equal(t, []string{"docker", "kubernetes"}, got.Skills)
	assert.Equal(t, "DevOps Engineer", got.SuggestedRole)
}

func TestSuggestRolePriority(t *testing.T) {
	cases := []struct {
		skills []string
		want   string
	}{
		{[]string{"Vue", "Django"}, "Frontend Engineer"},
		{[]string{"Express", "Postgres"}, "Backend Engineer"},
		{[]string{"Pandas", "NumPy"}, "Data Scientist"},
		{[]string{"Terraform", "AWS"}, "DevOps Engineer"},
		{[]string{"Full-Stack"}, "Full Stack Engineer"},
		{[]string{"Software testing"}, "Software Engineer"},
		{[]string{"Welding"}, FallbackRole},
		{nil, FallbackRole},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SuggestRole(tc.skills), "skills %v", tc.skills)
	}
}

func TestExtractSummaryTruncatesRunes(t *testing.T) {
	text := strings.Repeat("é", SummaryRunes+50)
	got := Extract(text)
	body := strings.TrimPrefix(got.Summary, "Suggested Role: "+FallbackRole+"\n\n")
	assert.Equal(t, SummaryRunes, len([]rune(body)))
}

func TestStorageKeyAndDisposition(t *testing.T) {
	assert.Equal(t, ".pdf", sanitizeExt(`C:\docs\Resume.PDF`))
	assert.Equal(t, "", sanitizeExt("noext"))
	assert.Equal(t, "", sanitizeExt("evil.p$f"))
	assert.Equal(t, `attachment; filename="cv.pdf"`, ContentDisposition("../../cv.pdf"))
	assert.Equal(t, `attachment; filename="download"`, ContentDisposition(`"`))
	assert.True(t, IsPDF("application/pdf; charset=binary"))
	assert.False(t, IsPDF("text/plain"))

	key := NewStorageKey(time.UnixMilli(1_700_000_000_000), "Resume.PDF")
	assert.True(t, strings.HasPrefix(key, "1700000000000-"))
	assert.True(t, IsStorageKey(key))
	assert.True(t, IsStorageKey(NewStorageKey(time.Now(), "noext")))
	assert.False(t, IsStorageKey("notes.txt"))
	assert.False(t, IsStorageKey("1700000000000-not-a-uuid.pdf"))
	assert.False(t, IsStorageKey(strings.TrimSuffix(key, ".pdf")+".PDF"))
}
