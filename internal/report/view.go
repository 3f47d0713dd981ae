package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/resume-matcher/internal/analyzer"
)

const (
	MaxMissingSkills  = 15
	maxPreviewLength  = 1000
	NoPreview         = "No preview available"
	truncatedSuffix   = "... (truncated)"
	excellentMinScore = 80
	goodMinScore      = 60
	moderateMinScore  = 40
)

// Tier groups scores for colouring and status text.
type Tier int

const (
	TierLow Tier = iota
	TierModerate
	TierGood
	TierExcellent
)

func (t Tier) Status() string {
	switch t {
	case TierExcellent:
		return "Excellent Match!"
	case TierGood:
		return "Good Match"
	case TierModerate:
		return "Moderate Match"
	default:
		return "Needs Improvement"
	}
}

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierModerate:
		return "moderate"
	default:
		return "low"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TierFor returns the tier of a 0-100 score.
func TierFor(score int) Tier {
	switch {
	case score >= excellentMinScore:
		return TierExcellent
	case score >= goodMinScore:
		return TierGood
	case score >= moderateMinScore:
		return TierModerate
	default:
		return TierLow
	}
}

type MissingSkill struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// View is an analysis result prepared for display.
type View struct {
	Score  int    `json:"score"`
	Tier   Tier   `json:"tier"`
	Status string `json:"status"`

	TFIDFSimilarity   string `json:"tfidf_similarity"`
	KeywordSimilarity string `json:"keyword_similarity"`
	SkillMatch        string `json:"skill_match"`
	RequiredSkills    string `json:"required_skills"`
	ActionVerbs       int    `json:"action_verbs"`

	MissingSkills []MissingSkill `json:"missing_skills"`

	ResumePreview         string `json:"resume_preview"`
	JobDescriptionPreview string `json:"job_description_preview"`
	ResumeWords           int    `json:"resume_words"`
	JobDescriptionWords   int    `json:"job_description_words"`

	Legacy bool `json:"legacy,omitempty"`
}

// Build turns a server result into a View. A nil result yields the empty view.
func Build(result *analyzer.Result) *View {
	if result == nil {
		result = &analyzer.Result{}
	}

	a := result.Analysis
	score := clampScore(round(a.OverallScore))
	tier := TierFor(score)

	return &View{
		Score:  score,
		Tier:   tier,
		Status: tier.Status(),

		TFIDFSimilarity:   percent(a.TFIDFSimilarity),
		KeywordSimilarity: percent(a.KeywordSimilarity),
		SkillMatch:        percent(a.SkillMatch.MatchPercentage),
		RequiredSkills:    requiredSkills(a.SkillMatch.RequiredSkillsMatched, a.SkillMatch.TotalRequiredSkills),
		ActionVerbs:       len(a.ATSKeywords.ActionVerbs),

		MissingSkills: missingSkills(a.SkillMatch.Missing, MaxMissingSkills),

		ResumePreview:         Preview(result.Previews.Resume),
		JobDescriptionPreview: Preview(result.Previews.JobDescription),
		ResumeWords:           result.Metrics.ResumeLength,
		JobDescriptionWords:   result.Metrics.JDLength,

		Legacy: result.Legacy,
	}
}

// HasMissingSkills reports whether the keyword gap section should be shown.
func (v *View) HasMissingSkills() bool {
	return len(v.MissingSkills) > 0
}

// MissingSkillNames returns the names of the missing skills in display order.
func (v *View) MissingSkillNames() []string {
	names := make([]string, 0, len(v.MissingSkills))
	for _, skill := range v.MissingSkills {
		names = append(names, skill.Name)
	}
	return names
}

// Preview shortens text for display and substitutes a placeholder for empty text.
func Preview(text string) string {
	if text == "" {
		return NoPreview
	}
	if utf8.RuneCountInString(text) <= maxPreviewLength {
		return text
	}
	return string([]rune(text)[:maxPreviewLength]) + truncatedSuffix
}

// CategoryLabel turns a category key such as "programming_languages" into
// "programming languages". Only the first underscore is replaced.
func CategoryLabel(category string) string {
	return strings.ToLower(strings.Replace(category, "_", " ", 1))
}

func missingSkills(missing analyzer.MissingSkills, limit int) []MissingSkill {
	skills := make([]MissingSkill, 0)
	for _, category := range missing {
		label := CategoryLabel(category.Name)
		for _, name := range category.Skills {
			if len(skills) == limit {
				return skills
			}
			skills = append(skills, MissingSkill{Name: name, Category: label})
		}
	}

	return skills
}

func requiredSkills(matched, total int) string {
	if total == 0 {
		total = 1
	}
	pct := round(float64(matched) / float64(total) * 100)
	return fmt.Sprintf("%d/%d (%d%%)", matched, total, pct)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// round rounds half up, matching how scores are rounded in the browser.
func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v + 0.5))
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
