package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// LegacyCategory is the missing-skill category used for keyword lists
// returned by servers that predate skill categories.
const LegacyCategory = "keywords"

type Result struct {
	Analysis Analysis `json:"analysis"`
	Metrics  Metrics  `json:"metrics"`
	Previews Previews `json:"previews"`

	// Legacy is set when the server answered with the flat
	// score/missing_keywords payload.
	Legacy    bool   `json:"-"`
	RequestID string `json:"-"`
}

type Analysis struct {
	OverallScore      float64     `json:"overall_score"`
	TFIDFSimilarity   float64     `json:"tfidf_similarity"`
	KeywordSimilarity float64     `json:"keyword_similarity"`
	SkillMatch        SkillMatch  `json:"skill_match"`
	ATSKeywords       ATSKeywords `json:"ats_keywords"`
}

type SkillMatch struct {
	MatchPercentage       float64 `json:"match_percentage"`
	RequiredSkillsMatched int     `json:"required_skills_matched"`
	TotalRequiredSkills   int     `json:"total_required_skills"`
	// Missing lists the skills absent from the resume per category, in the
	// order the server sent the categories.
	Missing MissingSkills `json:"missing"`
}

type SkillCategory struct {
	Name   string
	Skills []string
}

type MissingSkills []SkillCategory

// Skills returns the missing skills of category, or nil.
func (m MissingSkills) Skills(category string) []string {
	for _, c := range m {
		if c.Name == category {
			return c.Skills
		}
	}
	return nil
}

// UnmarshalJSON reads a category -> skills object keeping the key order.
// A single skill sent as a scalar is promoted to a list and null
// categories are dropped.
func (m *MissingSkills) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("missing skills: expected an object, got %v", tok)
	}

	var out MissingSkills
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("missing skills %q: %w", name, err)
		}

		if skills := skillNames(value); skills != nil {
			out = append(out, SkillCategory{Name: name, Skills: skills})
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

func skillNames(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if name := scalarString(item); name != "" {
				names = append(names, name)
			}
		}
		return names
	default:
		if name := scalarString(v); name != "" {
			return []string{name}
		}
		return nil
	}
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

type ATSKeywords struct {
	ActionVerbs []string `json:"action_verbs"`
}

type Metrics struct {
	ResumeLength int `json:"resume_length"`
	JDLength     int `json:"jd_length"`
}

type Previews struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
}

type legacyResult struct {
	Score           float64  `json:"score"`
	MissingKeywords []string `json:"missing_keywords"`
	ResumeText      string   `json:"resume_text"`
	JobDescText     string   `json:"job_desc_text"`
}

// DecodeResult parses a successful response body. Numbers sent as strings
// and null members are tolerated. A body reporting failure yields a
// *ServerError.
func DecodeResult(data []byte) (*Result, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}

	if raw == nil {
		return nil, fmt.Errorf("decoding analysis response: empty body")
	}

	if msg, failed := failure(raw); failed {
		return nil, &ServerError{Message: msg}
	}

	if _, ok := raw["analysis"]; !ok {
		if _, legacy := raw["score"]; legacy {
			return decodeLegacy(raw)
		}
	}

	// Category order is lost in raw, so missing skills are read from the
	// body itself.
	dropMissing(raw)

	var result Result
	if err := weakDecode(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}

	var ordered struct {
		Analysis struct {
			SkillMatch struct {
				Missing MissingSkills `json:"missing"`
			} `json:"skill_match"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("decoding missing skills: %w", err)
	}
	result.Analysis.SkillMatch.Missing = ordered.Analysis.SkillMatch.Missing

	return &result, nil
}

func decodeLegacy(raw map[string]any) (*Result, error) {
	var legacy legacyResult
	if err := weakDecode(raw, &legacy); err != nil {
		return nil, fmt.Errorf("decoding legacy analysis response: %w", err)
	}

	result := &Result{
		Legacy: true,
		Analysis: Analysis{
			OverallScore:    legacy.Score,
			TFIDFSimilarity: legacy.Score,
		},
		Previews: Previews{
			Resume:         legacy.ResumeText,
			JobDescription: legacy.JobDescText,
		},
	}

	if len(legacy.MissingKeywords) > 0 {
		result.Analysis.SkillMatch.Missing = MissingSkills{
			{Name: LegacyCategory, Skills: legacy.MissingKeywords},
		}
	}

	return result, nil
}

func dropMissing(raw map[string]any) {
	analysis, _ := raw["analysis"].(map[string]any)
	skillMatch, _ := analysis["skill_match"].(map[string]any)
	delete(skillMatch, "missing")
}

func failure(raw map[string]any) (string, bool) {
	msg, _ := raw["error"].(string)
	msg = strings.TrimSpace(msg)

	if success, ok := raw["success"].(bool); ok && !success {
		if msg == "" {
			msg = DefaultErrorMessage
		}
		return msg, true
	}

	return msg, msg != ""
}

func weakDecode(input any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
