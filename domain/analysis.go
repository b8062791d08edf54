package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// NameNotProvided is stored when the evaluator could not find a name.
	NameNotProvided = "Not Provided"
	// nameNotFound is the marker the evaluator itself is prompted to emit.
	nameNotFound = "name not found"

	// SentinelBucket marks an analysis produced by the error path instead
	// of a genuine low score.
	SentinelBucket = "Error"
)

// FitScore tolerates the number formats an LLM actually returns: integers,
// floats and quoted numbers all land as an int.
type FitScore int

func (s *FitScore) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = FitScore(int(f))
	return nil
}

// SkillMatrix lists job-description skills the candidate has and misses.
type SkillMatrix struct {
	Matches []string `json:"matches"`
	Gaps    []string `json:"gaps"`
}

// TimelineEntry is one role in the candidate's history.
type TimelineEntry struct {
	Period  string `json:"period"`
	Role    string `json:"role"`
	Details string `json:"details"`
}

// Logistics carries the practical hiring details pulled from the resume.
type Logistics struct {
	Compensation      string `json:"compensation,omitempty"`
	NoticePeriod      string `json:"notice_period,omitempty"`
	WorkAuthorization string `json:"work_authorization,omitempty"`
	Location          string `json:"location,omitempty"`
}

// ResumeAnalysis is the structured evaluation returned by the external
// model. Every field is optional: the payload comes from a partially
// trusted evaluator and must survive missing or malformed members.
type ResumeAnalysis struct {
	CandidateName string          `json:"candidate_name"`
	FitScore      FitScore        `json:"fit_score"`
	Bucket        string          `json:"bucket"`
	Reasoning     string          `json:"reasoning"`
	SummaryPoints []string        `json:"summary_points"`
	SkillMatrix   SkillMatrix     `json:"skill_matrix"`
	Timeline      []TimelineEntry `json:"timeline"`
	Logistics     Logistics       `json:"logistics"`
}

// SentinelAnalysis is the payload recorded when the evaluation call fails.
// It is well formed but explicitly marked, so a remote failure is never
// confused with a genuinely low score. Sentinels are never persisted.
func SentinelAnalysis() ResumeAnalysis {
	return ResumeAnalysis{
		FitScore:      0,
		Bucket:        SentinelBucket,
		Reasoning:     "An error occurred during analysis.",
		SummaryPoints: []string{},
		SkillMatrix:   SkillMatrix{Matches: []string{}, Gaps: []string{}},
		Timeline:      []TimelineEntry{},
	}
}

func (a ResumeAnalysis) IsSentinel() bool {
	return a.Bucket == SentinelBucket
}

// NormalizeCandidateName maps the evaluator's "not found" marker (and
// blanks) to the NameNotProvided sentinel.
func NormalizeCandidateName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, nameNotFound) {
		return NameNotProvided
	}
	return trimmed
}

// ParseAnalysis decodes an evaluation payload, filling nil slices so
// downstream consumers never see null where a list belongs.
func ParseAnalysis(raw []byte) (ResumeAnalysis, error) {
	var a ResumeAnalysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return ResumeAnalysis{}, err
	}
	if a.SummaryPoints == nil {
		a.SummaryPoints = []string{}
	}
	if a.SkillMatrix.Matches == nil {
		a.SkillMatrix.Matches = []string{}
	}
	if a.SkillMatrix.Gaps == nil {
		a.SkillMatrix.Gaps = []string{}
	}
	if a.Timeline == nil {
		a.Timeline = []TimelineEntry{}
	}
	return a, nil
}
