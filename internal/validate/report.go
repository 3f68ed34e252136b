package validate

import (
	"time"

	"github.com/google/uuid"
)

// Report is the immutable quality verdict for one artifact. It is handed
// to the caller once; the validator keeps no state about it.
type Report struct {
	ID        string    `json:"id"`
	MediaPath string    `json:"media_path"`
	CreatedAt time.Time `json:"created_at"`

	OverallScore float64 `json:"overall_score"`
	VisualScore  float64 `json:"visual_coherence_score"`
	AudioScore   float64 `json:"audio_quality_score"`
	SyncScore    float64 `json:"synchronization_score"`

	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`

	Passed bool `json:"passed"`
}

// HasCritical reports whether any issue carries critical severity.
func (r *Report) HasCritical() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// IssuesIn returns the issues belonging to one category, in detection order.
func (r *Report) IssuesIn(category Category) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Category == category {
			out = append(out, issue)
		}
	}
	return out
}

// newReport assembles the final report from joined analyzer results.
func newReport(path string, overall float64, visual, audio, sync ComponentResult, passed bool, recommendations []string) *Report {
	issues := make([]Issue, 0, len(visual.Issues)+len(audio.Issues)+len(sync.Issues))
	issues = append(issues, visual.Issues...)
	issues = append(issues, audio.Issues...)
	issues = append(issues, sync.Issues...)

	return &Report{
		ID:              uuid.NewString(),
		MediaPath:       path,
		CreatedAt:       time.Now().UTC(),
		OverallScore:    overall,
		VisualScore:     visual.Score,
		AudioScore:      audio.Score,
		SyncScore:       sync.Score,
		Issues:          issues,
		Recommendations: recommendations,
		Passed:          passed,
	}
}
