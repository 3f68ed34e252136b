package validate

import "fmt"

// Severity classifies how badly an issue compromises the artifact.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// rank orders severities for worst-of comparisons; higher is worse.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other or worse.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// Category names the analyzer domain an issue belongs to. Every issue is
// attributed to exactly one of these; there is no "unknown" category.
type Category string

const (
	CategoryVisualCoherence Category = "visual_coherence"
	CategoryAudioQuality    Category = "audio_quality"
	CategorySynchronization Category = "synchronization"
)

// idPrefix returns the category's issue-identifier prefix (V001, A001, S001).
func (c Category) idPrefix() string {
	switch c {
	case CategoryVisualCoherence:
		return "V"
	case CategoryAudioQuality:
		return "A"
	case CategorySynchronization:
		return "S"
	default:
		return "X"
	}
}

// Location points an issue at a place on the artifact timeline. Shot is
// a 1-based project-metadata shot index, 0 when no shot reference applies.
type Location struct {
	Seconds float64 `json:"seconds"`
	Shot    int     `json:"shot,omitempty"`
}

func (l Location) String() string {
	if l.Shot > 0 {
		return fmt.Sprintf("%.2fs (shot %d)", l.Seconds, l.Shot)
	}
	return fmt.Sprintf("%.2fs", l.Seconds)
}

// Issue is one atomic detected defect. Issues are immutable once created
// and collected in detection order.
type Issue struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
}

// issueList accumulates issues for one category, assigning sequential
// category-prefixed identifiers in detection order.
type issueList struct {
	category Category
	issues   []Issue
}

func newIssueList(category Category) *issueList {
	return &issueList{category: category}
}

// Add appends an issue and assigns its identifier.
func (l *issueList) Add(severity Severity, location Location, format string, args ...any) {
	l.issues = append(l.issues, Issue{
		ID:          fmt.Sprintf("%s%03d", l.category.idPrefix(), len(l.issues)+1),
		Severity:    severity,
		Category:    l.category,
		Description: fmt.Sprintf(format, args...),
		Location:    location,
	})
}

// ComponentResult is one analyzer's verdict: a score in [0,1] plus the
// issues it detected, in detection order.
type ComponentResult struct {
	Score  float64
	Issues []Issue
}

// worstSeverity returns the most severe entry in issues, or "" when empty.
func worstSeverity(issues []Issue) Severity {
	var worst Severity
	for _, issue := range issues {
		if issue.Severity.rank() > worst.rank() {
			worst = issue.Severity
		}
	}
	return worst
}
