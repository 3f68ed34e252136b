package validate

import (
	"testing"

	"github.com/framewell/rendergate/internal/media"
)

func TestVisualAnalyzerStableFrames(t *testing.T) {
	analyzer := NewVisualAnalyzer(DefaultConfig())

	frames := solidFrames(t, 10, 10.0, 120, 128, 128)
	result := analyzer.Analyze(frames, 10.0)

	requireScoreNear(t, result.Score, 1.0, 1e-9)
	if len(result.Issues) != 0 {
		t.Fatalf("issues = %v, want none for perfectly stable frames", result.Issues)
	}
}

func TestVisualAnalyzerAbruptStyleChange(t *testing.T) {
	analyzer := NewVisualAnalyzer(DefaultConfig())

	// Dark teal for the first half, bright magenta for the second. The
	// histograms share no bins, so the style break is total.
	frames := make([]media.Frame, 0, 10)
	for i := 0; i < 10; i++ {
		ts := float64(i)
		if i < 5 {
			frames = append(frames, solidFrame(t, ts, 16, 128, 128))
		} else {
			frames = append(frames, solidFrame(t, ts, 235, 64, 192))
		}
	}

	result := analyzer.Analyze(frames, 10.0)

	// 8 of 9 adjacent pairs identical, one pair fully dissimilar, and
	// drift between first and last frames is complete.
	requireScoreNear(t, result.Score, 0.7*(8.0/9.0), 1e-6)

	mediums := issuesWithSeverity(result.Issues, SeverityMedium)
	if len(mediums) != 1 {
		t.Fatalf("medium issues = %d, want exactly 1 drift issue", len(mediums))
	}
	if got := mediums[0].Location.Seconds; got != 5.0 {
		t.Fatalf("drift located at %.2fs, want 5.00s (first dissimilar frame)", got)
	}
}

func TestVisualAnalyzerMildChangeBelowThreshold(t *testing.T) {
	analyzer := NewVisualAnalyzer(DefaultConfig())

	// Only the V plane moves; the shift stays under the drift threshold.
	frames := make([]media.Frame, 0, 10)
	for i := 0; i < 10; i++ {
		v := byte(128)
		if i >= 5 {
			v = 192
		}
		frames = append(frames, solidFrame(t, float64(i), 120, 128, v))
	}

	result := analyzer.Analyze(frames, 10.0)

	if len(result.Issues) != 0 {
		t.Fatalf("issues = %v, want none for drift below threshold", result.Issues)
	}
	// Chroma planes carry 1/6 of the descriptor weight each, so the V
	// swap costs exactly that much similarity.
	drift := 1.0 / 6.0
	local := (8.0 + (1.0 - drift)) / 9.0
	requireScoreNear(t, result.Score, 0.7*local+0.3*(1-drift), 1e-6)
}

func TestVisualAnalyzerDegradedPaths(t *testing.T) {
	analyzer := NewVisualAnalyzer(DefaultConfig())

	tests := []struct {
		name      string
		frames    []media.Frame
		wantScore float64
		wantLow   int
	}{
		{
			name:      "no_frames",
			frames:    nil,
			wantScore: DefaultVisualScore,
			wantLow:   1,
		},
		{
			name:      "single_frame",
			frames:    solidFrames(t, 1, 10.0, 120, 128, 128),
			wantScore: 1.0,
			wantLow:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(tt.frames, 10.0)
			requireScoreNear(t, result.Score, tt.wantScore, 1e-9)
			if got := len(issuesWithSeverity(result.Issues, SeverityLow)); got != tt.wantLow {
				t.Fatalf("low issues = %d, want %d", got, tt.wantLow)
			}
		})
	}
}

func TestVisualIssueIdentifiers(t *testing.T) {
	analyzer := NewVisualAnalyzer(DefaultConfig())

	frames := []media.Frame{
		solidFrame(t, 0, 16, 128, 128),
		solidFrame(t, 5, 235, 64, 192),
		solidFrame(t, 9, 200, 32, 32),
	}
	result := analyzer.Analyze(frames, 10.0)

	if len(result.Issues) == 0 {
		t.Fatal("want at least one issue for a total style break")
	}
	for _, issue := range result.Issues {
		if issue.Category != CategoryVisualCoherence {
			t.Fatalf("issue %s category = %s, want %s", issue.ID, issue.Category, CategoryVisualCoherence)
		}
	}
	if result.Issues[0].ID != "V001" {
		t.Fatalf("first issue ID = %s, want V001", result.Issues[0].ID)
	}
}
