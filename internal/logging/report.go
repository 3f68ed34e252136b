// Package logging handles generation of quality report files for validated media artifacts

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/framewell/rendergate/internal/project"
	"github.com/framewell/rendergate/internal/validate"
)

// ============================================================================
// Score Interpretation Functions
// ============================================================================
// These functions interpret component scores and return human-readable
// descriptions, so a report reads as a judgment rather than a number dump.

// interpretScore describes a quality score band.
func interpretScore(score float64) string {
	switch {
	case score >= 0.95:
		return "excellent, no action needed"
	case score >= 0.85:
		return "good, minor imperfections"
	case score >= 0.70:
		return "acceptable, review flagged issues"
	case score >= 0.50:
		return "poor, remediation recommended"
	default:
		return "unacceptable, re-render required"
	}
}

// interpretIssueCount summarizes the issue load of a validation run.
func interpretIssueCount(n int) string {
	switch {
	case n == 0:
		return "no issues detected"
	case n <= 2:
		return fmt.Sprintf("%d issue(s) detected", n)
	case n <= 6:
		return fmt.Sprintf("%d issues detected, inspect before release", n)
	default:
		return fmt.Sprintf("%d issues detected, artifact likely unusable", n)
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate a quality report file
type ReportData struct {
	MediaPath string
	StartTime time.Time
	EndTime   time.Time
	Report    *validate.Report
	Config    validate.Config
	Metadata  *project.Metadata // optional project expectations
}

// GenerateReport creates a detailed quality report and saves it alongside
// the media file. The report filename will be <media>-quality.log
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Verdict - pass/fail with overall score
// 3. Component Scores - aligned table with interpretations
// 4. Issues - ordered by category, with timeline locations
// 5. Recommendations
func GenerateReport(data ReportData) error {
	if data.Report == nil {
		return fmt.Errorf("no validation report to write")
	}

	logPath := strings.TrimSuffix(data.MediaPath, filepath.Ext(data.MediaPath)) + "-quality.log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeVerdict(f, data)
	writeComponentScores(f, data)
	writeIssues(f, data.Report)
	writeRecommendations(f, data.Report)

	return nil
}

// writeReportHeader writes file identity and run timing.
func writeReportHeader(f *os.File, data ReportData) {
	writeSection(f, "Media Quality Report")
	fmt.Fprintf(f, "File:      %s\n", data.MediaPath)
	if data.Metadata != nil && data.Metadata.Title != "" {
		fmt.Fprintf(f, "Project:   %s\n", data.Metadata.Title)
	}
	fmt.Fprintf(f, "Report ID: %s\n", data.Report.ID)
	fmt.Fprintf(f, "Generated: %s\n", data.Report.CreatedAt.Format(time.RFC3339))
	if !data.StartTime.IsZero() && data.EndTime.After(data.StartTime) {
		fmt.Fprintf(f, "Elapsed:   %s\n", data.EndTime.Sub(data.StartTime).Round(time.Millisecond))
	}
	fmt.Fprintln(f)
}

// writeVerdict writes the gate decision.
func writeVerdict(f *os.File, data ReportData) {
	writeSection(f, "Verdict")

	verdict := "PASSED"
	if !data.Report.Passed {
		verdict = "FAILED"
	}
	fmt.Fprintf(f, "%s  (overall score %.2f, threshold %.2f)\n",
		verdict, data.Report.OverallScore, data.Config.PassThreshold)
	if data.Report.HasCritical() {
		fmt.Fprintln(f, "Blocking: at least one critical issue was detected")
	}
	fmt.Fprintf(f, "%s\n\n", interpretIssueCount(len(data.Report.Issues)))
}

// writeComponentScores writes the per-component score table.
func writeComponentScores(f *os.File, data ReportData) {
	writeSection(f, "Component Scores")

	table := NewScoreTable()
	table.AddScoreRow("Visual Coherence", data.Report.VisualScore, data.Config.MinVisualScore,
		interpretScore(data.Report.VisualScore))
	table.AddScoreRow("Audio Quality", data.Report.AudioScore, data.Config.MinAudioScore,
		interpretScore(data.Report.AudioScore))
	table.AddScoreRow("Synchronization", data.Report.SyncScore, data.Config.MinSyncScore,
		interpretScore(data.Report.SyncScore))
	table.AddScoreRow("Overall", data.Report.OverallScore, data.Config.PassThreshold,
		interpretScore(data.Report.OverallScore))

	fmt.Fprintln(f, table.String())
}

// writeIssues lists every detected issue grouped by category, in the
// category order the report itself uses.
func writeIssues(f *os.File, report *validate.Report) {
	writeSection(f, "Issues")

	if len(report.Issues) == 0 {
		fmt.Fprintf(f, "none\n\n")
		return
	}

	for _, category := range []validate.Category{
		validate.CategoryVisualCoherence,
		validate.CategoryAudioQuality,
		validate.CategorySynchronization,
	} {
		issues := report.IssuesIn(category)
		if len(issues) == 0 {
			continue
		}
		fmt.Fprintf(f, "%s:\n", category)
		for _, issue := range issues {
			location := formatSeconds(issue.Location.Seconds)
			if issue.Location.Shot > 0 {
				location += fmt.Sprintf(" (shot %d)", issue.Location.Shot)
			}
			fmt.Fprintf(f, "  [%s] %s at %s: %s\n",
				strings.ToUpper(string(issue.Severity)), issue.ID, location, issue.Description)
		}
	}
	fmt.Fprintln(f)
}

// writeRecommendations lists remediation advice, one line per category.
func writeRecommendations(f *os.File, report *validate.Report) {
	writeSection(f, "Recommendations")

	if len(report.Recommendations) == 0 {
		fmt.Fprintln(f, "none")
		return
	}
	for _, rec := range report.Recommendations {
		fmt.Fprintf(f, "- %s\n", rec)
	}
}
