package validate

import (
	"math"

	"github.com/framewell/rendergate/internal/media"
	"github.com/framewell/rendergate/internal/project"
)

// syncHardLimitFactor scales the configured maximum offset into the
// hard failure limit. Offsets beyond max but below the hard limit are
// flagged without blocking the gate; at or past the hard limit the
// streams are considered unwatchably out of sync.
const syncHardLimitFactor = 4.0

// durationDeviationRatio is how far the container duration may stray
// from the project's expected duration before it is flagged.
const durationDeviationRatio = 0.05

// SyncAnalyzer compares video and audio stream durations to detect
// end-of-stream drift between the two tracks.
type SyncAnalyzer struct {
	cfg Config
}

func NewSyncAnalyzer(cfg Config) SyncAnalyzer {
	return SyncAnalyzer{cfg: cfg}
}

// Analyze scores A/V alignment from probed stream timing. Missing
// stream info, or a file with only one of the two streams, is the
// degraded path: documented default score plus an informational issue.
func (a SyncAnalyzer) Analyze(info *media.StreamInfo, meta *project.Metadata) ComponentResult {
	issues := newIssueList(CategorySynchronization)

	if info == nil || !info.HasVideo || !info.HasAudio {
		issues.Add(SeverityLow, Location{Seconds: 0},
			"cannot measure synchronization without both a video and an audio stream; using conservative default score")
		return ComponentResult{Score: DefaultSyncScore, Issues: issues.issues}
	}

	offsetMs := math.Abs(info.VideoDuration-info.AudioDuration) * 1000
	hardLimitMs := syncHardLimitFactor * a.cfg.MaxSyncOffsetMs
	endOfStream := math.Min(info.VideoDuration, info.AudioDuration)

	score := clamp01(1 - offsetMs/hardLimitMs)
	switch {
	case offsetMs >= hardLimitMs:
		issues.Add(SeverityCritical, Location{Seconds: endOfStream},
			"audio and video streams end %.0fms apart, far beyond the %.0fms tolerance", offsetMs, a.cfg.MaxSyncOffsetMs)
	case offsetMs > a.cfg.MaxSyncOffsetMs:
		issues.Add(SeverityHigh, Location{Seconds: endOfStream},
			"audio and video streams end %.0fms apart (tolerance %.0fms)", offsetMs, a.cfg.MaxSyncOffsetMs)
	}

	a.checkCuts(info, meta, issues)
	a.checkExpectedDuration(info, meta, issues)

	return ComponentResult{Score: score, Issues: issues.issues}
}

// checkCuts interpolates the end-of-stream drift linearly across the
// timeline and flags the first declared cut point where the implied
// offset already exceeds the tolerance.
func (a SyncAnalyzer) checkCuts(info *media.StreamInfo, meta *project.Metadata, issues *issueList) {
	if meta == nil || len(meta.Cuts) == 0 || info.VideoDuration <= 0 {
		return
	}
	driftRatio := info.AudioDuration / info.VideoDuration
	for _, cut := range meta.Cuts {
		impliedMs := math.Abs(cut*driftRatio-cut) * 1000
		if impliedMs > a.cfg.MaxSyncOffsetMs {
			shotIdx, _ := meta.ShotAt(cut)
			issues.Add(SeverityMedium, Location{Seconds: cut, Shot: shotIdx},
				"implied A/V drift of %.0fms at cut point %.2fs", impliedMs, cut)
			return
		}
	}
}

// checkExpectedDuration flags a container whose duration deviates from
// the project's declared expectation by more than five percent.
func (a SyncAnalyzer) checkExpectedDuration(info *media.StreamInfo, meta *project.Metadata, issues *issueList) {
	if meta == nil || meta.ExpectedDuration <= 0 || info.Duration <= 0 {
		return
	}
	deviation := math.Abs(info.Duration-meta.ExpectedDuration) / meta.ExpectedDuration
	if deviation > durationDeviationRatio {
		issues.Add(SeverityMedium, Location{Seconds: info.Duration},
			"rendered duration %.2fs deviates %.0f%% from the expected %.2fs", info.Duration, deviation*100, meta.ExpectedDuration)
	}
}
