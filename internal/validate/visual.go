package validate

import (
	"math"

	"github.com/framewell/rendergate/internal/media"
)

// Histogram bin counts per plane. Luma gets finer resolution than chroma
// since grading shifts show up strongest in tone distribution.
const (
	lumaBins   = 16
	chromaBins = 8
)

// VisualAnalyzer quantifies whether visual style (palette, tonal
// framing) stays consistent across the artifact's duration.
type VisualAnalyzer struct {
	cfg Config
}

// NewVisualAnalyzer returns an analyzer bound to one configuration.
func NewVisualAnalyzer(cfg Config) VisualAnalyzer {
	return VisualAnalyzer{cfg: cfg}
}

// Analyze scores coherence from uniformly sampled frames. An empty frame
// set is the degraded path: documented default score plus an
// informational issue. duration is the artifact duration used to
// locate drift issues.
func (a VisualAnalyzer) Analyze(frames []media.Frame, duration float64) ComponentResult {
	issues := newIssueList(CategoryVisualCoherence)

	if len(frames) == 0 {
		issues.Add(SeverityLow, Location{Seconds: 0},
			"no frames available (no video stream or frame decoding unavailable); using conservative default score")
		return ComponentResult{Score: DefaultVisualScore, Issues: issues.issues}
	}

	if len(frames) < 2 {
		// One frame means no comparisons are possible. Perfect
		// consistency by definition, but flag the thin evidence.
		issues.Add(SeverityLow, Location{Seconds: 0},
			"only %d frame sampled; insufficient data for a coherence judgment", len(frames))
		return ComponentResult{Score: 1.0, Issues: issues.issues}
	}

	hists := make([][]float64, len(frames))
	for i := range frames {
		hists[i] = colorHistogram(&frames[i])
	}

	// Local consistency: mean similarity between temporally adjacent
	// sampled frames.
	var localSum float64
	minAdjacentSim := math.Inf(1)
	minAdjacentAt := frames[len(frames)/2].Timestamp
	for i := 0; i < len(hists)-1; i++ {
		sim := histogramSimilarity(hists[i], hists[i+1])
		localSum += sim
		if sim < minAdjacentSim {
			minAdjacentSim = sim
			minAdjacentAt = frames[i+1].Timestamp
		}
	}
	localConsistency := localSum / float64(len(hists)-1)

	// Global drift: how far the closing look has moved from the opening.
	drift := 1 - histogramSimilarity(hists[0], hists[len(hists)-1])

	if drift > a.cfg.DriftThreshold {
		// Locate the issue at the first adjacent similarity collapse if
		// one exists, otherwise at the artifact midpoint.
		at := duration / 2
		if minAdjacentSim < 1-a.cfg.DriftThreshold {
			at = minAdjacentAt
		}
		issues.Add(SeverityMedium, Location{Seconds: at},
			"visual style drifts %.0f%% between first and last sampled frames", drift*100)
	}

	wl, wd := a.cfg.VisualLocalWeight, a.cfg.VisualDriftWeight
	score := clamp01((wl*localConsistency + wd*(1-drift)) / (wl + wd))

	return ComponentResult{Score: score, Issues: issues.issues}
}

// colorHistogram computes a normalized color-distribution descriptor:
// a luma histogram concatenated with chroma histograms when present.
func colorHistogram(f *media.Frame) []float64 {
	bins := make([]float64, lumaBins+2*chromaBins)

	for _, v := range f.Y {
		bins[int(v)*lumaBins/256]++
	}
	for _, v := range f.U {
		bins[lumaBins+int(v)*chromaBins/256]++
	}
	for _, v := range f.V {
		bins[lumaBins+chromaBins+int(v)*chromaBins/256]++
	}

	total := float64(len(f.Y) + len(f.U) + len(f.V))
	if total == 0 {
		return bins
	}
	for i := range bins {
		bins[i] /= total
	}
	return bins
}

// histogramSimilarity is the histogram intersection of two normalized
// descriptors, in [0,1] with 1 meaning identical distributions.
func histogramSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sim float64
	for i := 0; i < n; i++ {
		sim += math.Min(a[i], b[i])
	}
	return clamp01(sim)
}
