package validate

import (
	"fmt"
	"math"

	"github.com/framewell/rendergate/internal/media"
	"github.com/framewell/rendergate/internal/project"
)

// Dynamic range band considered healthy for produced dialogue audio, in
// dB between the loudest and quietest non-silent windows. Flat audio
// below the band and wildly swinging audio above it both lose points.
const (
	dynamicRangeFloorDB   = 6.0
	dynamicRangeCeilDB    = 30.0
	dynamicRangeRolloffDB = 30.0
)

// humDominanceRatio is the fraction of silent-region energy that must
// sit at the mains frequency before noise is attributed to hum.
const humDominanceRatio = 0.6

// AudioQualityAnalyzer quantifies noise, silence gaps, level artifacts,
// and dynamic range of the decoded audio track.
type AudioQualityAnalyzer struct {
	cfg     Config
	mainsHz float64
}

// NewAudioQualityAnalyzer returns an analyzer bound to one configuration.
// mainsHz is the local mains frequency used for hum attribution.
func NewAudioQualityAnalyzer(cfg Config, mainsHz int) AudioQualityAnalyzer {
	return AudioQualityAnalyzer{cfg: cfg, mainsHz: float64(mainsHz)}
}

// Analyze scores the amplitude series. A nil or empty signal is the
// degraded path: documented default score plus an informational issue.
func (a AudioQualityAnalyzer) Analyze(sig *media.Signal, meta *project.Metadata) ComponentResult {
	issues := newIssueList(CategoryAudioQuality)

	if sig == nil || len(sig.Samples) == 0 || sig.SampleRate <= 0 {
		issues.Add(SeverityLow, Location{Seconds: 0},
			"no audio signal available (no track or decoding unavailable); using conservative default score")
		return ComponentResult{Score: DefaultAudioScore, Issues: issues.issues}
	}

	windows := rmsWindows(sig, a.cfg.WindowSeconds)
	if len(windows) == 0 {
		issues.Add(SeverityLow, Location{Seconds: 0},
			"audio track too short for windowed analysis; using conservative default score")
		return ComponentResult{Score: DefaultAudioScore, Issues: issues.issues}
	}

	silent := make([]bool, len(windows))
	for i, w := range windows {
		silent[i] = w.rms < a.cfg.SilenceThreshold
	}

	// Gap detection: contiguous silent runs long enough to matter, in
	// regions where the project expected audible content.
	gapSeconds := a.detectGaps(windows, silent, meta, issues)

	// Artifact detection: abrupt energy spikes relative to neighbours.
	artifactCount := a.detectArtifacts(windows, silent, issues)

	dynScore := dynamicRangeScore(windows, silent)

	// Noise estimate: energy variance inside presumed-silent windows.
	noisePenalty := a.noisePenalty(sig, windows, silent, issues)

	gapPenalty := clamp01(4 * gapSeconds / sig.Duration)
	artifactPenalty := clamp01(0.15 * float64(artifactCount))

	wg, wa, wd := a.cfg.AudioGapWeight, a.cfg.AudioArtifactWeight, a.cfg.AudioDynamicsWeight
	score := (wg*(1-gapPenalty) + wa*(1-artifactPenalty) + wd*dynScore) / (wg + wa + wd)
	score = clamp01(score - noisePenalty)

	return ComponentResult{Score: score, Issues: issues.issues}
}

// rmsWindow is one fixed-length analysis window over the signal.
type rmsWindow struct {
	start float64 // seconds
	dur   float64
	rms   float64
}

// rmsWindows partitions the signal into windowSeconds slices and
// computes RMS energy per slice. A trailing partial window is kept when
// it covers at least half a window, otherwise folded into the tail.
func rmsWindows(sig *media.Signal, windowSeconds float64) []rmsWindow {
	winLen := int(windowSeconds * float64(sig.SampleRate))
	if winLen <= 0 {
		return nil
	}

	var windows []rmsWindow
	for off := 0; off < len(sig.Samples); off += winLen {
		end := off + winLen
		if end > len(sig.Samples) {
			end = len(sig.Samples)
		}
		if end-off < winLen/2 && len(windows) > 0 {
			break // ignore a sliver of a final window
		}
		var sumSq float64
		for _, s := range sig.Samples[off:end] {
			sumSq += s * s
		}
		n := end - off
		windows = append(windows, rmsWindow{
			start: float64(off) / float64(sig.SampleRate),
			dur:   float64(n) / float64(sig.SampleRate),
			rms:   math.Sqrt(sumSq / float64(n)),
		})
	}
	return windows
}

// detectGaps reports silence runs exceeding the minimum gap length that
// fall where the project metadata expects audible content. Returns the
// total offending gap duration in seconds.
func (a AudioQualityAnalyzer) detectGaps(windows []rmsWindow, silent []bool, meta *project.Metadata, issues *issueList) float64 {
	var total float64
	i := 0
	for i < len(windows) {
		if !silent[i] {
			i++
			continue
		}
		j := i
		var runDur float64
		for j < len(windows) && silent[j] {
			runDur += windows[j].dur
			j++
		}
		start := windows[i].start
		if runDur >= a.cfg.MinGapSeconds && a.gapUnexpected(start, meta) {
			total += runDur
			shotIdx, _ := meta.ShotAt(start)
			issues.Add(SeverityHigh, Location{Seconds: start, Shot: shotIdx},
				"silence gap of %.1fs where audio was expected", runDur)
		}
		i = j
	}
	return total
}

// gapUnexpected reports whether a silence starting at t counts against
// the artifact. Gaps inside shots that do not expect dialogue, and
// leading/trailing silence outside any declared shot, are tolerated.
func (a AudioQualityAnalyzer) gapUnexpected(t float64, meta *project.Metadata) bool {
	if meta == nil || len(meta.Shots) == 0 {
		return true
	}
	idx, shot := meta.ShotAt(t)
	if idx == 0 {
		return false // before the first or after the last declared shot
	}
	return shot.Dialogue
}

// detectArtifacts flags windows whose energy spikes abruptly past both
// neighbours by the configured multiplicative ratio.
func (a AudioQualityAnalyzer) detectArtifacts(windows []rmsWindow, silent []bool, issues *issueList) int {
	count := 0
	for i := 1; i < len(windows)-1; i++ {
		if silent[i] {
			continue
		}
		neighbour := math.Max(windows[i-1].rms, windows[i+1].rms)
		if neighbour <= 0 {
			neighbour = a.cfg.SilenceThreshold
		}
		if windows[i].rms > a.cfg.ArtifactRatio*neighbour {
			count++
			issues.Add(SeverityMedium, Location{Seconds: windows[i].start},
				"audio level spike (%.0fx surrounding energy), possible artifact", windows[i].rms/neighbour)
		}
	}
	return count
}

// dynamicRangeScore rewards dynamic range inside the healthy band and
// penalizes both flat and excessive range.
func dynamicRangeScore(windows []rmsWindow, silent []bool) float64 {
	minRMS, maxRMS := math.Inf(1), 0.0
	loud := 0
	for i, w := range windows {
		if silent[i] {
			continue
		}
		loud++
		if w.rms < minRMS {
			minRMS = w.rms
		}
		if w.rms > maxRMS {
			maxRMS = w.rms
		}
	}
	if loud < 2 || minRMS <= 0 {
		return 0.5 // not enough evidence either way
	}

	rangeDB := 20 * math.Log10(maxRMS/minRMS)
	switch {
	case rangeDB < dynamicRangeFloorDB:
		return clamp01(rangeDB / dynamicRangeFloorDB)
	case rangeDB <= dynamicRangeCeilDB:
		return 1.0
	default:
		return clamp01(1 - (rangeDB-dynamicRangeCeilDB)/dynamicRangeRolloffDB)
	}
}

// noisePenalty estimates noise from energy variance within presumed-
// silent windows, attributing dominant tonal content to mains hum.
func (a AudioQualityAnalyzer) noisePenalty(sig *media.Signal, windows []rmsWindow, silent []bool, issues *issueList) float64 {
	var silentRMS []float64
	var firstSilent float64
	var silentSamples []float64
	winLen := int(a.cfg.WindowSeconds * float64(sig.SampleRate))
	for i, w := range windows {
		if !silent[i] {
			continue
		}
		if len(silentRMS) == 0 {
			firstSilent = w.start
		}
		silentRMS = append(silentRMS, w.rms)
		off := i * winLen
		end := off + winLen
		if end > len(sig.Samples) {
			end = len(sig.Samples)
		}
		silentSamples = append(silentSamples, sig.Samples[off:end]...)
	}
	if len(silentRMS) < 2 {
		return 0
	}

	var mean float64
	for _, r := range silentRMS {
		mean += r
	}
	mean /= float64(len(silentRMS))
	var variance float64
	for _, r := range silentRMS {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(silentRMS))
	stddev := math.Sqrt(variance)

	// Scale relative to the silence threshold: silence whose energy
	// wobbles near the threshold itself is audibly noisy.
	penalty := clamp01(stddev/a.cfg.SilenceThreshold) * 0.2
	if penalty < 0.02 {
		return 0
	}

	desc := "elevated noise variance in nominally silent regions"
	if humFraction(silentSamples, sig.SampleRate, a.mainsHz) > humDominanceRatio {
		desc += fmt.Sprintf("; tonal content consistent with %.0f Hz mains hum", a.mainsHz)
	}
	issues.Add(SeverityLow, Location{Seconds: firstSilent}, "%s", desc)
	return penalty
}

// humFraction returns the fraction of the samples' energy concentrated
// at freq, via the Goertzel algorithm. Returns 0 for empty input.
func humFraction(samples []float64, sampleRate int, freq float64) float64 {
	n := len(samples)
	if n == 0 || sampleRate <= 0 || freq <= 0 {
		return 0
	}
	var totalPower float64
	for _, s := range samples {
		totalPower += s * s
	}
	totalPower /= float64(n)
	if totalPower <= 0 {
		return 0
	}

	w := 2 * math.Pi * freq / float64(sampleRate)
	coeff := 2 * math.Cos(w)
	var s1, s2 float64
	for _, x := range samples {
		s0 := x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	magSq := s1*s1 + s2*s2 - coeff*s1*s2

	// A pure tone of power P yields magSq ≈ (N²/4)·2P, so normalize by
	// N²/2 · totalPower to land in [0,1].
	return clamp01(2 * magSq / (float64(n) * float64(n) * totalPower))
}
