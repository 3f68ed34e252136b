package validate

import (
	"math"
	"testing"

	"github.com/framewell/rendergate/internal/media"
)

// toneSegment describes one stretch of synthetic audio: a sine tone at
// the given amplitude, or silence when amp is zero.
type toneSegment struct {
	start float64 // seconds
	dur   float64
	freq  float64 // Hz; ignored when amp is 0
	amp   float64 // linear peak amplitude
}

// signalOptions configures the synthetic signal built by makeSignal.
type signalOptions struct {
	durationSecs float64
	sampleRate   int
	segments     []toneSegment
	noiseAmp     float64 // deterministic white noise over the whole signal
}

// makeSignal renders the segments into a mono float64 signal. Regions
// not covered by a segment are silent. Noise uses the same LCG scheme
// as the rest of the test suite so runs are reproducible.
func makeSignal(t *testing.T, opts signalOptions) *media.Signal {
	t.Helper()

	if opts.sampleRate == 0 {
		opts.sampleRate = 8000
	}
	total := int(opts.durationSecs * float64(opts.sampleRate))
	samples := make([]float64, total)

	for _, seg := range opts.segments {
		if seg.amp == 0 {
			continue
		}
		lo := int(seg.start * float64(opts.sampleRate))
		hi := int((seg.start + seg.dur) * float64(opts.sampleRate))
		if hi > total {
			hi = total
		}
		for i := lo; i < hi; i++ {
			ts := float64(i) / float64(opts.sampleRate)
			samples[i] += seg.amp * math.Sin(2*math.Pi*seg.freq*ts)
		}
	}

	if opts.noiseAmp > 0 {
		rngState := uint32(12345)
		for i := range samples {
			rngState = rngState*1664525 + 1013904223
			samples[i] += opts.noiseAmp * ((float64(rngState)/float64(0xFFFFFFFF))*2 - 1)
		}
	}

	return &media.Signal{
		Samples:    samples,
		SampleRate: opts.sampleRate,
		Duration:   opts.durationSecs,
	}
}

// solidFrame builds a uniformly colored YUV 4:2:0 frame at ts.
func solidFrame(t *testing.T, ts float64, y, u, v byte) media.Frame {
	t.Helper()

	const w, h = 32, 24
	const cw, ch = (w + 1) / 2, (h + 1) / 2

	frame := media.Frame{
		Timestamp: ts,
		Width:     w,
		Height:    h,
		Y:         make([]byte, w*h),
		U:         make([]byte, cw*ch),
		V:         make([]byte, cw*ch),
		ChromaW:   cw,
		ChromaH:   ch,
	}
	for i := range frame.Y {
		frame.Y[i] = y
	}
	for i := range frame.U {
		frame.U[i] = u
	}
	for i := range frame.V {
		frame.V[i] = v
	}
	return frame
}

// solidFrames builds n identical frames spread uniformly over duration.
func solidFrames(t *testing.T, n int, duration float64, y, u, v byte) []media.Frame {
	t.Helper()

	frames := make([]media.Frame, 0, n)
	for _, ts := range media.SampleTimestamps(duration, n) {
		frames = append(frames, solidFrame(t, ts, y, u, v))
	}
	return frames
}

// issuesWithSeverity filters issues by exact severity.
func issuesWithSeverity(issues []Issue, severity Severity) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// requireScoreNear fails unless got is within tolerance of want.
func requireScoreNear(t *testing.T, got, want, tolerance float64) {
	t.Helper()

	if math.Abs(got-want) > tolerance {
		t.Fatalf("score = %.4f, want %.4f (±%.4f)", got, want, tolerance)
	}
}

// requireScoreInRange fails unless got lies in [0,1].
func requireScoreInRange(t *testing.T, got float64) {
	t.Helper()

	if got < 0 || got > 1 {
		t.Fatalf("score = %.4f, want within [0,1]", got)
	}
}
