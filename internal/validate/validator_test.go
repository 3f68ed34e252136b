package validate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/framewell/rendergate/internal/media"
)

type fakeProber struct {
	info *media.StreamInfo
	err  error
}

func (f fakeProber) Probe(string) (*media.StreamInfo, error) { return f.info, f.err }

type fakeFrameDecoder struct {
	frames []media.Frame
	err    error
	panics bool
}

func (f fakeFrameDecoder) SampleFrames(string, int) ([]media.Frame, error) {
	if f.panics {
		panic("decoder blew up")
	}
	return f.frames, f.err
}

type fakeAudioDecoder struct {
	sig *media.Signal
	err error
}

func (f fakeAudioDecoder) DecodeAudio(string) (*media.Signal, error) { return f.sig, f.err }

// tempMediaFile creates a placeholder file so path checks pass; the
// fake decoders never read it.
func tempMediaFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "render.mp4")
	if err := os.WriteFile(path, []byte("placeholder"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// cleanSignal alternates loud and quiet seconds so the audio analyzer
// scores it perfectly.
func cleanSignal(t *testing.T, duration float64) *media.Signal {
	t.Helper()

	var segments []toneSegment
	for i := 0; i < int(duration); i++ {
		amp := 0.15
		if i%2 == 1 {
			amp = 0.45
		}
		segments = append(segments, toneSegment{start: float64(i), dur: 1, freq: 440, amp: amp})
	}
	return makeSignal(t, signalOptions{durationSecs: duration, segments: segments})
}

func goodFakesValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()

	base := []Option{
		WithProber(fakeProber{info: &media.StreamInfo{
			Duration:      10,
			HasVideo:      true,
			VideoDuration: 10,
			FrameRate:     25,
			HasAudio:      true,
			AudioDuration: 10,
			SampleRate:    8000,
		}}),
		WithFrameDecoder(fakeFrameDecoder{frames: solidFrames(t, 10, 10, 120, 128, 128)}),
		WithAudioDecoder(fakeAudioDecoder{sig: cleanSignal(t, 10)}),
		WithMainsFrequency(50),
	}
	return NewValidator(append(base, opts...)...)
}

func TestValidateCleanArtifactPasses(t *testing.T) {
	v := goodFakesValidator(t)
	path := tempMediaFile(t)

	report, err := v.Validate(context.Background(), path, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !report.Passed {
		t.Fatalf("passed = false for a clean artifact; issues = %v", report.Issues)
	}
	requireScoreNear(t, report.OverallScore, 1.0, 1e-6)
	requireScoreNear(t, report.VisualScore, 1.0, 1e-6)
	requireScoreNear(t, report.AudioScore, 1.0, 1e-6)
	requireScoreNear(t, report.SyncScore, 1.0, 1e-6)
	if len(report.Issues) != 0 {
		t.Fatalf("issues = %v, want none", report.Issues)
	}
	if len(report.Recommendations) != 0 {
		t.Fatalf("recommendations = %v, want none", report.Recommendations)
	}
	if report.ID == "" || report.MediaPath != path || report.CreatedAt.IsZero() {
		t.Fatalf("report metadata incomplete: %+v", report)
	}
}

func TestValidateStageSequence(t *testing.T) {
	var stages []Stage
	v := goodFakesValidator(t, WithStageFunc(func(s Stage) { stages = append(stages, s) }))

	if _, err := v.Validate(context.Background(), tempMediaFile(t), nil, DefaultConfig()); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := []Stage{StageNotStarted, StageExtractingSignals, StageAnalyzing, StageAggregating, StageComplete}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage[%d] = %s, want %s", i, stages[i], want[i])
		}
	}
}

func TestValidateUnreadablePath(t *testing.T) {
	v := goodFakesValidator(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing_file", path: filepath.Join(t.TempDir(), "nope.mp4")},
		{name: "directory", path: t.TempDir()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := v.Validate(context.Background(), tt.path, nil, DefaultConfig())
			if err == nil {
				t.Fatal("want an error for an unreadable path")
			}
			if report != nil {
				t.Fatalf("report = %+v, want nil on fatal error", report)
			}
		})
	}
}

func TestValidateInvalidConfig(t *testing.T) {
	v := goodFakesValidator(t)

	cfg := DefaultConfig()
	cfg.PassThreshold = 1.5

	if _, err := v.Validate(context.Background(), tempMediaFile(t), nil, cfg); err == nil {
		t.Fatal("want an error for an invalid configuration")
	}
}

func TestValidateCancelledContext(t *testing.T) {
	v := goodFakesValidator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := v.Validate(ctx, tempMediaFile(t), nil, DefaultConfig()); err == nil {
		t.Fatal("want an error when the context is already cancelled")
	}
}

func TestValidateDecoderPanicIsContained(t *testing.T) {
	v := goodFakesValidator(t, WithFrameDecoder(fakeFrameDecoder{panics: true}))

	report, err := v.Validate(context.Background(), tempMediaFile(t), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	requireScoreNear(t, report.VisualScore, DefaultVisualScore, 1e-9)
	if len(report.IssuesIn(CategoryVisualCoherence)) == 0 {
		t.Fatal("want an informational visual issue after decoder failure")
	}
	// The other components are unaffected.
	requireScoreNear(t, report.AudioScore, 1.0, 1e-6)
	requireScoreNear(t, report.SyncScore, 1.0, 1e-9)
}

func TestValidateDegradedComponentsUseDefaults(t *testing.T) {
	v := goodFakesValidator(t,
		WithProber(fakeProber{err: media.ErrNoVideoStream}),
		WithFrameDecoder(fakeFrameDecoder{err: media.ErrDecoderUnavailable}),
		WithAudioDecoder(fakeAudioDecoder{err: media.ErrDecoderUnavailable}),
	)

	report, err := v.Validate(context.Background(), tempMediaFile(t), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	requireScoreNear(t, report.VisualScore, DefaultVisualScore, 1e-9)
	requireScoreNear(t, report.AudioScore, DefaultAudioScore, 1e-9)
	requireScoreNear(t, report.SyncScore, DefaultSyncScore, 1e-9)

	want := (DefaultVisualScore + DefaultAudioScore + DefaultSyncScore) / 3
	requireScoreNear(t, report.OverallScore, want, 1e-9)

	for _, category := range []Category{CategoryVisualCoherence, CategoryAudioQuality, CategorySynchronization} {
		if len(report.IssuesIn(category)) == 0 {
			t.Fatalf("want an informational issue for degraded category %s", category)
		}
	}
}

func TestValidateCriticalSyncBlocks(t *testing.T) {
	v := goodFakesValidator(t, WithProber(fakeProber{info: &media.StreamInfo{
		Duration:      10,
		HasVideo:      true,
		VideoDuration: 10,
		HasAudio:      true,
		AudioDuration: 12, // two seconds of drift
		SampleRate:    8000,
	}}))

	report, err := v.Validate(context.Background(), tempMediaFile(t), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !report.HasCritical() {
		t.Fatalf("issues = %v, want a critical synchronization issue", report.Issues)
	}
	if report.Passed {
		t.Fatal("passed = true despite a critical issue")
	}
}

func TestValidateBelowMinimumFlagsAndRecommends(t *testing.T) {
	// Silent audio scores well under the audio minimum.
	v := goodFakesValidator(t, WithAudioDecoder(fakeAudioDecoder{
		sig: makeSignal(t, signalOptions{durationSecs: 10}),
	}))

	report, err := v.Validate(context.Background(), tempMediaFile(t), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var belowMin bool
	for _, issue := range report.IssuesIn(CategoryAudioQuality) {
		if issue.Severity == SeverityMedium && strings.Contains(issue.Description, "below the required minimum") {
			belowMin = true
		}
	}
	if !belowMin {
		t.Fatalf("issues = %v, want a below-minimum audio issue", report.Issues)
	}

	if len(report.Recommendations) != 1 {
		t.Fatalf("recommendations = %v, want exactly one (audio)", report.Recommendations)
	}
	if !strings.Contains(report.Recommendations[0], "audio") {
		t.Fatalf("recommendation = %q, want it to address audio quality", report.Recommendations[0])
	}
}

func TestValidateDeterministicAcrossRuns(t *testing.T) {
	v := goodFakesValidator(t, WithAudioDecoder(fakeAudioDecoder{
		sig: makeSignal(t, signalOptions{
			durationSecs: 10,
			segments: []toneSegment{
				{start: 0, dur: 4, freq: 440, amp: 0.3},
				{start: 6, dur: 4, freq: 440, amp: 0.3},
			},
		}),
	}))
	path := tempMediaFile(t)

	first, err := v.Validate(context.Background(), path, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	second, err := v.Validate(context.Background(), path, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("report IDs should be unique per run")
	}
	if first.OverallScore != second.OverallScore || first.Passed != second.Passed {
		t.Fatalf("verdict differs across runs: %.4f/%v vs %.4f/%v",
			first.OverallScore, first.Passed, second.OverallScore, second.Passed)
	}
	if len(first.Issues) != len(second.Issues) {
		t.Fatalf("issue counts differ: %d vs %d", len(first.Issues), len(second.Issues))
	}
	for i := range first.Issues {
		if first.Issues[i] != second.Issues[i] {
			t.Fatalf("issue %d differs: %+v vs %+v", i, first.Issues[i], second.Issues[i])
		}
	}
	for i := range first.Recommendations {
		if first.Recommendations[i] != second.Recommendations[i] {
			t.Fatalf("recommendation %d differs", i)
		}
	}
}

func TestValidateComponentWeights(t *testing.T) {
	// With all weight on synchronization, the overall score must track
	// the sync score exactly.
	v := goodFakesValidator(t, WithProber(fakeProber{info: &media.StreamInfo{
		Duration:      10,
		HasVideo:      true,
		VideoDuration: 10,
		HasAudio:      true,
		AudioDuration: 10.15,
		SampleRate:    8000,
	}}))

	cfg := DefaultConfig()
	cfg.VisualWeight = 0
	cfg.AudioWeight = 0
	cfg.SyncWeight = 1

	report, err := v.Validate(context.Background(), tempMediaFile(t), nil, cfg)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	requireScoreNear(t, report.OverallScore, report.SyncScore, 1e-12)
}
