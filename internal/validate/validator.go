package validate

import (
	"context"
	"fmt"
	"os"

	"github.com/bpradana/weave"

	"github.com/framewell/rendergate/internal/hum"
	"github.com/framewell/rendergate/internal/media"
	"github.com/framewell/rendergate/internal/project"
)

// Stage identifies a phase of a validation run, reported through the
// optional stage callback as the pipeline advances.
type Stage int

const (
	StageNotStarted Stage = iota
	StageExtractingSignals
	StageAnalyzing
	StageAggregating
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageNotStarted:
		return "not started"
	case StageExtractingSignals:
		return "extracting signals"
	case StageAnalyzing:
		return "analyzing"
	case StageAggregating:
		return "aggregating"
	case StageComplete:
		return "complete"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageFunc receives stage transitions during Validate. It is called
// from the validating goroutine and must not block for long.
type StageFunc func(Stage)

// Validator runs the full quality gate over one media artifact. The
// zero value is not usable; construct with NewValidator.
type Validator struct {
	prober  media.Prober
	frames  media.FrameDecoder
	audio   media.AudioDecoder
	mainsHz int
	onStage StageFunc
}

// Option adjusts a Validator at construction time.
type Option func(*Validator)

// WithProber replaces the stream prober.
func WithProber(p media.Prober) Option {
	return func(v *Validator) { v.prober = p }
}

// WithFrameDecoder replaces the frame sampler.
func WithFrameDecoder(d media.FrameDecoder) Option {
	return func(v *Validator) { v.frames = d }
}

// WithAudioDecoder replaces the audio decoder.
func WithAudioDecoder(d media.AudioDecoder) Option {
	return func(v *Validator) { v.audio = d }
}

// WithMainsFrequency pins the mains frequency used for hum attribution
// instead of deriving it from the host timezone.
func WithMainsFrequency(hz int) Option {
	return func(v *Validator) { v.mainsHz = hz }
}

// WithStageFunc registers a callback for stage transitions.
func WithStageFunc(fn StageFunc) Option {
	return func(v *Validator) { v.onStage = fn }
}

// NewValidator builds a Validator backed by the real media decoders.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		prober:  media.NewProber(),
		frames:  media.NewFrameDecoder(),
		audio:   media.NewAudioDecoder(),
		mainsHz: hum.Frequency(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) stage(s Stage) {
	if v.onStage != nil {
		v.onStage(s)
	}
}

// Validate runs the quality gate over the artifact at path and returns
// an immutable report. meta may be nil. It returns an error only for
// conditions that preclude any judgment: an invalid configuration, an
// unreadable path, or a cancelled context. Analyzer and decoder
// failures degrade the affected component instead.
func (v *Validator) Validate(ctx context.Context, path string, meta *project.Metadata, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("media file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("media file %s: not a regular file", path)
	}

	v.stage(StageNotStarted)

	// Phase 1: pull the three raw signals out of the container. Each
	// task fails independently; a failure leaves its signal nil and
	// the owning analyzer degrades.
	v.stage(StageExtractingSignals)

	extract := weave.NewGraph()
	probeTask, err := weave.AddTask(extract, "probe-streams",
		func(ctx context.Context, _ weave.DependencyResolver) (*media.StreamInfo, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return v.prober.Probe(path)
		})
	if err != nil {
		return nil, err
	}
	framesTask, err := weave.AddTask(extract, "sample-frames",
		func(ctx context.Context, _ weave.DependencyResolver) ([]media.Frame, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return v.frames.SampleFrames(path, cfg.FrameSamples)
		})
	if err != nil {
		return nil, err
	}
	audioTask, err := weave.AddTask(extract, "decode-audio",
		func(ctx context.Context, _ weave.DependencyResolver) (*media.Signal, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return v.audio.DecodeAudio(path)
		})
	if err != nil {
		return nil, err
	}

	extracted, _, _ := extract.Run(ctx, weave.WithErrorStrategy(weave.ContinueOnError))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, _ := probeTask.Value(extracted)
	frames, _ := framesTask.Value(extracted)
	signal, _ := audioTask.Value(extracted)

	var duration float64
	if info != nil {
		duration = info.Duration
	}

	// Phase 2: the three analyzers are independent and run
	// concurrently. A panic or error inside one becomes that
	// component's degraded result; the others still report.
	v.stage(StageAnalyzing)

	analyze := weave.NewGraph()
	visualTask, err := weave.AddTask(analyze, "visual-coherence",
		func(ctx context.Context, _ weave.DependencyResolver) (ComponentResult, error) {
			return NewVisualAnalyzer(cfg).Analyze(frames, duration), nil
		})
	if err != nil {
		return nil, err
	}
	audioQTask, err := weave.AddTask(analyze, "audio-quality",
		func(ctx context.Context, _ weave.DependencyResolver) (ComponentResult, error) {
			return NewAudioQualityAnalyzer(cfg, v.mainsHz).Analyze(signal, meta), nil
		})
	if err != nil {
		return nil, err
	}
	syncTask, err := weave.AddTask(analyze, "synchronization",
		func(ctx context.Context, _ weave.DependencyResolver) (ComponentResult, error) {
			return NewSyncAnalyzer(cfg).Analyze(info, meta), nil
		})
	if err != nil {
		return nil, err
	}

	analyzed, _, _ := analyze.Run(ctx, weave.WithErrorStrategy(weave.ContinueOnError))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	visual := componentOrDegraded(visualTask, analyzed, CategoryVisualCoherence, DefaultVisualScore)
	audio := componentOrDegraded(audioQTask, analyzed, CategoryAudioQuality, DefaultAudioScore)
	sync := componentOrDegraded(syncTask, analyzed, CategorySynchronization, DefaultSyncScore)

	// Phase 3: fold component verdicts into the gate decision.
	v.stage(StageAggregating)

	flagBelowMinimum(&visual, CategoryVisualCoherence, "visual coherence", cfg.MinVisualScore)
	flagBelowMinimum(&audio, CategoryAudioQuality, "audio quality", cfg.MinAudioScore)
	flagBelowMinimum(&sync, CategorySynchronization, "synchronization", cfg.MinSyncScore)

	overall := clamp01((cfg.VisualWeight*visual.Score + cfg.AudioWeight*audio.Score + cfg.SyncWeight*sync.Score) /
		(cfg.VisualWeight + cfg.AudioWeight + cfg.SyncWeight))

	passed := overall >= cfg.PassThreshold
	for _, res := range []ComponentResult{visual, audio, sync} {
		if worstSeverity(res.Issues) == SeverityCritical {
			passed = false
		}
	}

	report := newReport(path, overall, visual, audio, sync, passed, recommendations(visual, audio, sync))

	v.stage(StageComplete)
	return report, nil
}

// componentOrDegraded unwraps an analyzer task result, substituting the
// category's conservative default when the task errored or panicked.
func componentOrDegraded(h *weave.Handle[ComponentResult], results *weave.Results, category Category, defaultScore float64) ComponentResult {
	res, err := h.Value(results)
	if err == nil {
		return res
	}
	l := newIssueList(category)
	l.Add(SeverityLow, Location{Seconds: 0},
		"%s analyzer failed (%v); using conservative default score", category, err)
	return ComponentResult{Score: defaultScore, Issues: l.issues}
}

// flagBelowMinimum appends a medium issue when a component score falls
// under its configured floor, continuing the category's ID sequence.
func flagBelowMinimum(res *ComponentResult, category Category, label string, min float64) {
	if res.Score >= min {
		return
	}
	l := &issueList{category: category, issues: res.Issues}
	l.Add(SeverityMedium, Location{Seconds: 0},
		"%s score %.2f is below the required minimum %.2f", label, res.Score, min)
	res.Issues = l.issues
}

// recommendationText maps each category to its fixed remediation
// template, parameterized only by issue count and worst severity so
// identical inputs always produce identical output.
var recommendationText = map[Category]string{
	CategoryVisualCoherence: "review frame sampling and rendering consistency: %d visual coherence issue(s), worst severity %s",
	CategoryAudioQuality:    "inspect the audio mix for gaps, spikes, and noise: %d audio quality issue(s), worst severity %s",
	CategorySynchronization: "re-mux or re-render to realign audio and video timing: %d synchronization issue(s), worst severity %s",
}

// recommendations emits at most one deterministic recommendation per
// category, for categories with at least one issue of medium or worse
// severity, in fixed category order.
func recommendations(visual, audio, sync ComponentResult) []string {
	var recs []string
	for _, part := range []struct {
		category Category
		result   ComponentResult
	}{
		{CategoryVisualCoherence, visual},
		{CategoryAudioQuality, audio},
		{CategorySynchronization, sync},
	} {
		count := 0
		for _, iss := range part.result.Issues {
			if iss.Severity.AtLeast(SeverityMedium) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		recs = append(recs, fmt.Sprintf(recommendationText[part.category], count, worstSeverity(part.result.Issues)))
	}
	return recs
}
