package validate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Conservative defaults returned when an analyzer has no usable signal.
// These are degraded-mode scores, not failures: middling enough to let a
// healthy artifact pass while still denting the overall score.
const (
	// DefaultVisualScore applies when no frames could be sampled.
	DefaultVisualScore = 0.70
	// DefaultAudioScore applies when no audio signal is available.
	DefaultAudioScore = 0.60
	// DefaultSyncScore applies when sync cannot be measured (no audio).
	DefaultSyncScore = 0.80
)

// Config holds the process-wide validation defaults. The validator never
// mutates it; callers may adjust fields between runs.
type Config struct {
	// Pass gates.
	MinVisualScore  float64 `yaml:"min_visual_score"`
	MinAudioScore   float64 `yaml:"min_audio_score"`
	MinSyncScore    float64 `yaml:"min_sync_score"`
	MaxSyncOffsetMs float64 `yaml:"max_sync_offset_ms"`
	PassThreshold   float64 `yaml:"pass_threshold"`

	// Component weighting for the overall score; normalized before use.
	VisualWeight float64 `yaml:"visual_weight"`
	AudioWeight  float64 `yaml:"audio_weight"`
	SyncWeight   float64 `yaml:"sync_weight"`

	// Visual score composition.
	VisualLocalWeight float64 `yaml:"visual_local_weight"`
	VisualDriftWeight float64 `yaml:"visual_drift_weight"`
	DriftThreshold    float64 `yaml:"drift_threshold"` // drift above this is an issue

	// Audio score composition.
	AudioGapWeight      float64 `yaml:"audio_gap_weight"`
	AudioArtifactWeight float64 `yaml:"audio_artifact_weight"`
	AudioDynamicsWeight float64 `yaml:"audio_dynamics_weight"`

	// Sampling and detection parameters.
	FrameSamples     int     `yaml:"frame_samples"`
	WindowSeconds    float64 `yaml:"window_seconds"`
	SilenceThreshold float64 `yaml:"silence_threshold"` // linear RMS
	MinGapSeconds    float64 `yaml:"min_gap_seconds"`
	ArtifactRatio    float64 `yaml:"artifact_ratio"` // spike vs neighbours
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MinVisualScore:  0.70,
		MinAudioScore:   0.60,
		MinSyncScore:    0.80,
		MaxSyncOffsetMs: 75,
		PassThreshold:   0.70,

		VisualWeight: 1.0 / 3.0,
		AudioWeight:  1.0 / 3.0,
		SyncWeight:   1.0 / 3.0,

		VisualLocalWeight: 0.7,
		VisualDriftWeight: 0.3,
		DriftThreshold:    0.35,

		AudioGapWeight:      0.4,
		AudioArtifactWeight: 0.3,
		AudioDynamicsWeight: 0.3,

		FrameSamples:     10,
		WindowSeconds:    1.0,
		SilenceThreshold: 0.001, // about -60 dBFS
		MinGapSeconds:    0.5,
		ArtifactRatio:    4.0,
	}
}

// LoadConfig overlays a YAML file on top of the defaults. Fields absent
// from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the scoring math cannot honour.
func (c Config) Validate() error {
	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s must be in [0,1], got %v", name, v)
		}
		return nil
	}
	for _, check := range []struct {
		name  string
		value float64
	}{
		{"min_visual_score", c.MinVisualScore},
		{"min_audio_score", c.MinAudioScore},
		{"min_sync_score", c.MinSyncScore},
		{"pass_threshold", c.PassThreshold},
		{"drift_threshold", c.DriftThreshold},
	} {
		if err := unit(check.name, check.value); err != nil {
			return err
		}
	}
	if c.MaxSyncOffsetMs <= 0 {
		return fmt.Errorf("config: max_sync_offset_ms must be positive, got %v", c.MaxSyncOffsetMs)
	}
	if c.VisualWeight < 0 || c.AudioWeight < 0 || c.SyncWeight < 0 {
		return fmt.Errorf("config: component weights must not be negative")
	}
	if c.VisualWeight+c.AudioWeight+c.SyncWeight <= 0 {
		return fmt.Errorf("config: component weights must not all be zero")
	}
	if c.VisualLocalWeight < 0 || c.VisualDriftWeight < 0 || c.VisualLocalWeight+c.VisualDriftWeight <= 0 {
		return fmt.Errorf("config: visual weights must be non-negative and not all zero")
	}
	if c.AudioGapWeight < 0 || c.AudioArtifactWeight < 0 || c.AudioDynamicsWeight < 0 ||
		c.AudioGapWeight+c.AudioArtifactWeight+c.AudioDynamicsWeight <= 0 {
		return fmt.Errorf("config: audio weights must be non-negative and not all zero")
	}
	if c.FrameSamples <= 0 {
		return fmt.Errorf("config: frame_samples must be positive, got %d", c.FrameSamples)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("config: window_seconds must be positive, got %v", c.WindowSeconds)
	}
	if c.SilenceThreshold < 0 {
		return fmt.Errorf("config: silence_threshold must not be negative, got %v", c.SilenceThreshold)
	}
	if c.MinGapSeconds <= 0 {
		return fmt.Errorf("config: min_gap_seconds must be positive, got %v", c.MinGapSeconds)
	}
	if c.ArtifactRatio <= 1 {
		return fmt.Errorf("config: artifact_ratio must exceed 1, got %v", c.ArtifactRatio)
	}
	return nil
}

// clamp01 bounds a score into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
