// Package media provides read-only access to rendered media artifacts
// using ffmpeg-statigo: container probing, uniform frame sampling, and
// audio decoding into an amplitude series.
package media

import "errors"

var (
	// ErrNoAudioStream indicates the artifact has no audio track at all.
	// Distinct from a present-but-silent track, which decodes normally.
	ErrNoAudioStream = errors.New("media: no audio stream in artifact")

	// ErrNoVideoStream indicates the artifact has no video track.
	ErrNoVideoStream = errors.New("media: no video stream in artifact")

	// ErrDecoderUnavailable indicates the decoding capability was not
	// wired in (stub provider). Callers degrade, they do not abort.
	ErrDecoderUnavailable = errors.New("media: decoder unavailable")
)

// StreamInfo carries per-stream timing derived independently for the
// video and audio tracks of one artifact.
type StreamInfo struct {
	Path     string
	Duration float64 // container duration in seconds

	HasVideo      bool
	VideoDuration float64 // implied by the video stream alone
	FrameRate     float64 // average frame rate
	FrameCount    int64   // 0 when the container does not record it

	HasAudio      bool
	AudioDuration float64 // implied by the audio stream alone
	SampleRate    int
}

// Frame is one sampled video frame, reduced to its plane data. U and V
// are nil for frames whose pixel format exposes no separate chroma.
type Frame struct {
	Timestamp float64 // seconds from stream start
	Width     int
	Height    int
	Y         []byte
	U         []byte
	V         []byte
	ChromaW   int
	ChromaH   int
}

// Signal is a decoded mono (stereo-collapsed) amplitude series.
type Signal struct {
	Samples    []float64 // normalized to [-1, 1]
	SampleRate int
	Duration   float64 // seconds, derived from len(Samples)/SampleRate
}

// Prober reports stream timing for an artifact.
type Prober interface {
	Probe(path string) (*StreamInfo, error)
}

// FrameDecoder samples decoded frames from an artifact. Implementations
// return at most n frames, uniformly spaced across the duration, and an
// empty result (not an error) when frames cannot be produced.
type FrameDecoder interface {
	SampleFrames(path string, n int) ([]Frame, error)
}

// AudioDecoder decodes the artifact's audio track into a Signal.
type AudioDecoder interface {
	DecodeAudio(path string) (*Signal, error)
}

// UnavailableFrameDecoder is the conservative stub selected when no
// frame-decoding capability is present. It reports no frames so callers
// fall back to their degraded path.
type UnavailableFrameDecoder struct{}

func (UnavailableFrameDecoder) SampleFrames(string, int) ([]Frame, error) {
	return nil, nil
}

// UnavailableAudioDecoder is the conservative stub for absent audio
// decoding capability.
type UnavailableAudioDecoder struct{}

func (UnavailableAudioDecoder) DecodeAudio(string) (*Signal, error) {
	return nil, ErrDecoderUnavailable
}

// SampleTimestamps returns n uniformly spaced timestamps across duration,
// anchored to the first and last instant. A single sample lands at zero.
func SampleTimestamps(duration float64, n int) []float64 {
	if n <= 0 || duration < 0 {
		return nil
	}
	if n == 1 || duration == 0 {
		return []float64{0}
	}
	ts := make([]float64, n)
	step := duration / float64(n-1)
	for i := range ts {
		ts[i] = step * float64(i)
	}
	ts[n-1] = duration
	return ts
}
